package feedback

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubForwarder struct {
	entries []Entry
	err     error
	closed  bool
}

func (s *stubForwarder) Forward(_ context.Context, e Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *stubForwarder) Close() error {
	s.closed = true
	return nil
}

func readLog(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func score(v float64) *float64 { return &v }

func TestRecord_AppendsLocally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "feedback.csv")
	r, err := NewRecorder(path, nil, nil)
	require.NoError(t, err)

	ack, err := r.Record(context.Background(), Entry{
		ResponseRef: "ref-1",
		QueryText:   "vpn tunnel down",
		Mode:        "medium",
		TopScore:    score(0.42),
		Verdict:     VerdictWorked,
		Comment:     "step 2 fixed it",
	})
	require.NoError(t, err)
	assert.True(t, ack.Recorded)
	assert.Empty(t, ack.Warning)

	rows := readLog(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "ref-1", rows[1][1])
	assert.Equal(t, "0.42", rows[1][4])
	assert.Equal(t, "worked", rows[1][5])
}

func TestRecord_AppendsAcrossRecorders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")

	for i := 0; i < 2; i++ {
		r, err := NewRecorder(path, nil, nil)
		require.NoError(t, err)
		_, err = r.Record(context.Background(), Entry{ResponseRef: "ref", Verdict: VerdictNeedsReview})
		require.NoError(t, err)
	}

	rows := readLog(t, path)
	assert.Len(t, rows, 3, "header once, one row per record")
}

func TestRecord_InvalidVerdict(t *testing.T) {
	r, err := NewRecorder(filepath.Join(t.TempDir(), "feedback.csv"), nil, nil)
	require.NoError(t, err)

	_, err = r.Record(context.Background(), Entry{ResponseRef: "ref", Verdict: "maybe"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVerdict)

	_, err = r.Record(context.Background(), Entry{Verdict: VerdictWorked})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingResponseRef)
}

func TestRecord_Forwards(t *testing.T) {
	fw := &stubForwarder{}
	r, err := NewRecorder(filepath.Join(t.TempDir(), "feedback.csv"), fw, nil)
	require.NoError(t, err)

	ack, err := r.Record(context.Background(), Entry{ResponseRef: "ref-2", Verdict: VerdictWorked})
	require.NoError(t, err)
	assert.True(t, ack.Recorded)

	require.Len(t, fw.entries, 1)
	assert.Equal(t, "ref-2", fw.entries[0].ResponseRef)
	assert.False(t, fw.entries[0].CreatedAt.IsZero())
}

func TestRecord_ForwardFailureIsWarningOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	fw := &stubForwarder{err: errors.New("nats unreachable")}
	r, err := NewRecorder(path, fw, nil)
	require.NoError(t, err)

	ack, err := r.Record(context.Background(), Entry{ResponseRef: "ref-3", Verdict: VerdictNeedsReview})
	require.NoError(t, err)
	assert.True(t, ack.Recorded)
	assert.NotEmpty(t, ack.Warning)

	// Local append still happened.
	rows := readLog(t, path)
	assert.Len(t, rows, 2)
}

func TestRecorder_Close(t *testing.T) {
	fw := &stubForwarder{}
	r, err := NewRecorder(filepath.Join(t.TempDir(), "feedback.csv"), fw, nil)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.True(t, fw.closed)

	noFw, err := NewRecorder(filepath.Join(t.TempDir(), "f2.csv"), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, noFw.Close())
}
