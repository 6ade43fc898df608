// Package feedback records operator verdicts on served responses.
//
// Durability contract: the local append-only log is written first and
// is authoritative. Forwarding to external storage is best-effort; a
// forwarding failure downgrades the acknowledgement to a warning, it
// never loses the entry.
package feedback

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

// Verdict is the operator's judgement of a served response.
type Verdict string

const (
	// VerdictWorked means the guidance resolved the problem.
	VerdictWorked Verdict = "worked"
	// VerdictNeedsReview flags the response for curation.
	VerdictNeedsReview Verdict = "needs_review"
)

var (
	// ErrInvalidVerdict rejects verdicts outside the known set.
	ErrInvalidVerdict = errors.New("invalid verdict")

	// ErrMissingResponseRef rejects entries that reference no response.
	ErrMissingResponseRef = errors.New("response_ref is required")
)

// Entry is one feedback record.
type Entry struct {
	ResponseRef string   `json:"response_ref"`
	QueryText   string   `json:"query_text"`
	Mode        string   `json:"mode"`
	TopScore    *float64 `json:"top_score,omitempty"`
	Verdict     Verdict  `json:"verdict"`
	Comment     string   `json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the entry before it is recorded.
func (e Entry) Validate() error {
	if e.ResponseRef == "" {
		return ErrMissingResponseRef
	}
	switch e.Verdict {
	case VerdictWorked, VerdictNeedsReview:
		return nil
	default:
		return fmt.Errorf("%w: %q (allowed: worked, needs_review)", ErrInvalidVerdict, e.Verdict)
	}
}

// Ack reports the outcome of recording an entry. Warning is set when
// the entry was logged locally but forwarding failed.
type Ack struct {
	Recorded bool   `json:"recorded"`
	Warning  string `json:"warning,omitempty"`
}

// Forwarder ships recorded entries to external storage.
type Forwarder interface {
	Forward(ctx context.Context, e Entry) error
	Close() error
}

var csvHeader = []string{"created_at", "response_ref", "query_text", "mode", "top_score", "verdict", "comment"}

// Recorder appends feedback to a local CSV log and forwards it.
type Recorder struct {
	path      string
	forwarder Forwarder // nil disables forwarding
	logger    *logging.Logger

	mu sync.Mutex
}

// NewRecorder opens (creating if needed) the local log at logPath.
func NewRecorder(logPath string, forwarder Forwarder, logger *logging.Logger) (*Recorder, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	path, err := config.ExpandPath(logPath)
	if err != nil {
		return nil, fmt.Errorf("expand log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	r := &Recorder{path: path, forwarder: forwarder, logger: logger.Named("feedback")}
	if err := r.ensureHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ensureHeader() error {
	info, err := os.Stat(r.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat feedback log: %w", err)
	}
	return r.appendRow(csvHeader)
}

// Record validates, appends locally, then forwards. The entry is
// acknowledged as recorded once the local append succeeds.
func (r *Recorder) Record(ctx context.Context, e Entry) (Ack, error) {
	if err := e.Validate(); err != nil {
		return Ack{}, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	topScore := ""
	if e.TopScore != nil {
		topScore = strconv.FormatFloat(*e.TopScore, 'f', -1, 64)
	}
	row := []string{
		e.CreatedAt.Format(time.RFC3339Nano),
		e.ResponseRef,
		e.QueryText,
		e.Mode,
		topScore,
		string(e.Verdict),
		e.Comment,
	}
	if err := r.appendRow(row); err != nil {
		return Ack{}, fmt.Errorf("append feedback: %w", err)
	}

	ack := Ack{Recorded: true}
	if r.forwarder != nil {
		if err := r.forwarder.Forward(ctx, e); err != nil {
			r.logger.Warn(ctx, "feedback forwarding failed",
				zap.String("response_ref", e.ResponseRef),
				zap.Error(err))
			ack.Warning = "recorded locally; forwarding to external storage failed"
		}
	}
	return ack, nil
}

func (r *Recorder) appendRow(row []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// Close releases the forwarder, if any.
func (r *Recorder) Close() error {
	if r.forwarder == nil {
		return nil
	}
	return r.forwarder.Close()
}
