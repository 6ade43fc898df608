// Package corpus normalizes heterogeneous historical issue records into
// canonical knowledge units.
//
// Each source family (tech documents, incident tickets) has its own
// adapter implementing a fixed mapping to the KnowledgeUnit schema.
// Adapters left-join optional metadata tables on the family's identifier
// column; records with neither problem nor solution text are dropped and
// counted, never errored.
package corpus

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrDataFormat indicates malformed tabular input, such as a missing
// required identifier column. It is local to one source family.
var ErrDataFormat = errors.New("malformed tabular input")

// SourceKind identifies the record family a knowledge unit came from.
type SourceKind string

const (
	// SourceTechDoc marks units derived from technical documents.
	SourceTechDoc SourceKind = "tech_doc"
	// SourceIncident marks units derived from incident tickets.
	SourceIncident SourceKind = "incident"
)

// unitNamespace is the UUIDv5 namespace for deriving stable unit IDs.
var unitNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("netrod/knowledge-unit"))

// UnitID derives the stable corpus-wide identifier for a source record.
// The same (kind, source id) pair always maps to the same UUID, which
// keeps re-indexing idempotent.
func UnitID(kind SourceKind, sourceID string) string {
	return uuid.NewSHA1(unitNamespace, []byte(string(kind)+":"+sourceID)).String()
}

// KnowledgeUnit is one canonical historical issue+solution record.
type KnowledgeUnit struct {
	// UnitID is stable and unique across the whole corpus.
	UnitID string `json:"unit_id"`

	// SourceID is the identifier in the originating table (doc_id or
	// ticket_id), kept for attribution.
	SourceID string `json:"source_id"`

	ProductID string `json:"product_id"`

	// ProblemText and SolutionText are both optional, but at least one
	// is non-empty for any unit that survives normalization.
	ProblemText  string `json:"problem_text"`
	SolutionText string `json:"solution_text"`

	SourceKind SourceKind `json:"source_kind"`

	// Metadata carries the remaining source fields opaquely.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HasText reports whether the unit satisfies the normalization invariant.
func (u KnowledgeUnit) HasText() bool {
	return u.ProblemText != "" || u.SolutionText != ""
}

// EmbedText returns the text embedded at index time: the problem and
// solution concatenated, or whichever exists.
func (u KnowledgeUnit) EmbedText() string {
	switch {
	case u.ProblemText != "" && u.SolutionText != "":
		return u.ProblemText + " " + u.SolutionText
	case u.ProblemText != "":
		return u.ProblemText
	default:
		return u.SolutionText
	}
}

// Row is one record of a tabular source, keyed by column name.
type Row map[string]string

// Table is a named tabular source with declared columns.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// cleanText collapses whitespace runs and trims the result.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
