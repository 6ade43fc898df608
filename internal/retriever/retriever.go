// Package retriever performs similarity search over the indexed corpus
// for incoming troubleshooting queries.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/logging"
	"github.com/bluecomlabs/netrod/internal/vectorstore"
)

// QueryEmbedder is the query-side embedding dependency.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Candidate is one retrieved corpus record with its similarity score.
type Candidate struct {
	UnitID       string  `json:"unit_id"`
	Score        float64 `json:"score"`
	ProductID    string  `json:"product_id,omitempty"`
	ProblemText  string  `json:"problem_text"`
	SolutionText string  `json:"solution_text"`
	SourceKind   string  `json:"source_kind,omitempty"`
}

// Retriever embeds a query and searches the vector store.
type Retriever struct {
	embedder QueryEmbedder
	store    vectorstore.Store
	logger   *logging.Logger
}

// New creates a Retriever.
func New(embedder QueryEmbedder, store vectorstore.Store, logger *logging.Logger) *Retriever {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Retriever{embedder: embedder, store: store, logger: logger.Named("retriever")}
}

// Retrieve returns up to k candidates ordered by descending score, ties
// broken by unit ID so results are deterministic. An empty or missing
// collection yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Candidate, error) {
	if k <= 0 {
		return []Candidate{}, nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, Candidate{
			UnitID:       h.ID,
			Score:        h.Score,
			ProductID:    h.Payload["product_id"],
			ProblemText:  h.Payload["problem_text"],
			SolutionText: h.Payload["solution_text"],
			SourceKind:   h.Payload["source_kind"],
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UnitID < candidates[j].UnitID
	})

	r.logger.Debug(ctx, "retrieved candidates",
		zap.Int("requested", k),
		zap.Int("returned", len(candidates)))
	return candidates, nil
}
