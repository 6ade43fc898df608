// Package troubleshoot orchestrates the query pipeline: retrieve
// similar past issues, classify confidence, and assemble a response.
//
// Routing contract:
//   - High: the best match's recorded solution is returned verbatim,
//     with no generation involved.
//   - Medium: an answer is generated, grounded in the top matches.
//   - Low: general diagnostic guidance is generated without context.
//
// The pipeline degrades instead of failing: an unreachable vector store
// routes the query Low, and unavailable generation falls back to canned
// diagnostic steps. Every query gets an answer.
package troubleshoot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/feedback"
	"github.com/bluecomlabs/netrod/internal/generate"
	"github.com/bluecomlabs/netrod/internal/logging"
	"github.com/bluecomlabs/netrod/internal/retriever"
	"github.com/bluecomlabs/netrod/internal/router"
)

// ErrEmptyQuery rejects blank problem descriptions.
var ErrEmptyQuery = errors.New("query text is empty")

// Retriever is the retrieval dependency.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]retriever.Candidate, error)
}

// Generator is the generation dependency.
type Generator interface {
	WithContext(ctx context.Context, query string, snippets []generate.ContextSnippet) (string, error)
	General(ctx context.Context, query string) (string, error)
}

// Recorder is the feedback dependency.
type Recorder interface {
	Record(ctx context.Context, e feedback.Entry) (feedback.Ack, error)
}

// Response is the assembled answer for one query.
type Response struct {
	// ResponseRef identifies this response for later feedback.
	ResponseRef string `json:"response_ref"`

	Query string      `json:"query"`
	Mode  router.Mode `json:"mode"`

	// Answer is the troubleshooting guidance: a verbatim stored solution
	// in High mode, generated text otherwise. Empty only when
	// FallbackSteps is set.
	Answer string `json:"answer,omitempty"`

	// FallbackSteps is set instead of Answer when generation was needed
	// but unavailable.
	FallbackSteps []string `json:"fallback_steps,omitempty"`

	// TopScore is the best similarity score, absent when retrieval
	// returned nothing.
	TopScore *float64 `json:"top_score,omitempty"`

	// Matches lists the retrieved candidates behind the answer.
	Matches []retriever.Candidate `json:"matches,omitempty"`

	// Degraded marks responses produced under a capability outage.
	Degraded bool `json:"degraded,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Service runs the troubleshooting pipeline.
type Service struct {
	retriever   Retriever
	generator   Generator
	recorder    Recorder
	thresholds  router.Thresholds
	topK        int
	contextSize int
	logger      *logging.Logger

	now func() time.Time
}

// New creates a Service from validated routing configuration.
func New(cfg config.RoutingConfig, r Retriever, g Generator, rec Recorder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		retriever:   r,
		generator:   g,
		recorder:    rec,
		thresholds:  router.FromConfig(cfg),
		topK:        cfg.TopK,
		contextSize: cfg.ContextSize,
		logger:      logger.Named("troubleshoot"),
		now:         time.Now,
	}
}

// HandleQuery answers one problem description.
func (s *Service) HandleQuery(ctx context.Context, query string) (Response, error) {
	if query == "" {
		return Response{}, ErrEmptyQuery
	}

	createdAt := s.now().UTC()
	resp := Response{
		ResponseRef: responseRef(query, createdAt),
		Query:       query,
		CreatedAt:   createdAt,
	}

	candidates, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		// Retrieval outage: answer anyway, without corpus context.
		s.logger.Warn(ctx, "retrieval unavailable, routing low", zap.Error(err))
		resp.Degraded = true
		candidates = nil
	}

	if len(candidates) > 0 {
		resp.TopScore = &candidates[0].Score
		resp.Matches = candidates[:min(s.contextSize, len(candidates))]
	}
	resp.Mode = s.thresholds.Classify(resp.TopScore)

	switch resp.Mode {
	case router.High:
		// The top match must carry a solution to be served verbatim;
		// a problem-only match is answered like a Medium hit.
		if candidates[0].SolutionText != "" {
			resp.Answer = candidates[0].SolutionText
		} else {
			s.generateWithContext(ctx, &resp, candidates)
		}
	case router.Medium:
		s.generateWithContext(ctx, &resp, candidates)
	default:
		s.generateGeneral(ctx, &resp)
	}

	s.logger.Info(ctx, "query answered",
		zap.String("response_ref", resp.ResponseRef),
		zap.String("mode", string(resp.Mode)),
		zap.Bool("degraded", resp.Degraded),
		zap.Float64p("top_score", resp.TopScore))
	return resp, nil
}

func (s *Service) generateWithContext(ctx context.Context, resp *Response, candidates []retriever.Candidate) {
	snippets := make([]generate.ContextSnippet, 0, s.contextSize)
	for _, c := range candidates {
		if len(snippets) == s.contextSize {
			break
		}
		snippets = append(snippets, generate.ContextSnippet{
			ProblemText:  c.ProblemText,
			SolutionText: c.SolutionText,
			Score:        c.Score,
		})
	}

	answer, err := s.generator.WithContext(ctx, resp.Query, snippets)
	if err != nil {
		s.degradeToFallback(ctx, resp, err)
		return
	}
	resp.Answer = answer
}

func (s *Service) generateGeneral(ctx context.Context, resp *Response) {
	answer, err := s.generator.General(ctx, resp.Query)
	if err != nil {
		s.degradeToFallback(ctx, resp, err)
		return
	}
	resp.Answer = answer
}

func (s *Service) degradeToFallback(ctx context.Context, resp *Response, err error) {
	s.logger.Warn(ctx, "generation unavailable, serving fallback steps",
		zap.String("response_ref", resp.ResponseRef),
		zap.Error(err))
	resp.Degraded = true
	resp.FallbackSteps = generate.FallbackSteps()
}

// HandleFeedback records an operator verdict on a served response.
func (s *Service) HandleFeedback(ctx context.Context, e feedback.Entry) (feedback.Ack, error) {
	return s.recorder.Record(ctx, e)
}

// responseRef derives a stable reference for a served response.
func responseRef(query string, createdAt time.Time) string {
	h := sha256.Sum256([]byte(query + "|" + createdAt.Format(time.RFC3339Nano)))
	return hex.EncodeToString(h[:16])
}
