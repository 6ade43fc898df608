// Package router classifies retrieval confidence and decides how a
// query is answered.
package router

import (
	"fmt"

	"github.com/bluecomlabs/netrod/internal/config"
)

// Mode is the confidence band a query is routed to.
type Mode string

const (
	// High returns the best match's recorded solution verbatim.
	High Mode = "high"
	// Medium generates an answer grounded in retrieved context.
	Medium Mode = "medium"
	// Low generates general diagnostic guidance without context.
	Low Mode = "low"
)

// Thresholds holds the routing cut points. HighMin must be strictly
// greater than MediumMin; both lie in [0,1].
type Thresholds struct {
	HighMin   float64
	MediumMin float64
}

// FromConfig builds Thresholds from validated configuration.
func FromConfig(cfg config.RoutingConfig) Thresholds {
	return Thresholds{HighMin: cfg.HighThreshold, MediumMin: cfg.MediumThreshold}
}

// Validate rejects unordered or out-of-range thresholds.
func (t Thresholds) Validate() error {
	if t.HighMin < 0 || t.HighMin > 1 || t.MediumMin < 0 || t.MediumMin > 1 {
		return fmt.Errorf("thresholds out of range [0,1]: high=%v medium=%v", t.HighMin, t.MediumMin)
	}
	if t.HighMin <= t.MediumMin {
		return fmt.Errorf("high threshold %v must be greater than medium threshold %v", t.HighMin, t.MediumMin)
	}
	return nil
}

// Classify maps a top similarity score to a confidence mode. Both
// thresholds are inclusive lower bounds. A nil score means retrieval
// produced no candidates, which routes Low.
func (t Thresholds) Classify(topScore *float64) Mode {
	switch {
	case topScore == nil:
		return Low
	case *topScore >= t.HighMin:
		return High
	case *topScore >= t.MediumMin:
		return Medium
	default:
		return Low
	}
}
