package corpus

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bluecomlabs/netrod/internal/logging"
)

// Source pairs a family adapter with its base table and optional
// metadata table.
type Source struct {
	Adapter *Adapter
	Base    Table
	Meta    *Table
}

// Normalizer merges multiple source families into one deduplicated
// corpus of knowledge units.
type Normalizer struct {
	logger *logging.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Normalizer{logger: logger.Named("corpus")}
}

// Normalize runs every source family and concatenates the results.
// A malformed family is skipped and reported through the returned error;
// units from the remaining families are still returned, so callers can
// proceed with a partial corpus when at least one family succeeded.
// Duplicate unit IDs across families keep the first occurrence.
func (n *Normalizer) Normalize(ctx context.Context, sources []Source) ([]KnowledgeUnit, Report, error) {
	var (
		units  []KnowledgeUnit
		report Report
		errs   []error
		seen   = map[string]bool{}
	)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, Report{}, err
		}

		familyUnits, familyReport, err := src.Adapter.Normalize(src.Base, src.Meta)
		if err != nil {
			n.logger.Error(ctx, "source family failed normalization",
				zap.String("kind", string(src.Adapter.Kind())),
				zap.String("table", src.Base.Name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("family %s: %w", src.Adapter.Kind(), err))
			continue
		}

		report.Add(familyReport)
		for _, u := range familyUnits {
			if seen[u.UnitID] {
				report.Dropped++
				continue
			}
			seen[u.UnitID] = true
			units = append(units, u)
		}

		n.logger.Info(ctx, "source family normalized",
			zap.String("kind", string(src.Adapter.Kind())),
			zap.Int("rows", familyReport.Total),
			zap.Int("dropped", familyReport.Dropped))
	}

	return units, report, errors.Join(errs...)
}
