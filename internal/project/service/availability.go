package service

import (
	"context"
	"errors"

	"bto/internal/project/models"
	"bto/internal/project/store/availability"
	"bto/pkg/platform/sentinel"
)

// Availability returns the unit ledger of a project keyed by flat type.
// Reads go to the cache first; a miss or cache error falls back to the
// store and repopulates the cache under the project lock, so the refill
// cannot overwrite a newer ledger written by a concurrent booking.
func (s *Service) Availability(ctx context.Context, id string) (map[models.FlatType]availability.Units, error) {
	if s.cache == nil {
		p, err := s.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		return ledgerOf(p), nil
	}

	units, err := s.cache.Get(ctx, id)
	if err == nil {
		return units, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "availability cache read failed",
			"project_id", id,
			"error", err,
		)
	}
	s.metrics.IncrementCacheFallback()

	p, err := s.primeCache(ctx, id)
	if err != nil {
		return nil, wrapProjectErr(err, "load availability")
	}
	return ledgerOf(p), nil
}

func ledgerOf(p *models.Project) map[models.FlatType]availability.Units {
	out := make(map[models.FlatType]availability.Units, len(p.FlatTypes()))
	for _, t := range p.FlatTypes() {
		out[t] = availability.Units{
			Available: p.AvailableUnitsByType(t),
			Total:     p.TotalUnitsByType(t),
		}
	}
	return out
}
