package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/photo"
	"github.com/evcraddock/dreamdoor/internal/shape"
)

// Photos fetches, normalizes and stores the photo set of each selected
// house. The first failed fetch halts the run and records an import error
// for that house and every house after it.
func (s *Service) Photos(ctx context.Context, sel Selection) (*Result, error) {
	houses, err := s.selectHouses(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("selecting houses: %w", err)
	}
	if len(houses) == 0 {
		s.logger.Warn("no houses found for photo fetch")
		return &Result{}, nil
	}

	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)

	res, err := enrich(ctx, houses, enrichment{
		fetch: s.realty.Photos,
		apply: func(ctx context.Context, h *house.House, doc any) (bool, error) {
			photos := photo.NormalizeAll(shape.List(doc, shape.PhotoPaths...))
			created, err := s.store.UpsertPhotos(ctx, h.ID, photos)
			if err != nil {
				return false, err
			}
			logger.Info("imported photos", "house_id", h.ID, "external_id", h.ExternalID, "count", len(photos))
			return created, nil
		},
		policy: AbortAndRecord{
			Store:      s.store,
			ImportType: house.ImportTypePhotos,
			RunID:      runID,
			Logger:     logger,
		},
	})
	if res != nil {
		res.RunID = runID
	}
	return res, err
}
