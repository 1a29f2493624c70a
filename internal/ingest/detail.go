package ingest

import (
	"context"
	"fmt"

	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/shape"
)

// Detail fetches and stores the detail document of each selected house.
// Failed fetches are counted and skipped.
func (s *Service) Detail(ctx context.Context, sel Selection) (*Result, error) {
	houses, err := s.selectHouses(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("selecting houses: %w", err)
	}
	if len(houses) == 0 {
		s.logger.Warn("no houses found for detail fetch")
		return &Result{}, nil
	}

	return enrich(ctx, houses, enrichment{
		fetch: s.realty.Detail,
		apply: func(ctx context.Context, h *house.House, doc any) (bool, error) {
			var payload any = map[string]any{}
			if home := shape.Object(doc, shape.DetailPaths...); home != nil {
				payload = home
			}
			return s.store.UpsertDetail(ctx, h.ID, payload)
		},
		policy: ContinueOnError{Logger: s.logger},
	})
}
