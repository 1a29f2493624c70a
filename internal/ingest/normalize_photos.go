package ingest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/evcraddock/dreamdoor/internal/photo"
)

// NormalizeOptions controls NormalizeStoredPhotos.
type NormalizeOptions struct {
	Limit  int
	DryRun bool
}

// HrefChange is one rewritten photo URL.
type HrefChange struct {
	Before   string `json:"before"`
	After    string `json:"after"`
	Fallback string `json:"fallback,omitempty"`
}

// SetChange lists the URL rewrites of one stored photo set.
type SetChange struct {
	PhotoSetID int64        `json:"photo_set_id"`
	HouseID    int64        `json:"house_id"`
	ExternalID string       `json:"external_id"`
	Changes    []HrefChange `json:"changes"`
}

// NormalizeResult summarizes a maintenance run.
type NormalizeResult struct {
	Scanned int `json:"scanned"`
	// Updated counts sets that were rewritten, or would be in a dry run.
	Updated int         `json:"updated"`
	DryRun  bool        `json:"dry_run"`
	Sets    []SetChange `json:"sets,omitempty"`
}

// NormalizeStoredPhotos rewrites stored photo URLs to the preferred size.
// Payloads that are not arrays are skipped; sets already normalized are
// not written.
func (s *Service) NormalizeStoredPhotos(ctx context.Context, opts NormalizeOptions) (*NormalizeResult, error) {
	sets, err := s.store.ListPhotoSets(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("loading photo sets: %w", err)
	}

	res := &NormalizeResult{DryRun: opts.DryRun}
	for _, ps := range sets {
		res.Scanned++

		stored, ok := ps.Payload.([]any)
		if !ok {
			continue
		}
		normalized := photo.NormalizeAll(stored)
		if reflect.DeepEqual(normalized, stored) {
			continue
		}
		res.Updated++

		if opts.DryRun {
			if changes := hrefChanges(stored, normalized); len(changes) > 0 {
				res.Sets = append(res.Sets, SetChange{
					PhotoSetID: ps.ID,
					HouseID:    ps.HouseID,
					ExternalID: ps.ExternalID,
					Changes:    changes,
				})
			}
			continue
		}

		if err := s.store.UpdatePhotoSet(ctx, ps.ID, normalized); err != nil {
			return res, fmt.Errorf("saving photo set %d: %w", ps.ID, err)
		}
	}

	s.logger.Info("normalized stored photos", "scanned", res.Scanned, "updated", res.Updated, "dry_run", opts.DryRun)
	return res, nil
}

func hrefChanges(before, after []any) []HrefChange {
	var changes []HrefChange
	for i := range before {
		b, ok := before[i].(map[string]any)
		if !ok {
			continue
		}
		a, ok := after[i].(map[string]any)
		if !ok {
			continue
		}
		oldHref, _ := b["href"].(string)
		newHref, _ := a["href"].(string)
		if oldHref == "" || newHref == "" || oldHref == newHref {
			continue
		}
		fallback, _ := a["href_fallback"].(string)
		changes = append(changes, HrefChange{Before: oldHref, After: newHref, Fallback: fallback})
	}
	return changes
}
