package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/realty"
)

// Result summarizes an enrichment job.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
	// Halted is set when the failure policy stopped the loop early.
	Halted bool `json:"halted"`
	// Remaining lists the ids of houses left unprocessed by a halt,
	// starting with the one that failed.
	Remaining []int64 `json:"remaining,omitempty"`
	RunID     string  `json:"run_id,omitempty"`
}

// enrichment wires one job into the shared loop.
type enrichment struct {
	fetch  func(ctx context.Context, externalID string) (any, error)
	apply  func(ctx context.Context, h *house.House, doc any) (created bool, err error)
	policy FailurePolicy
}

// enrich fetches a document per house and applies it. Fetch failures go
// to the policy; store failures end the job.
func enrich(ctx context.Context, houses []*house.House, e enrichment) (*Result, error) {
	res := &Result{}

	for i, h := range houses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if h.ExternalID == "" {
			continue
		}

		doc, err := e.fetch(ctx, h.ExternalID)
		if err != nil {
			d, perr := e.policy.OnFailure(ctx, Failure{
				House:     h,
				Message:   failureMessage(h, err),
				Remaining: houses[i:],
			})
			if perr != nil {
				return res, perr
			}
			res.Errors += d.Errors
			if d.Halt {
				res.Halted = true
				for _, r := range houses[i:] {
					res.Remaining = append(res.Remaining, r.ID)
				}
				return res, nil
			}
			continue
		}

		created, err := e.apply(ctx, h, doc)
		if err != nil {
			return res, fmt.Errorf("storing house %d: %w", h.ID, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	return res, nil
}

// failureMessage describes a failed fetch for logs and import errors.
func failureMessage(h *house.House, err error) string {
	var apiErr *realty.APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("realty API error %d for house %d: %s", apiErr.StatusCode, h.ID, apiErr.Body)
	case errors.Is(err, realty.ErrInvalidJSON):
		return fmt.Sprintf("invalid JSON for house %d: %v", h.ID, err)
	default:
		return fmt.Sprintf("network error for house %d: %v", h.ID, err)
	}
}
