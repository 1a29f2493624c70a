package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/listing"
	"github.com/evcraddock/dreamdoor/internal/realty"
	"github.com/evcraddock/dreamdoor/internal/shape"
)

// DefaultSearchLimit is the page size used when none is given.
const DefaultSearchLimit = 200

// ErrPostalCodeRequired is returned by Search when no postal code is given.
var ErrPostalCodeRequired = errors.New("postal code is required")

// SearchOptions selects one page of listings.
type SearchOptions struct {
	PostalCode string
	Limit      int
	Offset     int
}

// SearchResult summarizes a search job.
type SearchResult struct {
	Fetched   int `json:"fetched"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	// Skipped counts listings rejected for lacking an external id.
	Skipped int `json:"skipped"`
}

// Search fetches one page of listings for a postal code and reconciles
// each into the store. A failed fetch writes nothing.
func (s *Service) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	zip := strings.TrimSpace(opts.PostalCode)
	if zip == "" {
		return nil, ErrPostalCodeRequired
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	doc, err := s.realty.Search(ctx, realty.SearchRequest{
		Limit:      limit,
		Offset:     offset,
		PostalCode: zip,
		Status:     realty.DefaultStatuses,
		Sort:       realty.DefaultSort,
	})
	if err != nil {
		return nil, fmt.Errorf("searching listings: %w", err)
	}

	res := &SearchResult{}
	items := shape.List(doc, shape.ListingPaths...)
	if len(items) == 0 {
		s.logger.Warn("no listings found in API response", "postal_code", zip)
		return res, nil
	}
	res.Fetched = len(items)
	s.logger.Info("fetched listings", "count", len(items), "postal_code", zip, "offset", offset)

	n := listing.Normalizer{Location: s.location}
	for _, item := range items {
		l, ok := n.Normalize(item)
		if !ok {
			res.Skipped++
			continue
		}
		if l.PostalCode == "" {
			l.PostalCode = zip
		}

		_, outcome, err := s.store.UpsertHouse(ctx, house.SourceRealtyInUS, l.ExternalID, l.Fields)
		if err != nil {
			return res, fmt.Errorf("saving listing %s: %w", l.ExternalID, err)
		}
		switch outcome {
		case house.Created:
			res.Created++
		case house.Updated:
			res.Updated++
		default:
			res.Unchanged++
		}
	}

	if res.Created+res.Updated == 0 {
		s.logger.Warn("no records were created or updated", "postal_code", zip)
	}

	return res, nil
}
