// Package ingest runs the listing ingestion jobs: search, detail and photo
// enrichment, and stored photo maintenance.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/realty"
)

// Store is the reconciliation store the jobs write to.
type Store interface {
	UpsertHouse(ctx context.Context, source, externalID string, f house.Fields) (*house.House, house.Outcome, error)
	ListHouses(ctx context.Context, source string, filter house.HouseFilter) ([]*house.House, error)
	UpsertDetail(ctx context.Context, houseID int64, payload any) (bool, error)
	UpsertPhotos(ctx context.Context, houseID int64, payload any) (bool, error)
	AppendImportError(ctx context.Context, e house.ImportError) error
	ListPhotoSets(ctx context.Context, limit int) ([]*house.PhotoSet, error)
	UpdatePhotoSet(ctx context.Context, id int64, payload any) error
}

// Realty fetches raw documents from the listing API.
type Realty interface {
	Search(ctx context.Context, sr realty.SearchRequest) (any, error)
	Detail(ctx context.Context, propertyID string) (any, error)
	Photos(ctx context.Context, propertyID string) (any, error)
}

// Service runs ingestion jobs against a store and the listing API.
type Service struct {
	store    Store
	realty   Realty
	logger   *slog.Logger
	location *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the job logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLocation sets the zone naive listing timestamps are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// NewService creates an ingestion service. The realty client may be nil
// for jobs that only touch the store.
func NewService(store Store, client Realty, opts ...Option) *Service {
	s := &Service{
		store:    store,
		realty:   client,
		logger:   slog.Default(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Selection picks the houses an enrichment job visits.
// Zero values mean every house of the source.
type Selection struct {
	HouseID int64
	Limit   int
}

func (s *Service) selectHouses(ctx context.Context, sel Selection) ([]*house.House, error) {
	return s.store.ListHouses(ctx, house.SourceRealtyInUS, house.HouseFilter{ID: sel.HouseID, Limit: sel.Limit})
}
