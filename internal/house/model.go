// Package house provides the canonical listing model and its reconciliation store.
package house

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mmcloughlin/geohash"
)

// SourceRealtyInUS tags houses ingested from the Realty in US API.
const SourceRealtyInUS = "realty_in_us"

// ImportTypePhotos tags import errors raised by the photos job.
const ImportTypePhotos = "photos"

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// geohashPrecision gives cells of roughly 150m x 150m.
const geohashPrecision = 7

// Fields holds the canonical, source-independent listing attributes.
// Empty strings mean "unknown"; nil pointers mean "no value".
type Fields struct {
	Status          string     `json:"status"`
	PropertyType    string     `json:"property_type"`
	SubType         string     `json:"sub_type"`
	Price           *int64     `json:"price,omitempty"`
	Beds            *int64     `json:"beds,omitempty"`
	Baths           *float64   `json:"baths,omitempty"`
	Sqft            *int64     `json:"sqft,omitempty"`
	LotSqft         *int64     `json:"lot_sqft,omitempty"`
	AddressLine     string     `json:"address_line"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	PostalCode      string     `json:"postal_code"`
	Lat             *float64   `json:"lat,omitempty"`
	Lng             *float64   `json:"lng,omitempty"`
	ListDate        *time.Time `json:"list_date,omitempty"`
	LastSoldDate    *time.Time `json:"last_sold_date,omitempty"`
	PrimaryPhotoURL string     `json:"primary_photo_url"`
}

// Equal reports whether two field sets describe the same listing state.
func (f Fields) Equal(o Fields) bool {
	return f.Status == o.Status &&
		f.PropertyType == o.PropertyType &&
		f.SubType == o.SubType &&
		eqPtr(f.Price, o.Price) &&
		eqPtr(f.Beds, o.Beds) &&
		eqPtr(f.Baths, o.Baths) &&
		eqPtr(f.Sqft, o.Sqft) &&
		eqPtr(f.LotSqft, o.LotSqft) &&
		f.AddressLine == o.AddressLine &&
		f.City == o.City &&
		f.State == o.State &&
		f.PostalCode == o.PostalCode &&
		eqPtr(f.Lat, o.Lat) &&
		eqPtr(f.Lng, o.Lng) &&
		eqTime(f.ListDate, o.ListDate) &&
		eqTime(f.LastSoldDate, o.LastSoldDate) &&
		f.PrimaryPhotoURL == o.PrimaryPhotoURL
}

// geohashOf returns the geohash cell for the coordinates, or "" without them.
func geohashOf(f Fields) string {
	if f.Lat == nil || f.Lng == nil {
		return ""
	}
	return geohash.EncodeWithPrecision(*f.Lat, *f.Lng, geohashPrecision)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// House is a reconciled listing, unique per (Source, ExternalID).
type House struct {
	ID         int64  `json:"id"`
	Source     string `json:"source"`
	ExternalID string `json:"external_id"`
	Fields
	Geohash   string    `json:"geohash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outcome describes what an upsert did to the stored row.
type Outcome int

const (
	Unchanged Outcome = iota
	Created
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// HouseFilter narrows ListHouses. Zero values mean no filter.
type HouseFilter struct {
	ID         int64
	PostalCode string
	// Geohash keeps houses whose cell starts with this prefix.
	Geohash string
	Limit   int
}

// Detail is the stored detail payload of one house.
type Detail struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	Payload   any       `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PhotoSet is the stored photo payload of one house.
type PhotoSet struct {
	ID         int64     `json:"id"`
	HouseID    int64     `json:"house_id"`
	ExternalID string    `json:"external_id"`
	Payload    any       `json:"payload"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// ImportError is an append-only record of a failed enrichment call.
type ImportError struct {
	ID         int64     `json:"id"`
	HouseID    *int64    `json:"house_id,omitempty"`
	ExternalID string    `json:"external_id"`
	ImportType string    `json:"import_type"`
	Message    string    `json:"error_message"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ImportErrorFilter narrows ListImportErrors.
type ImportErrorFilter struct {
	ImportType string
	Limit      int
}

// dateLayout is the storage format of calendar dates.
const dateLayout = "2006-01-02"

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface{ Scan(...any) error }

// scanHouse scans a house from a database row in houseColumns order.
func scanHouse(row scanner) (*House, error) {
	var h House
	var price, beds, sqft, lotSqft sql.NullInt64
	var baths, lat, lng sql.NullFloat64
	var listDate sql.NullTime
	var lastSold sql.NullString

	err := row.Scan(
		&h.ID, &h.Source, &h.ExternalID,
		&h.Status, &h.PropertyType, &h.SubType,
		&price, &beds, &baths, &sqft, &lotSqft,
		&h.AddressLine, &h.City, &h.State, &h.PostalCode,
		&lat, &lng, &listDate, &lastSold,
		&h.PrimaryPhotoURL, &h.Geohash, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if price.Valid {
		h.Price = &price.Int64
	}
	if beds.Valid {
		h.Beds = &beds.Int64
	}
	if baths.Valid {
		h.Baths = &baths.Float64
	}
	if sqft.Valid {
		h.Sqft = &sqft.Int64
	}
	if lotSqft.Valid {
		h.LotSqft = &lotSqft.Int64
	}
	if lat.Valid {
		h.Lat = &lat.Float64
	}
	if lng.Valid {
		h.Lng = &lng.Float64
	}
	if listDate.Valid {
		t := listDate.Time.UTC()
		h.ListDate = &t
	}
	if lastSold.Valid {
		if t, err := time.Parse(dateLayout, lastSold.String); err == nil {
			h.LastSoldDate = &t
		}
	}

	return &h, nil
}

// dateArg converts an optional calendar date to its storage form.
func dateArg(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// timeArg converts an optional timestamp to UTC for storage.
func timeArg(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// encodePayload marshals an opaque JSON payload, mapping nil to def.
func encodePayload(payload any, def string) (string, error) {
	if payload == nil {
		return def, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodePayload unmarshals a stored payload, keeping numbers exact.
func decodePayload(raw []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
