// Package listing turns raw search-result listings into canonical house fields.
//
// Upstream listings arrive in several shapes: the same attribute may live at
// the top level, under "description", or under "location.address", and may
// be a number or a formatted string. Each canonical field is resolved through
// an ordered alias chain with FirstNonEmpty and then coerced by a tolerant
// extractor that never fails, only reports "no value".
package listing

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/shape"
)

// Listing is a normalized listing ready for reconciliation.
type Listing struct {
	ExternalID string
	house.Fields
}

// Normalizer maps raw listings to canonical records.
type Normalizer struct {
	// Location is used for listing timestamps that carry no zone.
	Location *time.Location
}

// Normalize maps one raw listing. It rejects values that are not objects
// and listings without a usable external id. Normalize never fills in a
// default postal code; that is the caller's decision.
func (n Normalizer) Normalize(raw any) (Listing, bool) {
	l, ok := raw.(map[string]any)
	if !ok {
		return Listing{}, false
	}

	id, ok := externalID(FirstNonEmpty(
		l["property_id"],
		l["listing_id"],
		at(l, "property.property_id"),
		at(l, "property.listing_id"),
		l["id"],
	))
	if !ok {
		return Listing{}, false
	}

	location := object(l["location"])
	address := object(location["address"])
	coordinate := object(address["coordinate"])
	description := object(l["description"])

	f := house.Fields{
		AddressLine:     addressLine(address),
		City:            text(FirstNonEmpty(address["city"], address["city_name"])),
		State:           text(FirstNonEmpty(address["state_code"], address["state"])),
		PostalCode:      text(FirstNonEmpty(address["postal_code"], address["zip"])),
		Status:          text(l["status"]),
		PropertyType:    text(FirstNonEmpty(l["property_type"], description["type"])),
		SubType:         text(FirstNonEmpty(l["sub_type"], description["sub_type"])),
		Price:           intPtr(FirstNonEmpty(l["price"], l["list_price"], description["price"])),
		Beds:            intPtr(FirstNonEmpty(l["beds"], description["beds"])),
		Baths:           floatPtr(FirstNonEmpty(l["baths"], description["baths"])),
		Sqft:            intPtr(FirstNonEmpty(l["sqft"], description["sqft"])),
		LotSqft:         intPtr(FirstNonEmpty(l["lot_sqft"], description["lot_sqft"])),
		Lat:             floatPtr(FirstNonEmpty(coordinate["lat"], location["lat"], location["latitude"])),
		Lng:             floatPtr(FirstNonEmpty(coordinate["lon"], location["lon"], location["lng"], location["longitude"])),
		PrimaryPhotoURL: primaryPhotoURL(l),
	}

	listDate := FirstNonEmpty(l["list_date"], l["listing_date"], description["list_date"])
	if t, ok := ParseListingTimestamp(listDate, n.Location); ok {
		f.ListDate = &t
	}

	if t, ok := ParseDate(FirstNonEmpty(l["last_sold_date"], description["last_sold_date"])); ok {
		f.LastSoldDate = &t
	}

	return Listing{ExternalID: id, Fields: f}, true
}

// externalID accepts non-empty strings and non-zero numbers.
func externalID(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case json.Number, float64, int, int64:
		if f, ok := ToFloat(x); !ok || f == 0 {
			return "", false
		}
		return text(x), true
	default:
		return "", false
	}
}

// addressLine prefers a ready-made line and otherwise joins number and street.
func addressLine(address map[string]any) string {
	line := text(FirstNonEmpty(address["line"], address["street_address"], address["address"]))
	if line != "" {
		return line
	}
	return strings.TrimSpace(text(address["street_number"]) + " " + text(address["street_name"]))
}

// primaryPhotoURL takes the explicit primary photo, falling back to the
// first entry of the photo list. Both may be bare URLs or {href|url} objects.
func primaryPhotoURL(l map[string]any) string {
	primary := l["primary_photo"]
	if !present(primary) {
		primary = l["photo"]
	}
	if u := photoHref(primary); u != "" {
		return u
	}
	if photos, ok := l["photos"].([]any); ok && len(photos) > 0 {
		return photoHref(photos[0])
	}
	return ""
}

func photoHref(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case map[string]any:
		return text(FirstNonEmpty(p["href"], p["url"]))
	default:
		return ""
	}
}

// present reports whether v carries anything: non-nil, non-empty string or object.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// object returns v as an object; nil maps are safe to index.
func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func at(v any, path string) any {
	found, _ := shape.Dig(v, path)
	return found
}

func intPtr(v any) *int64 {
	i, ok := ToInt(v)
	if !ok {
		return nil
	}
	return &i
}

func floatPtr(v any) *float64 {
	f, ok := ToFloat(v)
	if !ok {
		return nil
	}
	return &f
}
