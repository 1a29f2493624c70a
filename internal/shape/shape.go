// Package shape locates containers inside JSON documents whose envelope
// varies between upstream endpoints and API versions.
//
// Documents are the generic trees produced by encoding/json: map[string]any,
// []any and scalars. Candidate locations are dotted paths such as
// "data.home_search.results.0.photos", where a segment selects an object key,
// or an array index when the current value is an array.
package shape

import (
	"strconv"
	"strings"
)

// Candidate paths for the listing array of a search response, most specific first.
var ListingPaths = []string{
	"data.home_search.results",
	"data.home_search.results.results",
	"data.results",
	"data.properties",
	"data.listings",
	"results",
	"properties",
	"listings",
}

// Candidate paths for the home object of a detail response.
var DetailPaths = []string{
	"data.home",
	"home",
}

// Candidate paths for the photo array of a get-photos response.
var PhotoPaths = []string{
	"data.home_search.results.0.photos",
	"data.home.photos",
	"data.photos",
	"photos",
}

// Dig walks path through v. It reports false when any segment is missing or
// an intermediate value is not a container.
func Dig(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	current := v
	for _, segment := range strings.Split(path, ".") {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// step descends one segment into v.
func step(v any, segment string) (any, bool) {
	switch node := v.(type) {
	case map[string]any:
		next, ok := node[segment]
		return next, ok
	case []any:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(node) {
			return nil, false
		}
		return node[i], true
	default:
		return nil, false
	}
}

// List returns the first array found at one of paths, in order.
// It returns an empty slice when no candidate yields an array.
func List(v any, paths ...string) []any {
	for _, p := range paths {
		if found, ok := Dig(v, p); ok {
			if list, ok := found.([]any); ok {
				return list
			}
		}
	}
	return []any{}
}

// Object returns the first object found at one of paths, in order, or nil.
func Object(v any, paths ...string) map[string]any {
	for _, p := range paths {
		if found, ok := Dig(v, p); ok {
			if obj, ok := found.(map[string]any); ok {
				return obj
			}
		}
	}
	return nil
}
