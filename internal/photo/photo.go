// Package photo rewrites listing photo URLs to a preferred image size.
//
// Upstream photo URLs end in a one-letter size token before the extension,
// e.g. ".../abc123s.jpg" for a small image. Rewriting the token to "o"
// (original) gives the largest image; "l" (large) is kept as a fallback for
// clients when the original is unavailable.
package photo

import "regexp"

const (
	// PreferredSize is the size token written to href.
	PreferredSize = "o"
	// FallbackSize is the size token written to href_fallback.
	FallbackSize = "l"
)

var sizeExtRE = regexp.MustCompile(`(?i)([a-z])(\.(?:jpg|jpeg|png))$`)

// SwapSize replaces the size letter of url with size. It reports false,
// leaving the URL as it was, when url does not end in <letter>.<jpg|jpeg|png>.
func SwapSize(url, size string) (string, bool) {
	m := sizeExtRE.FindStringSubmatchIndex(url)
	if m == nil {
		return "", false
	}
	return url[:m[2]] + size + url[m[4]:m[5]], true
}

// Normalize rewrites one photo descriptor. Values that are not objects, have
// no string href, or whose href has no size token are returned unchanged.
// The result is a copy; the input is never mutated. Normalize is idempotent.
func Normalize(photo any) any {
	m, ok := photo.(map[string]any)
	if !ok {
		return photo
	}
	href, ok := m["href"].(string)
	if !ok || href == "" {
		return photo
	}
	preferred, ok := SwapSize(href, PreferredSize)
	if !ok {
		return photo
	}

	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["href"] = preferred
	if fallback, ok := SwapSize(href, FallbackSize); ok {
		out["href_fallback"] = fallback
	} else {
		delete(out, "href_fallback")
	}
	return out
}

// NormalizeAll normalizes every descriptor of a photo list, preserving order.
func NormalizeAll(photos []any) []any {
	out := make([]any, len(photos))
	for i, p := range photos {
		out[i] = Normalize(p)
	}
	return out
}
