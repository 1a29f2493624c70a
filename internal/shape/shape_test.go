package shape

import (
	"encoding/json"
	"strings"
	"testing"
)

// decode parses a JSON document the way the realty client does.
func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}

func TestDig(t *testing.T) {
	doc := decode(t, `{"data": {"home_search": {"results": [{"photos": [{"href": "a.jpg"}]}]}, "n": 1}}`)

	tests := []struct {
		name   string
		path   string
		wantOK bool
	}{
		{"empty path returns root", "", true},
		{"nested object", "data.home_search", true},
		{"array index", "data.home_search.results.0.photos", true},
		{"index out of range", "data.home_search.results.1", false},
		{"non numeric index", "data.home_search.results.first", false},
		{"missing key", "data.nope", false},
		{"scalar intermediate", "data.n.x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Dig(doc, tt.path)
			if ok != tt.wantOK {
				t.Errorf("Dig(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
		})
	}
}

func TestListResolutionOrder(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantLen int
	}{
		{
			name:    "home_search results",
			doc:     `{"data": {"home_search": {"results": [{"property_id": "1"}, {"property_id": "2"}]}}}`,
			wantLen: 2,
		},
		{
			name:    "double nested results",
			doc:     `{"data": {"home_search": {"results": {"results": [{"property_id": "1"}]}}}}`,
			wantLen: 1,
		},
		{
			name:    "data properties",
			doc:     `{"data": {"properties": [{}, {}, {}]}}`,
			wantLen: 3,
		},
		{
			name:    "top level listings",
			doc:     `{"listings": [{}]}`,
			wantLen: 1,
		},
		{
			name:    "specific path wins over generic",
			doc:     `{"data": {"results": [{}, {}]}, "results": [{}]}`,
			wantLen: 2,
		},
		{
			name:    "mistyped intermediate falls through",
			doc:     `{"data": "oops", "properties": [{}]}`,
			wantLen: 1,
		},
		{
			name:    "object where array expected",
			doc:     `{"results": {"a": 1}}`,
			wantLen: 0,
		},
		{
			name:    "top level array is not a candidate",
			doc:     `[{"property_id": "1"}]`,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := List(decode(t, tt.doc), ListingPaths...)
			if got == nil {
				t.Fatal("List returned nil, want empty slice")
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestObject(t *testing.T) {
	doc := decode(t, `{"data": {"home": {"property_id": "9"}}}`)
	home := Object(doc, DetailPaths...)
	if home == nil {
		t.Fatal("expected home object")
	}
	if home["property_id"] != "9" {
		t.Errorf("property_id = %v, want 9", home["property_id"])
	}

	if got := Object(decode(t, `{"data": {"home": null}}`), DetailPaths...); got != nil {
		t.Errorf("null home = %v, want nil", got)
	}
	if got := Object(decode(t, `"text"`), DetailPaths...); got != nil {
		t.Errorf("scalar document = %v, want nil", got)
	}
}

func TestPhotoPaths(t *testing.T) {
	doc := decode(t, `{"data": {"home_search": {"results": [{"photos": [{"href": "x"}, {"href": "y"}]}, {"photos": [{}]}]}}}`)
	if got := List(doc, PhotoPaths...); len(got) != 2 {
		t.Errorf("photos = %d, want 2 (first result only)", len(got))
	}

	empty := decode(t, `{"data": {"home_search": {"results": []}}}`)
	if got := List(empty, PhotoPaths...); len(got) != 0 {
		t.Errorf("photos = %d, want 0", len(got))
	}
}
