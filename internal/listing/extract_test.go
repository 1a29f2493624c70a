package listing

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   any
	}{
		{"no values", nil, nil},
		{"all empty", []any{nil, "", nil}, nil},
		{"skips nil and empty string", []any{nil, "", "x", "y"}, "x"},
		{"zero is a value", []any{nil, json.Number("0"), "y"}, json.Number("0")},
		{"whitespace is a value", []any{" ", "y"}, " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstNonEmpty(tt.values...); got != tt.want {
				t.Errorf("FirstNonEmpty = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{"json number", json.Number("3"), 3, true},
		{"float", 2.9, 2, true},
		{"plain string", "42", 42, true},
		{"thousands separators", "450,000", 450000, true},
		{"decimal string truncates", "3.7", 3, true},
		{"padded string", " 12 ", 12, true},
		{"negative", "-5", -5, true},
		{"nil", nil, 0, false},
		{"empty", "", 0, false},
		{"garbage", "three", 0, false},
		{"bool", true, 0, false},
		{"nan", "NaN", 0, false},
		{"object", map[string]any{"a": 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ToInt(%#v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ToInt(%#v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"half bath", json.Number("2.5"), 2.5, true},
		{"string with separator", "1,234.5", 1234.5, true},
		{"integer", 3, 3, true},
		{"nil", nil, 0, false},
		{"empty", "", 0, false},
		{"infinity", "Inf", 0, false},
		{"list", []any{1.0}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ToFloat(%#v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ToFloat(%#v) = %g, want %g", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseListingTimestampEpochs(t *testing.T) {
	millis, ok := ParseListingTimestamp(json.Number("1700000000000"), time.UTC)
	if !ok {
		t.Fatal("milliseconds epoch not parsed")
	}
	seconds, ok := ParseListingTimestamp(json.Number("1700000000"), time.UTC)
	if !ok {
		t.Fatal("seconds epoch not parsed")
	}
	if !millis.Equal(seconds) {
		t.Errorf("millis = %v, seconds = %v, want same instant", millis, seconds)
	}
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	if !seconds.Equal(want) {
		t.Errorf("seconds = %v, want %v", seconds, want)
	}

	if got, ok := ParseListingTimestamp(float64(1700000000), nil); !ok || !got.Equal(want) {
		t.Errorf("float seconds = %v (%v), want %v", got, ok, want)
	}

	exact := time.UnixMilli(1700000000123)
	for _, in := range []any{json.Number("1700000000123"), int64(1700000000123), float64(1700000000123)} {
		got, ok := ParseListingTimestamp(in, time.UTC)
		if !ok || !got.Equal(exact) {
			t.Errorf("millis %v (%T) = %v (%v), want %v", in, in, got, ok, exact)
		}
	}

	if got, ok := ParseListingTimestamp(json.Number("1700000000.5"), time.UTC); !ok || !got.Equal(want.Add(500*time.Millisecond)) {
		t.Errorf("fractional seconds = %v (%v)", got, ok)
	}

	if _, ok := ParseListingTimestamp(json.Number("253402300800000000"), time.UTC); ok {
		t.Error("expected out-of-range millis rejected")
	}
}

func TestParseListingTimestampStrings(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name   string
		in     any
		want   time.Time
		wantOK bool
	}{
		{
			name:   "RFC3339 with Z",
			in:     "2024-03-01T10:30:00Z",
			want:   time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "explicit offset",
			in:     "2024-03-01T10:30:00-05:00",
			want:   time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "compact offset",
			in:     "2024-03-01 10:30+0100",
			want:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "naive datetime uses default zone",
			in:     "2024-03-01T10:30:00",
			want:   time.Date(2024, 3, 1, 10, 30, 0, 0, chicago),
			wantOK: true,
		},
		{
			name:   "fractional seconds",
			in:     "2024-03-01T10:30:00.123456Z",
			want:   time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC),
			wantOK: true,
		},
		{
			name:   "bare date is midnight in default zone",
			in:     "2024-03-01",
			want:   time.Date(2024, 3, 1, 0, 0, 0, 0, chicago),
			wantOK: true,
		},
		{name: "invalid calendar date", in: "2024-02-30"},
		{name: "invalid hour", in: "2024-03-01T25:00:00"},
		{name: "free text", in: "last tuesday"},
		{name: "empty", in: ""},
		{name: "nil", in: nil},
		{name: "bool", in: true},
		{name: "object", in: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseListingTimestamp(tt.in, chicago)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if ok && got.Location() == nil {
				t.Error("expected a zone-aware timestamp")
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   time.Time
		wantOK bool
	}{
		{"iso date", "2019-06-15", time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"single digit parts", "2019-6-5", time.Date(2019, 6, 5, 0, 0, 0, 0, time.UTC), true},
		{"datetime is not a date", "2019-06-15T00:00:00Z", time.Time{}, false},
		{"invalid day", "2019-02-29", time.Time{}, false},
		{"number", json.Number("20190615"), time.Time{}, false},
		{"nil", nil, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
