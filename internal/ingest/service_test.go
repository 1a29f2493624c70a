package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/dreamdoor/internal/db"
	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/realty"
)

var _ Realty = (*realty.Client)(nil)

// fakeRealty serves canned documents keyed by external id.
type fakeRealty struct {
	searchDoc  any
	searchErr  error
	searchReqs []realty.SearchRequest

	docs  map[string]any
	errs  map[string]error
	calls []string
}

func (f *fakeRealty) Search(_ context.Context, sr realty.SearchRequest) (any, error) {
	f.searchReqs = append(f.searchReqs, sr)
	return f.searchDoc, f.searchErr
}

func (f *fakeRealty) Detail(_ context.Context, id string) (any, error) {
	return f.get("detail", id)
}

func (f *fakeRealty) Photos(_ context.Context, id string) (any, error) {
	return f.get("photos", id)
}

func (f *fakeRealty) get(kind, id string) (any, error) {
	f.calls = append(f.calls, kind+":"+id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	if doc, ok := f.docs[id]; ok {
		return doc, nil
	}
	return map[string]any{}, nil
}

// decode parses JSON the way the realty client does.
func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// testRepo opens a fresh SQLite store in a temp directory.
func testRepo(t *testing.T) *house.Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return house.NewRepository(d)
}

// testService returns a service whose logs are captured in the buffer.
func testService(t *testing.T, repo *house.Repository, client Realty) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewService(repo, client, WithLogger(logger)), &buf
}

// seedHouses creates houses with external ids "P1".."Pn" and returns them.
func seedHouses(t *testing.T, repo *house.Repository, n int) []*house.House {
	t.Helper()
	var out []*house.House
	for i := 1; i <= n; i++ {
		h, _, err := repo.UpsertHouse(context.Background(), house.SourceRealtyInUS, fmt.Sprintf("P%d", i), house.Fields{})
		if err != nil {
			t.Fatalf("seed house %d: %v", i, err)
		}
		out = append(out, h)
	}
	return out
}
