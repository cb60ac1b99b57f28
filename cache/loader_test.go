package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFetcher is a test implementation of the Fetcher interface
type mockFetcher struct {
	bodies map[string]string
	calls  []string
}

func (m *mockFetcher) Fetch(ctx context.Context, endpoint string) []byte {
	m.calls = append(m.calls, endpoint)
	return []byte(m.bodies[endpoint])
}

// failingStore fails every operation
type failingStore struct{}

func (failingStore) Read(context.Context, string) (*Entry, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Write(context.Context, string, *Entry) error {
	return errors.New("store down")
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLoader(bodies map[string]string) (*Loader, *MemoryStore, *mockFetcher, *clock) {
	store := NewMemoryStore()
	fetcher := &mockFetcher{bodies: bodies}
	clk := &clock{t: time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)}
	return NewLoader(store, fetcher, WithClock(clk.now)), store, fetcher, clk
}

func seed(t *testing.T, store Store, key, body string, at time.Time) {
	t.Helper()
	require.NoError(t, store.Write(context.Background(), key, &Entry{Body: json.RawMessage(body), Updated: at}))
}

func TestLoadFetchesWhenAbsent(t *testing.T) {
	loader, store, fetcher, clk := newTestLoader(map[string]string{
		"https://api/programmes": `{ "data": [ {"id": "1"} ] }`,
	})
	ctx := context.Background()

	body, err := loader.Load(ctx, "p.programme", "https://api/programmes", false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"id":"1"}]}`, string(body))
	assert.Equal(t, `{"data":[{"id":"1"}]}`, string(body))
	assert.Len(t, fetcher.calls, 1)

	entry, ok, err := store.Read(ctx, "p.programme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, clk.t, entry.Updated)

	// Second call is served from the store
	_, err = loader.Load(ctx, "p.programme", "https://api/programmes", false)
	require.NoError(t, err)
	assert.Len(t, fetcher.calls, 1)
}

func TestLoadForceRefresh(t *testing.T) {
	loader, store, fetcher, _ := newTestLoader(map[string]string{"e": `{"v":2}`})
	ctx := context.Background()
	seed(t, store, "p.course", `{"v":1}`, time.Unix(0, 0))

	body, err := loader.Load(ctx, "p.course", "e", true)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(body))
	assert.Equal(t, []string{"e"}, fetcher.calls)
}

func TestLoadEmptyFetchStillUpdates(t *testing.T) {
	loader, _, _, clk := newTestLoader(nil)
	ctx := context.Background()

	body, err := loader.Load(ctx, "p.course", "unreachable", false)
	require.NoError(t, err)
	assert.Empty(t, body)

	updated, ok, err := loader.Updated(ctx, "p.course")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, clk.t, updated)
}

func TestLoadSurfacesStoreErrors(t *testing.T) {
	loader := NewLoader(failingStore{}, &mockFetcher{})
	_, err := loader.Load(context.Background(), "p.course", "e", false)
	assert.Error(t, err)

	_, err = loader.ResolveAndLoad(context.Background(), "p.course", "e")
	assert.Error(t, err)
}

func TestUpdatedAbsent(t *testing.T) {
	loader, _, _, _ := newTestLoader(nil)
	_, ok, err := loader.Updated(context.Background(), "p.course")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveAndLoadStaleness(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	tests := []struct {
		name        string
		itemAt      time.Time
		indexAt     time.Time
		wantFetched bool
	}{
		{"index refreshed after item", t1, t2, true},
		{"item refreshed after index", t2, t1, false},
		{"same instant", t1, t1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, store, fetcher, _ := newTestLoader(map[string]string{"e": `{"fresh":true}`})
			seed(t, store, "p.index", `{}`, tt.indexAt)
			seed(t, store, "p.course.1", `{"fresh":false}`, tt.itemAt)

			body, err := loader.ResolveAndLoad(context.Background(), "p.course.1", "e")
			require.NoError(t, err)

			if tt.wantFetched {
				assert.Len(t, fetcher.calls, 1)
				assert.Equal(t, `{"fresh":true}`, string(body))
			} else {
				assert.Empty(t, fetcher.calls)
				assert.Equal(t, `{"fresh":false}`, string(body))
			}
		})
	}
}

func TestResolveAndLoadNeverLoadedAlwaysFetches(t *testing.T) {
	loader, store, fetcher, clk := newTestLoader(map[string]string{"e": `[]`})
	seed(t, store, "p.index", `{}`, clk.t.Add(-time.Hour))

	_, err := loader.ResolveAndLoad(context.Background(), "p.programme", "e")
	require.NoError(t, err)
	assert.Len(t, fetcher.calls, 1)

	loader2, _, fetcher2, _ := newTestLoader(map[string]string{"e": `[]`})
	_, err = loader2.ResolveAndLoad(context.Background(), "p.programme", "e")
	require.NoError(t, err)
	assert.Len(t, fetcher2.calls, 1)
}

func TestResolveAndLoadWithoutIndexKeepsItem(t *testing.T) {
	loader, store, fetcher, clk := newTestLoader(map[string]string{"e": `[]`})
	seed(t, store, "p.programme", `[1]`, clk.t)

	body, err := loader.ResolveAndLoad(context.Background(), "p.programme", "e")
	require.NoError(t, err)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, `[1]`, string(body))
}

func TestResolveAndLoadIndexIsCurrentRelativeToItself(t *testing.T) {
	loader, store, fetcher, clk := newTestLoader(map[string]string{"e": `{}`})
	seed(t, store, "p.index", `{"links":{}}`, clk.t.Add(-24*time.Hour))

	_, err := loader.ResolveAndLoad(context.Background(), "p.index", "e")
	require.NoError(t, err)
	assert.Empty(t, fetcher.calls)
}

func TestResolveAndLoadIndexScopedPerProvider(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loader, store, fetcher, _ := newTestLoader(map[string]string{"e": `{}`})
	seed(t, store, "other.index", `{}`, t1.Add(time.Hour))
	seed(t, store, "p.index", `{}`, t1)
	seed(t, store, "p.course", `[]`, t1)

	_, err := loader.ResolveAndLoad(context.Background(), "p.course", "e")
	require.NoError(t, err)
	assert.Empty(t, fetcher.calls)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, `{"a":1,"b":[true,null]}`, string(Canonical([]byte(" {\"b\": [true, null], \"a\": 1}\n"))))
	assert.Equal(t, `12345678901234567890`, string(Canonical([]byte("12345678901234567890"))))
	assert.Empty(t, Canonical(nil))
	assert.Empty(t, Canonical([]byte("<html>502 Bad Gateway</html>")))
	assert.Empty(t, Canonical([]byte(`{"a":1} trailing`)))
}
