package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sanchar-ai/hangout-planner/internal/models"
)

// countingClient records how many upstream lookups were made.
type countingClient struct {
	coords models.Coordinates
	err    error
	calls  int
}

func (m *countingClient) Resolve(ctx context.Context, place string) (models.Coordinates, error) {
	m.calls++
	if m.err != nil {
		return models.Coordinates{}, m.err
	}
	return m.coords, nil
}

// failingCache always errors; used to verify the resolver falls through to
// the upstream when the cache is unreachable.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) (models.Coordinates, bool, error) {
	return models.Coordinates{}, false, errors.New("cache down")
}

func (failingCache) Set(ctx context.Context, key string, value models.Coordinates) error {
	return errors.New("cache down")
}

// TestCachedResolver_Idempotent verifies that resolving the same raw input
// twice performs exactly one upstream lookup.
func TestCachedResolver_Idempotent(t *testing.T) {
	ctx := context.Background()
	client := &countingClient{coords: models.Coordinates{Lat: 12.97, Lon: 77.64}}
	r := NewCachedResolver(client, NewInMemoryCache(), nil)

	first, err := r.Resolve(ctx, "Indiranagar")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := r.Resolve(ctx, "Indiranagar")
	if err != nil {
		t.Fatalf("Resolve() second error = %v", err)
	}

	if client.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", client.calls)
	}
	if first != second {
		t.Errorf("cached value %+v differs from first result %+v", second, first)
	}
}

// TestCachedResolver_CaseSensitiveKeys verifies that keys are the exact
// input string: differently-cased inputs each hit the upstream.
func TestCachedResolver_CaseSensitiveKeys(t *testing.T) {
	ctx := context.Background()
	client := &countingClient{coords: models.Coordinates{Lat: 1, Lon: 2}}
	r := NewCachedResolver(client, NewInMemoryCache(), nil)

	if _, err := r.Resolve(ctx, "Koramangala"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := r.Resolve(ctx, "koramangala"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if client.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 for case-distinct keys", client.calls)
	}
}

// TestCachedResolver_NotFoundNotCached verifies failed lookups are not
// cached, so a corrected upstream can serve a later retry.
func TestCachedResolver_NotFoundNotCached(t *testing.T) {
	ctx := context.Background()
	client := &countingClient{err: ErrLocationNotFound}
	r := NewCachedResolver(client, NewInMemoryCache(), nil)

	if _, err := r.Resolve(ctx, "Atlantis"); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrLocationNotFound", err)
	}
	client.err = nil
	client.coords = models.Coordinates{Lat: 5, Lon: 6}
	if _, err := r.Resolve(ctx, "Atlantis"); err != nil {
		t.Fatalf("Resolve() retry error = %v", err)
	}
	if client.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", client.calls)
	}
}

// TestCachedResolver_EmptyInput verifies the empty string is rejected
// without touching cache or upstream.
func TestCachedResolver_EmptyInput(t *testing.T) {
	client := &countingClient{}
	r := NewCachedResolver(client, NewInMemoryCache(), nil)

	_, err := r.Resolve(context.Background(), "")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("Resolve(\"\") error = %v, want ErrLocationNotFound", err)
	}
	if client.calls != 0 {
		t.Errorf("upstream calls = %d, want 0", client.calls)
	}
}

// TestCachedResolver_CacheErrorFallsThrough verifies a broken cache degrades
// to plain upstream resolution instead of failing the flow.
func TestCachedResolver_CacheErrorFallsThrough(t *testing.T) {
	client := &countingClient{coords: models.Coordinates{Lat: 3, Lon: 4}}
	r := NewCachedResolver(client, failingCache{}, nil)

	got, err := r.Resolve(context.Background(), "Jayanagar")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != (models.Coordinates{Lat: 3, Lon: 4}) {
		t.Errorf("Resolve() = %+v, want upstream coordinates", got)
	}
}

// TestNominatimClient_Resolve verifies query construction (region qualifier
// appended, format=json, limit=1) and response parsing.
func TestNominatimClient_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "MG Road, Karnataka, India" {
			t.Errorf("q = %q, want region qualifier appended", got)
		}
		if q.Get("format") != "json" || q.Get("limit") != "1" {
			t.Errorf("unexpected query params: %s", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua != "hangout-planner/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		_, _ = w.Write([]byte(`[{"lat":"12.9752","lon":"77.6057"}]`))
	}))
	defer server.Close()

	c := NewNominatimClient(server.URL, "Karnataka, India", "hangout-planner/1.0", 2*time.Second)
	got, err := c.Resolve(context.Background(), "MG Road")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := models.Coordinates{Lat: 12.9752, Lon: 77.6057}
	if got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

// TestNominatimClient_NotFound verifies an empty candidate list maps to
// ErrLocationNotFound without retries.
func TestNominatimClient_NotFound(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewNominatimClientWithRetry(server.URL, "", "test/1.0", 2*time.Second, 3, time.Millisecond, 10*time.Millisecond)
	_, err := c.Resolve(context.Background(), "Nowhere")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrLocationNotFound", err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (not-found must not retry)", calls)
	}
}

// TestNominatimClient_RetriesUpstreamFailure verifies 5xx responses are
// retried and a later success is returned.
func TestNominatimClient_RetriesUpstreamFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"1.5","lon":"2.5"}]`))
	}))
	defer server.Close()

	c := NewNominatimClientWithRetry(server.URL, "", "test/1.0", 2*time.Second, 3, time.Millisecond, 10*time.Millisecond)
	got, err := c.Resolve(context.Background(), "Flaky")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != (models.Coordinates{Lat: 1.5, Lon: 2.5}) {
		t.Errorf("Resolve() = %+v", got)
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
}

// TestInMemoryCache_GetSet verifies basic store and retrieve.
func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	val := models.Coordinates{Lat: 12.97, Lon: 77.59}
	if err := c.Set(ctx, "Bangalore", val); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "Bangalore")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got != val {
		t.Errorf("Get() = %+v, want %+v", got, val)
	}
}

// TestInMemoryCache_Miss verifies an absent key reports a miss, not an error.
func TestInMemoryCache_Miss(t *testing.T) {
	c := NewInMemoryCache()
	_, ok, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}
