package tenantconfig

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

var errBoom = errors.New("boom")

func TestHTTPSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/prompts/tenant-a", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"companyName": "Acme",
			"industry": "retail",
			"tone": "friendly",
			"specialInstructions": "Be brief.",
			"personas": {"CEO": {"additionalContext": "Strategy first."}}
		}`))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/", 0)
	cfg, err := src.FetchTenantConfig(context.Background(), "tenant-a")
	require.NoError(t, err)

	assert.Equal(t, "Acme", cfg.CompanyName)
	assert.Equal(t, "retail", cfg.Industry)
	assert.Equal(t, "Strategy first.", cfg.Persona("CEO").AdditionalContext)
}

func TestHTTPSource_EscapesTenantID(t *testing.T) {
	var raw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.EscapedPath()
		w.Write([]byte(`{"companyName":"x"}`))
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, 0).FetchTenantConfig(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/api/prompts/a%2Fb", raw)
}

func TestHTTPSource_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{"not found", http.StatusNotFound, "", entities.ErrTenantConfigNotFound},
		{"server error", http.StatusInternalServerError, "oops", nil},
		{"bad json", http.StatusOK, "{", nil},
		{"empty object", http.StatusOK, "{}", entities.ErrTenantConfigNotFound},
		{"null body", http.StatusOK, "null", entities.ErrTenantConfigNotFound},
		{"blank company", http.StatusOK, `{"companyName":"  ","industry":"retail"}`, entities.ErrTenantConfigNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewHTTPSource(server.URL, 0).FetchTenantConfig(context.Background(), "t")
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestHTTPSource_AcceptsAny2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		w.Write([]byte(`{"companyName":"Acme","industry":"retail","tone":"friendly"}`))
	}))
	defer server.Close()

	cfg, err := NewHTTPSource(server.URL, 0).FetchTenantConfig(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", cfg.CompanyName)
}

func TestHTTPSource_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSource(server.URL, time.Minute).FetchTenantConfig(ctx, "t")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPSource_Defaults(t *testing.T) {
	src := NewHTTPSource("", 0)
	assert.Equal(t, DefaultBaseURL, src.baseURL)
	assert.Equal(t, DefaultTimeout, src.client.Timeout)
}

func TestSupabaseSource_Fetch(t *testing.T) {
	src := &SupabaseSource{fetch: func(tenantID string) ([]tenantRow, error) {
		assert.Equal(t, "tenant-a", tenantID)
		return []tenantRow{{
			TenantID:    "tenant-a",
			CompanyName: "Acme",
			Industry:    "retail",
			Tone:        "formal",
			Personas:    map[string]entities.PersonaConfig{"CEO": {AdditionalContext: "x"}},
		}}, nil
	}}

	cfg, err := src.FetchTenantConfig(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "Acme", cfg.CompanyName)
	assert.Equal(t, "formal", cfg.Tone)
	assert.Equal(t, "x", cfg.Persona("CEO").AdditionalContext)
}

func TestSupabaseSource_Errors(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		src := &SupabaseSource{fetch: func(string) ([]tenantRow, error) { return nil, nil }}
		_, err := src.FetchTenantConfig(context.Background(), "t")
		assert.ErrorIs(t, err, entities.ErrTenantConfigNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		src := &SupabaseSource{fetch: func(string) ([]tenantRow, error) { return nil, errBoom }}
		_, err := src.FetchTenantConfig(context.Background(), "t")
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		src := &SupabaseSource{fetch: func(string) ([]tenantRow, error) {
			<-release
			return nil, nil
		}}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := src.FetchTenantConfig(ctx, "t")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNewSupabaseSource_Validation(t *testing.T) {
	_, err := NewSupabaseSource(SupabaseConfig{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewSupabaseSource(SupabaseConfig{URL: "http://localhost:54321"})
	assert.Error(t, err)
}

// fakeRedis implements cacheClient for testing
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

// countingSource implements ports.TenantConfigSource for testing
type countingSource struct {
	cfg   *entities.TenantConfig
	err   error
	calls int
}

func (s *countingSource) FetchTenantConfig(ctx context.Context, tenantID string) (*entities.TenantConfig, error) {
	s.calls++
	return s.cfg, s.err
}

func TestRedisCache_ReadThrough(t *testing.T) {
	next := &countingSource{cfg: &entities.TenantConfig{CompanyName: "Acme"}}
	rdb := newFakeRedis()
	cache := newRedisCache(next, rdb, 0, nil)

	for i := 0; i < 3; i++ {
		cfg, err := cache.FetchTenantConfig(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme", cfg.CompanyName)
	}

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, DefaultCacheTTL, rdb.lastTTL)
	assert.Contains(t, rdb.data, "tenantcfg:acme")
}

func TestRedisCache_FailuresNotCached(t *testing.T) {
	next := &countingSource{err: entities.ErrTenantConfigNotFound}
	rdb := newFakeRedis()
	cache := newRedisCache(next, rdb, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := cache.FetchTenantConfig(context.Background(), "ghost")
		assert.ErrorIs(t, err, entities.ErrTenantConfigNotFound)
	}

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, rdb.data)
}

func TestRedisCache_CacheErrorsIgnored(t *testing.T) {
	next := &countingSource{cfg: &entities.TenantConfig{CompanyName: "Acme"}}
	rdb := newFakeRedis()
	rdb.getErr = errBoom
	rdb.setErr = errBoom
	cache := newRedisCache(next, rdb, time.Minute, nil)

	cfg, err := cache.FetchTenantConfig(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", cfg.CompanyName)
	assert.Equal(t, 1, next.calls)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	next := &countingSource{cfg: &entities.TenantConfig{CompanyName: "Fresh"}}
	rdb := newFakeRedis()
	rdb.data["tenantcfg:acme"] = "{not json"
	cache := newRedisCache(next, rdb, time.Minute, nil)

	cfg, err := cache.FetchTenantConfig(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", cfg.CompanyName)

	var stored entities.TenantConfig
	require.NoError(t, json.Unmarshal([]byte(rdb.data["tenantcfg:acme"]), &stored))
	assert.Equal(t, "Fresh", stored.CompanyName)
}
