package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragroute/internal/adapters/decisionlog"
	"github.com/0xcro3dile/ragroute/internal/domain/entities"
	"github.com/0xcro3dile/ragroute/internal/domain/usecases"
)

type stubLLM struct {
	tokens []string
}

func (s *stubLLM) Generate(ctx context.Context, model, prompt string) (string, error) {
	return strings.Join(s.tokens, ""), nil
}

func (s *stubLLM) GenerateStream(ctx context.Context, model, prompt string) (<-chan entities.StreamToken, error) {
	ch := make(chan entities.StreamToken, len(s.tokens)+1)
	for _, t := range s.tokens {
		ch <- entities.StreamToken{Content: t}
	}
	ch <- entities.StreamToken{Done: true}
	close(ch)
	return ch, nil
}

type stubProvisioner struct {
	mu       sync.Mutex
	existing map[string]bool
}

func (p *stubProvisioner) CollectionExists(ctx context.Context, name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.existing[name], nil
}

func (p *stubProvisioner) CreateCollection(ctx context.Context, spec entities.CollectionSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.existing[spec.Name] = true
	return nil
}

func (p *stubProvisioner) CreatePayloadIndex(ctx context.Context, collection, field string) error {
	return nil
}

func newTestServer(t *testing.T, opts Options, withDecisions bool) *httptest.Server {
	t.Helper()

	var ucOpts []usecases.OrchestrateOption
	if withDecisions {
		ucOpts = append(ucOpts, usecases.WithDecisionLog(decisionlog.NewMemoryLog(10)))
	}
	orch := usecases.NewOrchestrateUseCase(nil, nil, nil, ucOpts...)
	gen := usecases.NewGenerateUseCase(orch, &stubLLM{tokens: []string{"Hel", "lo"}})
	prov := usecases.NewProvisionUseCase(&stubProvisioner{existing: map[string]bool{}}, 0, "", nil, nil)

	srv := httptest.NewServer(NewServer(orch, gen, prov, opts, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestOrchestrate(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp := postJSON(t, srv.URL+"/api/orchestrate", `{
		"query": "What is the price of item X?",
		"tenantId": "acme",
		"retrievedDocuments": [{"score": 0.9, "payload": {"text": "Item X costs 10 EUR."}}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var res entities.OrchestrationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "acme", res.TenantID)
	assert.True(t, res.HasContext)
	assert.Equal(t, 1, res.ContextCount)
	assert.False(t, res.UsedExternalConfig)
	assert.NotEmpty(t, res.SelectedModel)
	assert.NotEmpty(t, res.ModelSelectionReason)
	assert.Contains(t, res.Prompt, "Item X costs 10 EUR.")
}

func TestOrchestrate_BadRequests(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query":`},
		{"missing query", `{"tenantId":"acme"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/orchestrate", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestOrchestrate_EmptyQueryIsNotAnError(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp := postJSON(t, srv.URL+"/api/orchestrate", `{"query": ""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res entities.OrchestrationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.HasContext)
}

func TestRoute(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp, err := http.Get(srv.URL + "/api/route?q=hello")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["selectedModel"])
	assert.EqualValues(t, 1, body["rulesVersion"])
}

func TestGenerate(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp := postJSON(t, srv.URL+"/api/generate", `{"query":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res entities.GenerationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "Hello", res.Answer)
	assert.NotEmpty(t, res.SelectedModel)
}

func TestGenerateStream(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp := postJSON(t, srv.URL+"/api/generate/stream", `{"query":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events, data []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			events = append(events, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, sc.Err())

	assert.Equal(t, []string{"meta"}, events)
	require.Len(t, data, 4)

	var meta entities.OrchestrationResult
	require.NoError(t, json.Unmarshal([]byte(data[0]), &meta))
	assert.NotEmpty(t, meta.Prompt)

	var content strings.Builder
	for _, d := range data[1:] {
		var tok struct {
			Content string `json:"content"`
			Done    bool   `json:"done"`
		}
		require.NoError(t, json.Unmarshal([]byte(d), &tok))
		content.WriteString(tok.Content)
	}
	assert.Equal(t, "Hello", content.String())
	assert.Contains(t, data[3], `"done":true`)
}

func TestEnsureCollection(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	put := func(path string) (*http.Response, map[string]any) {
		req, err := http.NewRequest(http.MethodPut, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp, body
	}

	resp, body := put("/api/collections/acme_docs")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["created"])

	resp, body = put("/api/collections/acme_docs")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["created"])

	resp, body = put("/api/collections/ignored?tenant=foo-bar")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "foo_bar", body["collection"])
}

func TestDecisions(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, Options{}, false)
		resp, err := http.Get(srv.URL + "/api/decisions")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("records with request id", func(t *testing.T) {
		srv := newTestServer(t, Options{}, true)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/orchestrate", strings.NewReader(`{"query":"hi","tenantId":"acme"}`))
		require.NoError(t, err)
		req.Header.Set(RequestIDHeader, "req-42")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))

		resp, err = http.Get(srv.URL + "/api/decisions?limit=5")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Decisions []entities.DecisionRecord `json:"decisions"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Decisions, 1)
		assert.Equal(t, "req-42", body.Decisions[0].ID)
		assert.Equal(t, "acme", body.Decisions[0].TenantID)
	})

	t.Run("bad limit", func(t *testing.T) {
		srv := newTestServer(t, Options{}, true)
		resp, err := http.Get(srv.URL + "/api/decisions?limit=-1")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 1}, false)

	first := postJSON(t, srv.URL+"/api/orchestrate", `{"query":"hi"}`)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := postJSON(t, srv.URL+"/api/orchestrate", `{"query":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	health, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Options{AllowedOrigin: "https://app.example"}, false)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/orchestrate", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStart_StopsOnCancel(t *testing.T) {
	s := NewServer(usecases.NewOrchestrateUseCase(nil, nil, nil), nil, nil, Options{Addr: "127.0.0.1:0"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
