package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"item-catalog/internal/config"
	"item-catalog/internal/models"
	"item-catalog/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingRenderer renders through the real templates and remembers the
// last page name and context, like a test client's template assertions.
type recordingRenderer struct {
	inner     Renderer
	templates []string
	context   map[string]any
}

func (rr *recordingRenderer) Render(w http.ResponseWriter, status int, name string, data map[string]any) error {
	rr.templates = append(rr.templates, name)
	rr.context = data
	return rr.inner.Render(w, status, name, data)
}

func (rr *recordingRenderer) used(name string) bool {
	for _, n := range rr.templates {
		if n == name {
			return true
		}
	}
	return false
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Environment:    "test",
		LogLevel:       "info",
		StoreDriver:    "memory",
		JWTIssuer:      "item-catalog",
		JWTAudience:    "item-catalog",
		RateLimitBurst: 20,
	}
}

type testEnv struct {
	server   *Server
	store    *store.MemoryStore
	renderer *recordingRenderer
	item     models.Item
}

// newTestEnv builds a server over a memory store seeded with "Test Item".
func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	st := store.NewMemoryStore()
	srv, err := NewServer(st, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close(context.Background()) })

	rr := &recordingRenderer{inner: srv.Renderer}
	srv.Renderer = rr

	it := models.Item{Name: "Test Item", Description: "This is a test item."}
	require.NoError(t, st.Create(context.Background(), &it))

	return &testEnv{server: srv, store: st, renderer: rr, item: it}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, data url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(data.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) count(t *testing.T) int {
	t.Helper()
	n, err := e.store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func reverse(t *testing.T, name string, args ...any) string {
	t.Helper()
	u, err := URLFor(name, args...)
	require.NoError(t, err)
	return u
}
