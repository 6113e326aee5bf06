package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "github.com/mityademon-rgb/matveypt-bot/internal/http"
	"github.com/mityademon-rgb/matveypt-bot/platform/httpkit"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubConfig struct {
	allowAll bool
	origins  []string
}

func (s stubConfig) GetHTTPAddr() string      { return ":0" }
func (s stubConfig) GetCORSAllowAll() bool    { return s.allowAll }
func (s stubConfig) GetCORSOrigins() []string { return s.origins }

type pingModule struct{ registered bool }

func (m *pingModule) Name() string { return "ping" }

func (m *pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.registered = true
	ctx.API.GET("/ping", func(c *gin.Context) { httpkit.Success(c) })
}

func newTestApp(cfg stubConfig, modules ...apphttp.Module) *apphttp.App {
	return &apphttp.App{
		Config:  cfg,
		Logger:  logger.NewWithWriter("production", io.Discard),
		Metrics: metrics.New(prometheus.NewRegistry()),
		Modules: modules,
	}
}

func TestHealthAndModuleRoutes(t *testing.T) {
	mod := &pingModule{}
	engine := New(newTestApp(stubConfig{allowAll: true}, mod))
	if !mod.registered {
		t.Fatalf("expected module routes to be registered")
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("expected healthy response, got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(httpkit.RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from module route, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine := New(newTestApp(stubConfig{allowAll: true}))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestCORSRestrictsOrigins(t *testing.T) {
	engine := New(newTestApp(stubConfig{origins: []string{"https://app.example"}}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", rec.Code)
	}
}
