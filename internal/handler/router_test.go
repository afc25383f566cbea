package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/handler"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/infra/resilience"
	"github.com/boddenberg/presupuesto-bff/internal/service"
	"github.com/boddenberg/presupuesto-bff/internal/session"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func opsRouter(d handler.Deps) http.Handler {
	logger := zap.NewNop()
	d.Metrics = observability.NewMetrics()
	d.Sessions = session.New("test-secret", 0, false, logger)
	d.Tracker = service.NewLoadTracker()
	d.Now = func() time.Time { return today }
	return handler.NewRouter(d, logger)
}

func serve(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	router := opsRouter(handler.Deps{Breaker: resilience.NewCircuitBreaker("finance-api", zap.NewNop())})

	rec := serve(router, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), "circuit closed")
}

func TestReadyz(t *testing.T) {
	rec := serve(opsRouter(handler.Deps{Outbox: pinger{}}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(opsRouter(handler.Deps{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_OutboxDown(t *testing.T) {
	router := opsRouter(handler.Deps{Outbox: pinger{err: errors.New("database is locked")}})

	rec := serve(router, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")
}

func TestMetrics(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	h.get("/api/categorias", cookie)

	rec := h.get("/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "presupuesto_cache_misses_total")
}

func TestPing(t *testing.T) {
	rec := serve(opsRouter(handler.Deps{}), "/ping")

	assert.Equal(t, http.StatusOK, rec.Code)
}
