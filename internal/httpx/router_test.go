package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/asad/localsession/internal/core"
	"github.com/asad/localsession/internal/logging"
)

type pingService struct{}

func (pingService) Name() string { return "ping" }

func (pingService) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
}

func TestEdgeRouter_Health(t *testing.T) {
	router := NewEdgeRouter(core.NewRegistry(), logging.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"localsession"}`, w.Body.String())
}

func TestEdgeRouter_MountsServices(t *testing.T) {
	registry := core.NewRegistry()
	registry.Register(pingService{})
	router := NewEdgeRouter(registry, logging.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
