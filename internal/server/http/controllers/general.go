package controllers

import (
	"net/http"

	"github.com/rzbill/calclog/internal/runtime"
	"github.com/rzbill/calclog/pkg/log"
)

const greeting = "Hello from the Calculator Log API!"

// GeneralController serves the root greeting, liveness and metrics.
type GeneralController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

func NewGeneralController(rt *runtime.Runtime, logger log.Logger) *GeneralController {
	return &GeneralController{rt: rt, logger: logger}
}

// RegisterRoutes registers:
// - GET / (greeting)
// - GET /healthz
// - GET /metrics
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", c.handleRoot)
	mux.HandleFunc("/healthz", c.handleHealth)
	mux.Handle("/metrics", c.rt.Metrics().Handler())
}

// handleRoot answers only the exact root path; everything else is 404.
func (c *GeneralController) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(greeting))
	c.logger.Debug("Served root endpoint")
}

// handleHealth returns 200 {"status":"ok"} while the store serves, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
