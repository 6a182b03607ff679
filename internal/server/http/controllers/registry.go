package controllers

import (
	"net/http"

	"github.com/rzbill/calclog/internal/runtime"
	"github.com/rzbill/calclog/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	logs    *LogsController
}

// NewControllerRegistry initializes all controllers over the runtime.
func NewControllerRegistry(rt *runtime.Runtime, logger log.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt, logger),
		logs:    NewLogsController(rt, logger),
	}
}

// RegisterAllRoutes registers the root, health, metrics and log routes.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.logs.RegisterRoutes(mux)
}
