package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/rzbill/calclog/internal/runtime"
	logsvc "github.com/rzbill/calclog/internal/services/logs"
	"github.com/rzbill/calclog/pkg/log"
)

const maxBodyBytes = 64 << 10

// LogsController serves submission, recent history and long-poll.
type LogsController struct {
	rt     *runtime.Runtime
	logger log.Logger
	list   http.Handler
}

func NewLogsController(rt *runtime.Runtime, logger log.Logger) *LogsController {
	c := &LogsController{rt: rt, logger: logger.WithComponent("http.logs")}
	c.list = http.HandlerFunc(c.handleList)
	// MinSize only errors on negative values.
	if wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(256)); err == nil {
		c.list = wrap(c.list)
	}
	return c
}

// RegisterRoutes registers:
// - POST /api/logs (submit)
// - GET /api/logs (recent, gzip when accepted)
// - GET /api/long-polling/logs (NDJSON stream)
func (c *LogsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/logs", c.handleLogs)
	mux.HandleFunc("/api/long-polling/logs", c.handleLongPoll)
}

func (c *LogsController) handleLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		c.handleSubmit(w, r)
	case http.MethodGet:
		c.list.ServeHTTP(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

// handleSubmit evaluates and records one expression.
func (c *LogsController) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := c.rt.Logs().Submit(r.Context(), req.Expression)
	switch {
	case errors.Is(err, logsvc.ErrEmptyExpression):
		writeError(w, http.StatusBadRequest, "Expression is empty")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, submitResp{Message: res.Message, Output: res.Output, IsValid: res.IsValid})
}

// handleList returns up to the recent limit of records above since_id.
func (c *LogsController) handleList(w http.ResponseWriter, r *http.Request) {
	cursor, ok := parseSinceID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid since_id")
		return
	}
	recs, err := c.rt.Logs().Recent(r.Context(), cursor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleLongPoll streams the seed snapshot, one record per interval.
func (c *LogsController) handleLongPoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	cursor, ok := parseSinceID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid since_id")
		return
	}
	sink := newNDJSONSink(w)
	err := c.rt.LongPoll().Serve(r.Context(), cursor, sink)
	switch {
	case err == nil:
	case errors.Is(err, logsvc.ErrNoContent):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// client went away or server is shutting down
	case !sink.started:
		c.logger.Error("long-poll seed failed", log.Uint64("since_id", cursor), log.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	default:
		c.logger.Warn("long-poll stream aborted", log.Err(err))
	}
}
