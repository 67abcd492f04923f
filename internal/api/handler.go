package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/kahnflow/internal/config"
	"github.com/gyaneshwarpardhi/kahnflow/internal/engine"
	"github.com/gyaneshwarpardhi/kahnflow/internal/metrics"
	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes. loader may be nil,
// in which case reloads are refused.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/pipelines/{id}/runs", h.runPipeline)
	h.mux.HandleFunc("POST /v1/pipelines/{id}/runs/batch", h.runBatch)
	h.mux.HandleFunc("GET /v1/pipelines", h.listPipelines)
	h.mux.HandleFunc("GET /v1/pipelines/{id}", h.describePipeline)
	h.mux.HandleFunc("POST /v1/pipelines/reload", h.reloadPipelines)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// runBody is the request body of a single run.
type runBody struct {
	ID      string                 `json:"id"`
	Payload map[string]interface{} `json:"payload"`
	Meta    map[string]string      `json:"meta"`
}

func (b runBody) request(pipeline string, now time.Time) *run.Request {
	id := b.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &run.Request{ID: id, Pipeline: pipeline, Payload: b.Payload, Meta: b.Meta, ReceivedAt: now}
}

// POST /v1/pipelines/{id}/runs runs one pipeline synchronously.
func (h *Handler) runPipeline(w http.ResponseWriter, r *http.Request) {
	var body runBody
	if err := decodeJSON(r, &body, true); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	res, err := h.eng.ProcessSync(r.Context(), body.request(r.PathValue("id"), time.Now()))
	switch {
	case errors.Is(err, engine.ErrUnknownPipeline):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case err != nil:
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /v1/pipelines/{id}/runs/batch queues up to 100 runs.
func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request) {
	pipeline := r.PathValue("id")
	if _, ok := h.eng.Catalog().Get(pipeline); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %q", engine.ErrUnknownPipeline, pipeline))
		return
	}

	var bodies []runBody
	if err := decodeJSON(r, &bodies, false); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(bodies) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one run")
		return
	}
	if len(bodies) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(bodies), maxBatchSize))
		return
	}

	now := time.Now()
	jobID := uuid.New().String()
	runIDs := make([]string, 0, len(bodies))
	for _, b := range bodies {
		req := b.request(pipeline, now)
		if h.eng.ProcessAsync(req) {
			runIDs = append(runIDs, req.ID)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(bodies),
		"queued":   len(runIDs),
		"rejected": len(bodies) - len(runIDs),
		"run_ids":  runIDs,
	})
}

type pipelineSummary struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
}

// GET /v1/pipelines lists compiled pipelines.
func (h *Handler) listPipelines(w http.ResponseWriter, r *http.Request) {
	cat := h.eng.Catalog()
	out := make([]pipelineSummary, 0, cat.Len())
	for _, id := range cat.IDs() {
		p, _ := cat.Get(id)
		out = append(out, pipelineSummary{
			ID:          p.ID,
			Description: p.Description,
			Nodes:       p.Graph().NodeCount(),
			Edges:       p.Graph().EdgeCount(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":   cat.Version(),
		"pipelines": out,
	})
}

// GET /v1/pipelines/{id} describes one pipeline's graph.
func (h *Handler) describePipeline(w http.ResponseWriter, r *http.Request) {
	d, ok := h.eng.Catalog().Describe(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %q", engine.ErrUnknownPipeline, r.PathValue("id")))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// POST /v1/pipelines/reload re-reads the pipeline file. The catalog swap
// happens in the loader's change callbacks.
func (h *Handler) reloadPipelines(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotImplemented, "reload is not configured")
		return
	}
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":        true,
		"version":         cfg.Version,
		"pipelines_count": h.eng.Catalog().Len(),
	})
}

// GET /healthz always answers 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz answers 503 if the run queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
