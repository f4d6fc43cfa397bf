package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
	"github.com/gyaneshwarpardhi/wfgraph/internal/engine"
	"github.com/gyaneshwarpardhi/wfgraph/internal/event"
	"github.com/gyaneshwarpardhi/wfgraph/internal/metrics"
)

const (
	maxBatchSize = 100
	maxBodyBytes = 1 << 20
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	opts   dag.BuildOptions
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
// POST /v1/workflow/reload relies on the loader's OnChange callbacks to
// swap the engine graph; register eng.Reloader on loader for that.
func New(eng *engine.Engine, loader *config.Loader, opts dag.BuildOptions) http.Handler {
	h := &Handler{eng: eng, loader: loader, opts: opts, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/triggers", h.resolveTrigger)
	h.mux.HandleFunc("POST /v1/triggers/batch", h.resolveBatch)
	h.mux.HandleFunc("GET /v1/workflow", h.getWorkflow)
	h.mux.HandleFunc("POST /v1/workflow/build", h.buildWorkflow)
	h.mux.HandleFunc("POST /v1/workflow/reload", h.reloadWorkflow)
	h.mux.HandleFunc("GET /v1/workflow/cycle", h.getCycle)
	h.mux.HandleFunc("GET /v1/workflow/joins", h.getJoins)
	h.mux.HandleFunc("GET /v1/workflow/joins/{job}", h.getJoinSources)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/triggers — synchronous single-trigger resolution.
func (h *Handler) resolveTrigger(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev.ReceivedAt = time.Now()

	res, err := h.eng.ProcessSync(r.Context(), &ev)
	if err != nil {
		writeErr(w, err)
		return
	}
	metrics.TriggerResolutionDuration.Observe(float64(res.DurationMs))
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/triggers/batch — async batch ingestion (up to 100 triggers).
func (h *Handler) resolveBatch(w http.ResponseWriter, r *http.Request) {
	var events []*event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one trigger")
		return
	}
	if len(events) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(events), maxBatchSize))
		return
	}

	now := time.Now()
	batchID := uuid.New().String()
	queued := 0
	var invalid []string
	for i, ev := range events {
		if ev == nil {
			invalid = append(invalid, fmt.Sprintf("[%d]: null trigger", i))
			continue
		}
		if _, err := dag.ParseTrigger(ev.Descriptor()); err != nil {
			invalid = append(invalid, fmt.Sprintf("[%d]: %s", i, err))
			continue
		}
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		ev.ReceivedAt = now
		if h.eng.ProcessAsync(ev) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"batch_id": batchID,
		"total":    len(events),
		"queued":   queued,
		"rejected": len(events) - queued,
		"invalid":  invalid,
	})
}

// GET /v1/workflow — the live graph.
func (h *Handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Graph())
}

// POST /v1/workflow/build — build a graph from a posted pipeline without
// touching the live one. Accepts JSON with comments; ?legacy=true overrides.
func (h *Handler) buildWorkflow(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := config.Parse(body, config.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid pipeline: %s", err))
		return
	}
	opts := h.opts
	if v := r.URL.Query().Get("legacy"); v != "" {
		opts.UseLegacy = v == "true" || v == "1"
	}
	g, err := engine.BuildGraph(cfg, opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":      dag.ModeFor(cfg, opts),
		"workflow":  g,
		"has_cycle": dag.HasCycle(g),
		"has_join":  dag.HasJoin(g),
	})
}

// POST /v1/workflow/reload — hot-reload the pipeline from disk.
func (h *Handler) reloadWorkflow(w http.ResponseWriter, r *http.Request) {
	if _, err := h.loader.Reload(); err != nil {
		writeErr(w, err)
		return
	}
	g := h.eng.Graph()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"nodes":    g.NodeCount(),
		"edges":    g.EdgeCount(),
	})
}

// GET /v1/workflow/cycle
func (h *Handler) getCycle(w http.ResponseWriter, r *http.Request) {
	path := dag.FindCycle(h.eng.Graph())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"has_cycle": path != nil,
		"path":      path,
	})
}

// GET /v1/workflow/joins
func (h *Handler) getJoins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"has_join": dag.HasJoin(h.eng.Graph())})
}

// GET /v1/workflow/joins/{job} — the sources job waits for.
func (h *Handler) getJoinSources(w http.ResponseWriter, r *http.Request) {
	g := h.eng.Graph()
	job := r.PathValue("job")
	if _, ok := g.Node(job); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("job %q not found", job))
		return
	}
	sources, err := dag.JoinSources(g, job)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":     job,
		"join":    len(sources) > 0,
		"sources": sources,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if trigger queue >80% full.
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
