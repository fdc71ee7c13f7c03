package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/biaslab/bias-engine/internal/core/domain"
	"github.com/biaslab/bias-engine/internal/core/ports"
)

type Router struct {
	analyzer ports.ArticleAnalyzer
	metrics  ports.MetricsReader
	store    ports.ResultStore
	queue    ports.AnalysisQueue
	promed   http.Handler
}

func NewRouter(
	analyzer ports.ArticleAnalyzer,
	metrics ports.MetricsReader,
	store ports.ResultStore,
	queue ports.AnalysisQueue,
	prometheusHandler http.Handler,
) *Router {
	return &Router{
		analyzer: analyzer,
		metrics:  metrics,
		store:    store,
		queue:    queue,
		promed:   prometheusHandler,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/analyses", rt.analyze)
	mux.HandleFunc("/v1/analyses/batch", rt.analyzeBatch)
	mux.HandleFunc("/v1/analyses/", rt.getAnalysis)
	mux.HandleFunc("/v1/metrics", rt.metricsSnapshot)
	if rt.promed != nil {
		mux.Handle("/metrics", rt.promed)
	}
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	Input    string `json:"input"`
	URL      string `json:"url"`
	Priority string `json:"priority"`
}

func (req analyzeRequest) input() string {
	if strings.TrimSpace(req.Input) != "" {
		return req.Input
	}
	return req.URL
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	input := strings.TrimSpace(req.input())
	if input == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input or url is required"})
		return
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "priority must be low, normal or high"})
		return
	}

	result, err := rt.analyzer.Analyze(r.Context(), ports.AnalyzeRequest{Input: input, Priority: priority})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Inputs   []string `json:"inputs"`
	Priority string   `json:"priority"`
}

func (rt *Router) analyzeBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "batch analysis is not configured"})
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Inputs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "inputs is required"})
		return
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "priority must be low, normal or high"})
		return
	}

	jobIDs := make([]string, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		job := domain.AnalysisJob{
			JobID:    uuid.NewString(),
			Input:    input,
			Priority: priority,
		}
		if err := rt.queue.PublishAnalysisJob(r.Context(), job); err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		jobIDs = append(jobIDs, job.JobID)
	}
	if len(jobIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "inputs is required"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"job_ids": jobIDs})
}

func (rt *Router) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "result store is not configured"})
		return
	}

	fingerprint := strings.TrimPrefix(r.URL.Path, "/v1/analyses/")
	if fingerprint == "" || strings.Contains(fingerprint, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fingerprint is required"})
		return
	}

	result, err := rt.store.GetByFingerprint(r.Context(), fingerprint)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) metricsSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
