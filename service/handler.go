package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	stride "stride-engine"
)

// analyzeRequest is the JSON body for POST /activities/analyze.
type analyzeRequest struct {
	Points      []stride.StreamPoint      `json:"points"`
	Physiology  *stride.PhysiologyContext `json:"physiology,omitempty"`
	Plan        *stride.PlanSummary       `json:"plan,omitempty"`
	RequirePlan bool                      `json:"require_plan,omitempty"`

	// FetchState lets callers report a non-success upstream fetch instead
	// of points, so the service answers with the matching typed error.
	FetchState stride.FetchState `json:"fetch_state,omitempty"`
}

// errorResponse is the JSON body returned on any analysis failure.
type errorResponse struct {
	Errors    []stride.AnalysisError `json:"errors"`
	Retryable bool                   `json:"retryable"`
}

// healthResponse is the JSON body for GET /health.
type healthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis"`
	Uptime string `json:"uptime"`
}

// Handler serves the analysis API. The cache is optional; a nil cache means
// every request is computed.
type Handler struct {
	cache     *ResultCache
	budget    time.Duration
	startTime time.Time
}

// NewHandler builds a handler with the given result cache and per-request
// computation budget. A zero budget falls back to the engine default.
func NewHandler(cache *ResultCache, budget time.Duration) *Handler {
	if budget <= 0 {
		budget = stride.DefaultBudget
	}
	return &Handler{
		cache:     cache,
		budget:    budget,
		startTime: time.Now(),
	}
}

// Routes returns the configured router.
func (h *Handler) Routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/activities/analyze", h.AnalyzeHandler).Methods(http.MethodPost)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// AnalyzeHandler handles POST /activities/analyze.
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/activities/analyze"
	timer := prometheus.NewTimer(RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, endpoint, r.Method, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondError(w, endpoint, r.Method, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.FetchState != "" && req.FetchState != stride.FetchSuccess {
		ferr := stride.ClassifyFetchState(req.FetchState)
		h.respondAnalysisErrors(w, endpoint, r.Method, stride.AnalysisErrors{*ferr})
		return
	}

	digest := requestDigest(body)
	if h.cache != nil {
		if res, ok := h.cache.Get(r.Context(), digest); ok {
			CacheHits.Inc()
			RequestsTotal.WithLabelValues(endpoint, r.Method, "200").Inc()
			h.respondJSON(w, res, http.StatusOK)
			return
		}
		CacheMisses.Inc()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	AnalysesTotal.Inc()
	start := time.Now()
	res, err := stride.AnalyzeWithBudget(ctx, stride.Input{
		Points:      req.Points,
		Physiology:  req.Physiology,
		Plan:        req.Plan,
		RequirePlan: req.RequirePlan,
	})
	AnalysisLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		var aerrs stride.AnalysisErrors
		if errors.As(err, &aerrs) {
			h.respondAnalysisErrors(w, endpoint, r.Method, aerrs)
			return
		}
		h.respondError(w, endpoint, r.Method, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cache != nil {
		_ = h.cache.Put(r.Context(), digest, res)
	}

	RequestsTotal.WithLabelValues(endpoint, r.Method, "200").Inc()
	h.respondJSON(w, res, http.StatusOK)
}

// HealthHandler handles GET /health.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disabled"
	if h.cache != nil {
		redisStatus = "connected"
		if err := h.cache.Ping(r.Context()); err != nil {
			redisStatus = "disconnected"
		}
	}
	h.respondJSON(w, healthResponse{
		Status: "healthy",
		Redis:  redisStatus,
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	}, http.StatusOK)
}

func (h *Handler) respondAnalysisErrors(w http.ResponseWriter, endpoint, method string, aerrs stride.AnalysisErrors) {
	status := statusForErrors(aerrs)
	for _, ae := range aerrs {
		AnalysisFailures.WithLabelValues(string(ae.Code)).Inc()
	}
	RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	h.respondJSON(w, errorResponse{Errors: aerrs, Retryable: aerrs.Retryable()}, status)
}

func (h *Handler) respondError(w http.ResponseWriter, endpoint, method string, status int, msg string) {
	RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	h.respondJSON(w, map[string]string{"error": msg}, status)
}

func (h *Handler) respondJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForErrors maps the typed error list onto an HTTP status. Retryable
// conditions get 5xx so load balancers and job runners retry; permanent data
// problems get 422.
func statusForErrors(aerrs stride.AnalysisErrors) int {
	for _, ae := range aerrs {
		switch ae.Code {
		case stride.ErrAnalysisTimeout:
			return http.StatusGatewayTimeout
		case stride.ErrStreamsNotFound:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusUnprocessableEntity
}

func requestDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
