package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stride "stride-engine"
)

func steadyPoints(durS int) []stride.StreamPoint {
	points := make([]stride.StreamPoint, durS)
	dist := 0.0
	for i := 0; i < durS; i++ {
		hr := 148.0
		vel := 3.2
		cad := 172.0
		dist += vel
		d := dist
		points[i] = stride.StreamPoint{
			TimeS:        i,
			DistanceM:    &d,
			HeartrateBPM: &hr,
			CadenceSPM:   &cad,
			VelocityMPS:  &vel,
		}
	}
	return points
}

func postAnalyze(t *testing.T, h *Handler, req analyzeRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/activities/analyze", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)
	return w
}

func TestAnalyzeHandler_Success(t *testing.T) {
	h := NewHandler(nil, time.Second)
	thr := 170.0
	w := postAnalyze(t, h, analyzeRequest{
		Points:     steadyPoints(900),
		Physiology: &stride.PhysiologyContext{ThresholdHR: &thr},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var res stride.StreamAnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.TierUsed != stride.Tier1ThresholdHR {
		t.Fatalf("TierUsed = %q, want %q", res.TierUsed, stride.Tier1ThresholdHR)
	}
	if len(res.Segments) == 0 {
		t.Fatal("expected segments in response")
	}
}

func TestAnalyzeHandler_MalformedStream(t *testing.T) {
	h := NewHandler(nil, time.Second)
	points := steadyPoints(900)
	points[400].TimeS = 10 // non-monotonic
	w := postAnalyze(t, h, analyzeRequest{Points: points})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body: %s", w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if len(resp.Errors) == 0 || resp.Errors[0].Code != stride.ErrMalformedStreamData {
		t.Fatalf("errors = %+v, want MALFORMED_STREAM_DATA", resp.Errors)
	}
	if resp.Retryable {
		t.Fatal("malformed stream must not be retryable")
	}
}

func TestAnalyzeHandler_PlanRequired(t *testing.T) {
	h := NewHandler(nil, time.Second)
	w := postAnalyze(t, h, analyzeRequest{
		Points:      steadyPoints(900),
		RequirePlan: true,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Code != stride.ErrPlanDataMissing {
		t.Fatalf("errors = %+v, want PLAN_DATA_MISSING", resp.Errors)
	}
}

func TestAnalyzeHandler_FetchState(t *testing.T) {
	h := NewHandler(nil, time.Second)

	w := postAnalyze(t, h, analyzeRequest{FetchState: stride.FetchPending})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("pending fetch: status = %d, want 503", w.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Errors[0].Code != stride.ErrStreamsNotFound || !resp.Retryable {
		t.Fatalf("errors = %+v, want retryable STREAMS_NOT_FOUND", resp.Errors)
	}

	w = postAnalyze(t, h, analyzeRequest{FetchState: stride.FetchUnavailable})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unavailable fetch: status = %d, want 422", w.Code)
	}
}

func TestAnalyzeHandler_InvalidJSON(t *testing.T) {
	h := NewHandler(nil, time.Second)
	r := httptest.NewRequest(http.MethodPost, "/activities/analyze", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHandler(nil, time.Second)
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("Status = %q", resp.Status)
	}
	if resp.Redis != "disabled" {
		t.Fatalf("Redis = %q, want disabled without a cache", resp.Redis)
	}
}

func TestStatusForErrors(t *testing.T) {
	cases := []struct {
		code stride.ErrorCode
		want int
	}{
		{stride.ErrAnalysisTimeout, http.StatusGatewayTimeout},
		{stride.ErrStreamsNotFound, http.StatusServiceUnavailable},
		{stride.ErrStreamsUnavailable, http.StatusUnprocessableEntity},
		{stride.ErrMalformedStreamData, http.StatusUnprocessableEntity},
		{stride.ErrPartialChannelsInsufficient, http.StatusUnprocessableEntity},
		{stride.ErrPlanDataMissing, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		got := statusForErrors(stride.AnalysisErrors{{Code: tc.code}})
		if got != tc.want {
			t.Errorf("statusForErrors(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
