package stride

import (
	"fmt"
	"strings"
)

// ErrorCode is the closed set of machine-actionable analysis failures.
type ErrorCode string

const (
	ErrStreamsNotFound             ErrorCode = "STREAMS_NOT_FOUND"
	ErrStreamsUnavailable          ErrorCode = "STREAMS_UNAVAILABLE"
	ErrPartialChannelsInsufficient ErrorCode = "PARTIAL_CHANNELS_INSUFFICIENT"
	ErrMalformedStreamData         ErrorCode = "MALFORMED_STREAM_DATA"
	ErrAnalysisTimeout             ErrorCode = "ANALYSIS_TIMEOUT"
	ErrPlanDataMissing             ErrorCode = "PLAN_DATA_MISSING"
)

// AnalysisError is one typed failure. Message is diagnostic only and must
// never be shown to an athlete.
type AnalysisError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s (retryable=%t)", e.Code, e.Message, e.Retryable)
}

// AnalysisErrors is the error list an analysis call returns instead of a
// result. It is never empty when returned and never accompanies a result.
type AnalysisErrors []AnalysisError

func (es AnalysisErrors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Retryable reports whether the caller may retry the whole call, which is
// true only when every contained error is retryable.
func (es AnalysisErrors) Retryable() bool {
	if len(es) == 0 {
		return false
	}
	for _, e := range es {
		if !e.Retryable {
			return false
		}
	}
	return true
}

func malformed(format string, args ...any) AnalysisError {
	return AnalysisError{
		Code:      ErrMalformedStreamData,
		Message:   fmt.Sprintf(format, args...),
		Retryable: false,
	}
}

func insufficientChannels(format string, args ...any) AnalysisError {
	return AnalysisError{
		Code:      ErrPartialChannelsInsufficient,
		Message:   fmt.Sprintf(format, args...),
		Retryable: false,
	}
}

func timeoutError(budget string) AnalysisError {
	return AnalysisError{
		Code:      ErrAnalysisTimeout,
		Message:   "analysis exceeded its computation budget of " + budget,
		Retryable: true,
	}
}

func planMissing() AnalysisError {
	return AnalysisError{
		Code:      ErrPlanDataMissing,
		Message:   "plan comparison requested but no plan is linked",
		Retryable: false,
	}
}

// FetchState is the upstream stream-fetch pipeline's state for an activity.
// The engine never waits on a fetch; callers classify the state they observe
// before invoking Analyze.
type FetchState string

const (
	FetchPending     FetchState = "pending"
	FetchFailed      FetchState = "failed"
	FetchDeferred    FetchState = "deferred"
	FetchSuccess     FetchState = "success"
	FetchUnavailable FetchState = "unavailable"
)

// ClassifyFetchState translates a non-success fetch state into the matching
// typed error. It returns nil for FetchSuccess.
func ClassifyFetchState(state FetchState) *AnalysisError {
	switch state {
	case FetchSuccess:
		return nil
	case FetchUnavailable:
		return &AnalysisError{
			Code:      ErrStreamsUnavailable,
			Message:   "activity has no stream data (manual or provider-side unavailable)",
			Retryable: false,
		}
	case FetchPending, FetchFailed, FetchDeferred:
		return &AnalysisError{
			Code:      ErrStreamsNotFound,
			Message:   fmt.Sprintf("stream fetch is %s; retry after the fetch reaches a terminal state", state),
			Retryable: true,
		}
	default:
		// Unknown fetch states are treated like an unfinished fetch.
		return &AnalysisError{
			Code:      ErrStreamsNotFound,
			Message:   fmt.Sprintf("unrecognized fetch state %q", state),
			Retryable: true,
		}
	}
}
