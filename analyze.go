// Package stride analyzes one running activity's raw sensor streams into a
// typed, deterministic structure: labeled segments, whole-run drift metrics,
// timestamped moments and an optional plan comparison, graded by how much is
// known about the athlete's physiology.
//
// The engine is a pure function of its inputs: no persisted state, no I/O,
// no randomness. Repeated calls on identical input produce byte-identical
// results, so callers may run any number of analyses in parallel.
package stride

import (
	"context"
	"time"
)

// DefaultBudget is the computation budget callers are expected to enforce
// through AnalyzeWithBudget. It comfortably covers a multi-hour activity.
const DefaultBudget = 350 * time.Millisecond

// Analyze runs the full analysis synchronously. On failure the returned
// error is a non-empty AnalysisErrors list and the result is nil; the two
// are never mixed.
func Analyze(in Input) (*StreamAnalysisResult, error) {
	if in.RequirePlan && in.Plan == nil {
		return nil, AnalysisErrors{planMissing()}
	}

	inv, verr := validateStream(in.Points)
	if verr != nil {
		return nil, AnalysisErrors{*verr}
	}

	effort := normalizeEffort(in.Points, in.Physiology, inv)
	segments := segmentStream(in.Points, effort.values)
	drift, usedTimeSplit := analyzeDrift(in.Points, inv)
	moments := detectMoments(in.Points, effort.values, segments, inv)

	flags := append([]EstimatedFlag(nil), effort.flags...)
	if usedTimeSplit {
		flags = append(flags, FlagTimeMidpointSplit)
	}

	res := &StreamAnalysisResult{
		Segments:           segments,
		Drift:              drift,
		Moments:            moments,
		PlanComparison:     comparePlan(in.Points, segments, in.Plan),
		ChannelsPresent:    append([]Channel(nil), inv.present...),
		ChannelsMissing:    append([]Channel(nil), inv.missing...),
		PointCount:         len(in.Points),
		Confidence:         resultConfidence(effort.tier, inv.missingFraction()),
		TierUsed:           effort.tier,
		EstimatedFlags:     flags,
		CrossRunComparable: effort.crossRunComparable,
	}

	applyTrustGate(res, inv)
	return res, nil
}

// AnalyzeWithBudget runs Analyze under the context's deadline. When the
// budget expires first, the in-flight computation is abandoned and only the
// retryable timeout error is returned: a timed-out call never exposes a
// partial result.
func AnalyzeWithBudget(ctx context.Context, in Input) (*StreamAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, AnalysisErrors{timeoutError(budgetString(ctx))}
	}

	type outcome struct {
		res *StreamAnalysisResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := Analyze(in)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, AnalysisErrors{timeoutError(budgetString(ctx))}
	}
}

func budgetString(ctx context.Context) string {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d.Round(time.Millisecond).String()
		}
	}
	return DefaultBudget.String()
}
