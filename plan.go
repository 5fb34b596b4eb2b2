package stride

// intervalCountTolerance: detected work-segment counts within this distance
// of the prescription count as a match.
const intervalCountTolerance = 1

// comparePlan reconciles actual totals against the linked plan. v1 compares
// totals only; there is no per-segment alignment. Delta fields stay nil
// whenever the planned side is nil — a plan value is never inferred.
func comparePlan(points []StreamPoint, segments []Segment, plan *PlanSummary) *PlanComparison {
	if plan == nil {
		return nil
	}

	actualDuration := float64(points[len(points)-1].TimeS - points[0].TimeS)
	cmp := &PlanComparison{
		ActualDurationS: actualDuration,
		ActualIntervals: countWorkSegments(segments),
	}

	if d, ok := actualDistance(points); ok {
		cmp.ActualDistanceM = floatPtr(d)
		if actualDuration > 0 && d > 0 {
			cmp.ActualPaceSKm = floatPtr(actualDuration / (d / 1000.0))
		}
	}

	// Planned values are copied, not aliased: the result must not share
	// state with the caller's plan.
	if plan.DurationS != nil {
		cmp.PlannedDurationS = floatPtr(*plan.DurationS)
		if *plan.DurationS > 0 {
			cmp.DurationDeltaPct = floatPtr(pctChange(*plan.DurationS, actualDuration))
		}
	}
	if plan.DistanceM != nil {
		cmp.PlannedDistanceM = floatPtr(*plan.DistanceM)
		if cmp.ActualDistanceM != nil && *plan.DistanceM > 0 {
			cmp.DistanceDeltaPct = floatPtr(pctChange(*plan.DistanceM, *cmp.ActualDistanceM))
		}
	}
	if plan.PaceSKm != nil {
		cmp.PlannedPaceSKm = floatPtr(*plan.PaceSKm)
		if cmp.ActualPaceSKm != nil && *plan.PaceSKm > 0 {
			cmp.PaceDeltaPct = floatPtr(pctChange(*plan.PaceSKm, *cmp.ActualPaceSKm))
		}
	}
	if plan.IntervalCount != nil {
		cmp.PlannedIntervals = intPtr(*plan.IntervalCount)
		diff := cmp.ActualIntervals - *plan.IntervalCount
		if diff < 0 {
			diff = -diff
		}
		cmp.IntervalCountMatch = boolPtr(diff <= intervalCountTolerance)
	}
	return cmp
}

func countWorkSegments(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Type == SegmentWork {
			n++
		}
	}
	return n
}

func actualDistance(points []StreamPoint) (float64, bool) {
	first, last := 0.0, 0.0
	seen := false
	for _, p := range points {
		if p.DistanceM == nil {
			continue
		}
		if !seen {
			first = *p.DistanceM
			seen = true
		}
		last = *p.DistanceM
	}
	if !seen || last <= first {
		return 0, false
	}
	return last - first, true
}
