package stride

import "sort"

// Moment detection thresholds. Window widths are in samples and assume the
// provider's nominal 1 Hz record rate; on sparser streams the windows simply
// cover more elapsed time, which only makes detection more conservative.
const (
	driftBaselineWindowS  = 300
	driftOnsetDeviation   = 0.10
	stepWindowSamples     = 30
	stepMinSpacingSamples = 60
	cadenceStepThreshold  = 8.0  // pct
	paceStepThreshold     = 15.0 // pct
	gradeAnomalyPaceDev   = 0.15
	gradeAnomalyResidual  = 0.05
	gradeAdjustCoeff      = 0.03 // equivalent-flat velocity per grade pct
	recoveryHRDropRatio   = 0.90
)

// detectMoments scans the segmented series for discrete events. Every moment
// carries a numeric value, a unit and a closed-set context; ordering is by
// time, then type, so identical inputs always produce an identical list.
func detectMoments(points []StreamPoint, effort []float64, segments []Segment, inv channelInventory) []Moment {
	var moments []Moment

	moments = append(moments, zoneTransitions(points, effort, segments)...)
	if inv.has(ChannelHeartrate) && inv.has(ChannelVelocity) {
		if m, ok := cardiacDriftOnset(points, segments); ok {
			moments = append(moments, m)
		}
		moments = append(moments, recoveryHRDelays(points, segments)...)
	}
	if inv.has(ChannelCadence) {
		moments = append(moments, stepChanges(points, segments, cadenceSeries(points), cadenceStepThreshold, MomentCadenceSurge, MomentCadenceDrop)...)
	}
	if inv.has(ChannelVelocity) {
		moments = append(moments, stepChanges(points, segments, velocitySeries(points), paceStepThreshold, MomentPaceSurge, MomentPaceFade)...)
		if inv.has(ChannelGrade) {
			moments = append(moments, gradeAdjustedAnomalies(points, segments)...)
		}
	}

	sort.SliceStable(moments, func(i, j int) bool {
		if moments[i].TimeS != moments[j].TimeS {
			return moments[i].TimeS < moments[j].TimeS
		}
		return moments[i].Type < moments[j].Type
	})
	return moments
}

// zoneTransitions re-emits each interior segment boundary as a timeline
// marker.
func zoneTransitions(points []StreamPoint, effort []float64, segments []Segment) []Moment {
	if len(segments) < 2 {
		return nil
	}
	out := make([]Moment, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		idx := seg.StartIndex
		out = append(out, Moment{
			Type:    MomentEffortZoneTransition,
			Index:   idx,
			TimeS:   points[idx].TimeS,
			Value:   floatPtr(effort[idx]),
			Unit:    "effort",
			Context: enterContext(seg.Type),
		})
	}
	return out
}

func enterContext(t SegmentType) MomentContext {
	switch t {
	case SegmentWarmup:
		return ContextEnterWarmup
	case SegmentWork:
		return ContextEnterWork
	case SegmentRecovery:
		return ContextEnterRecovery
	case SegmentCooldown:
		return ContextEnterCooldown
	default:
		return ContextEnterSteady
	}
}

// cardiacDriftOnset finds the first index where the smoothed HR:velocity
// ratio exceeds the run's own early baseline by the onset deviation.
func cardiacDriftOnset(points []StreamPoint, segments []Segment) (Moment, bool) {
	hr := fillGaps(points, func(p StreamPoint) *float64 { return p.HeartrateBPM })
	vel := fillGaps(points, func(p StreamPoint) *float64 { return p.VelocityMPS })

	ratio := make([]float64, len(points))
	for i := range points {
		if vel[i] <= 0 {
			ratio[i] = 0
			continue
		}
		ratio[i] = hr[i] / vel[i]
	}
	smoothed := movingAverage(ratio, smoothingWindowSamples)

	startTime := points[0].TimeS
	baselineEnd := 0
	for i, p := range points {
		if p.TimeS-startTime > driftBaselineWindowS {
			break
		}
		baselineEnd = i
	}
	totalDur := points[len(points)-1].TimeS - startTime
	if points[baselineEnd].TimeS-startTime > totalDur/5 && baselineEnd > 0 {
		// Short run: cap the baseline at the first fifth.
		for i, p := range points {
			if (p.TimeS-startTime)*5 > totalDur {
				break
			}
			baselineEnd = i
		}
	}
	if baselineEnd < 1 {
		return Moment{}, false
	}

	baseline := average(smoothed[:baselineEnd+1])
	if baseline <= 0 {
		return Moment{}, false
	}
	for i := baselineEnd + 1; i < len(smoothed); i++ {
		if smoothed[i] > baseline*(1+driftOnsetDeviation) {
			dev := pctChange(baseline, smoothed[i])
			return Moment{
				Type:    MomentCardiacDriftOnset,
				Index:   i,
				TimeS:   points[i].TimeS,
				Value:   floatPtr(dev),
				Unit:    "pct",
				Context: duringContext(segments, i),
			}, true
		}
	}
	return Moment{}, false
}

// stepChanges compares a trailing window against the window before it and
// emits a moment when the relative change clears the threshold. Consecutive
// detections of the same sign are rate-limited by a minimum spacing.
func stepChanges(points []StreamPoint, segments []Segment, series []float64, thresholdPct float64, up, down MomentType) []Moment {
	if len(series) < 2*stepWindowSamples {
		return nil
	}
	var out []Moment
	lastUp := -stepMinSpacingSamples
	lastDown := -stepMinSpacingSamples

	for i := 2*stepWindowSamples - 1; i < len(series); i++ {
		prior := average(series[i-2*stepWindowSamples+1 : i-stepWindowSamples+1])
		recent := average(series[i-stepWindowSamples+1 : i+1])
		if prior <= 0 {
			continue
		}
		change := pctChange(prior, recent)
		switch {
		case change >= thresholdPct && i-lastUp >= stepMinSpacingSamples:
			lastUp = i
			out = append(out, Moment{
				Type:    up,
				Index:   i,
				TimeS:   points[i].TimeS,
				Value:   floatPtr(change),
				Unit:    "pct",
				Context: duringContext(segments, i),
			})
		case change <= -thresholdPct && i-lastDown >= stepMinSpacingSamples:
			lastDown = i
			out = append(out, Moment{
				Type:    down,
				Index:   i,
				TimeS:   points[i].TimeS,
				Value:   floatPtr(change),
				Unit:    "pct",
				Context: duringContext(segments, i),
			})
		}
	}
	return out
}

// gradeAdjustedAnomalies flags pace deviations that disappear once grade is
// accounted for. These are explicit anti-false-positive markers: the pace
// excursion is explained by terrain, not by the athlete.
func gradeAdjustedAnomalies(points []StreamPoint, segments []Segment) []Moment {
	vel := velocitySeries(points)
	grade := fillGaps(points, func(p StreamPoint) *float64 { return p.GradePct })

	meanVel := average(vel)
	if meanVel <= 0 {
		return nil
	}
	adj := make([]float64, len(vel))
	for i := range vel {
		adj[i] = vel[i] * (1 + gradeAdjustCoeff*grade[i])
	}
	meanAdj := average(adj)
	if meanAdj <= 0 {
		return nil
	}

	smoothVel := movingAverage(vel, smoothingWindowSamples)
	smoothAdj := movingAverage(adj, smoothingWindowSamples)

	var out []Moment
	lastIdx := -stepMinSpacingSamples
	for i := range smoothVel {
		rawDev := smoothVel[i]/meanVel - 1
		adjDev := smoothAdj[i]/meanAdj - 1
		if absFloat(rawDev) < gradeAnomalyPaceDev || absFloat(adjDev) >= gradeAnomalyResidual {
			continue
		}
		if i-lastIdx < stepMinSpacingSamples {
			continue
		}
		lastIdx = i
		out = append(out, Moment{
			Type:    MomentGradeAdjustedAnomaly,
			Index:   i,
			TimeS:   points[i].TimeS,
			Value:   floatPtr(rawDev * 100),
			Unit:    "pct",
			Context: ContextGradeExplained,
		})
	}
	return out
}

// recoveryHRDelays measures, for each work→recovery transition, how long HR
// takes to fall back below a fixed fraction of its boundary value.
func recoveryHRDelays(points []StreamPoint, segments []Segment) []Moment {
	hr := fillGaps(points, func(p StreamPoint) *float64 { return p.HeartrateBPM })

	var out []Moment
	for i := 1; i < len(segments); i++ {
		if segments[i-1].Type != SegmentWork || segments[i].Type != SegmentRecovery {
			continue
		}
		start := segments[i].StartIndex
		boundaryHR := hr[start]
		if boundaryHR <= 0 {
			continue
		}
		target := boundaryHR * recoveryHRDropRatio
		for j := start; j <= segments[i].EndIndex; j++ {
			if hr[j] <= target {
				delay := float64(points[j].TimeS - points[start].TimeS)
				out = append(out, Moment{
					Type:    MomentRecoveryHRDelay,
					Index:   j,
					TimeS:   points[j].TimeS,
					Value:   floatPtr(delay),
					Unit:    "s",
					Context: ContextDuringRecovery,
				})
				break
			}
		}
	}
	return out
}

func duringContext(segments []Segment, index int) MomentContext {
	for _, seg := range segments {
		if index >= seg.StartIndex && index <= seg.EndIndex {
			switch seg.Type {
			case SegmentWork:
				return ContextDuringWork
			case SegmentRecovery:
				return ContextDuringRecovery
			default:
				return ContextDuringSteady
			}
		}
	}
	return ContextDuringSteady
}

func cadenceSeries(points []StreamPoint) []float64 {
	return fillGaps(points, func(p StreamPoint) *float64 { return p.CadenceSPM })
}

func velocitySeries(points []StreamPoint) []float64 {
	return fillGaps(points, func(p StreamPoint) *float64 { return p.VelocityMPS })
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
