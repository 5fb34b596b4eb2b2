package stride

// Segmentation tuning. These are fixture-calibrated starting points; they
// are grouped here so recalibration touches one block.
const (
	// smoothingWindowSamples suppresses single-sample sensor dropouts while
	// keeping interval transitions on the order of tens of seconds visible.
	smoothingWindowSamples = 15

	// Relative-intensity bands over the run-rescaled smoothed effort.
	bandLowMax  = 0.40
	bandHighMin = 0.70

	// bandHysteresis keeps a signal oscillating near a boundary from
	// fragmenting into many tiny segments.
	bandHysteresis = 0.05

	// minSegmentDurationS absorbs candidate segments shorter than this into
	// a neighbor.
	minSegmentDurationS = 45

	// minStructuredRunS is the floor below which a run is emitted as a
	// single steady segment without band detection.
	minStructuredRunS = 300

	// flatSpreadFloor: when the smoothed effort's min-max spread is below
	// this, the run has no structure worth banding.
	flatSpreadFloor = 0.12
)

type intensityBand int

const (
	bandLow intensityBand = iota
	bandModerate
	bandHigh
)

type bandRun struct {
	band       intensityBand
	startIndex int
	endIndex   int
}

// segmentStream partitions the point array into contiguous labeled segments
// driven by the normalized effort series. The output tiles the run: no gaps,
// no overlaps, temporal order.
func segmentStream(points []StreamPoint, effort []float64) []Segment {
	total := runDurationS(points, 0, len(points)-1)

	smoothed := movingAverage(effort, smoothingWindowSamples)
	lo, hi := minMax(smoothed)
	spread := hi - lo

	if total < minStructuredRunS || spread < flatSpreadFloor {
		return []Segment{buildSegment(points, SegmentSteady, 0, len(points)-1)}
	}

	rescaled := make([]float64, len(smoothed))
	for i, v := range smoothed {
		rescaled[i] = (v - lo) / spread
	}

	runs := detectBandRuns(rescaled)
	runs = mergeShortRuns(points, runs)

	if len(runs) == 1 {
		return []Segment{buildSegment(points, SegmentSteady, 0, len(points)-1)}
	}

	labels := labelRuns(runs)
	segments := make([]Segment, 0, len(runs))
	for i, r := range runs {
		segments = append(segments, buildSegment(points, labels[i], r.startIndex, r.endIndex))
	}
	return segments
}

// detectBandRuns walks the rescaled effort signal and emits maximal runs of
// one intensity band, switching bands only once the signal clears the
// boundary by the hysteresis margin.
func detectBandRuns(rescaled []float64) []bandRun {
	current := rawBand(rescaled[0])
	runs := []bandRun{{band: current, startIndex: 0, endIndex: 0}}

	for i := 1; i < len(rescaled); i++ {
		next := bandWithHysteresis(rescaled[i], current)
		if next == current {
			runs[len(runs)-1].endIndex = i
			continue
		}
		current = next
		runs = append(runs, bandRun{band: current, startIndex: i, endIndex: i})
	}
	return runs
}

func rawBand(v float64) intensityBand {
	switch {
	case v < bandLowMax:
		return bandLow
	case v < bandHighMin:
		return bandModerate
	default:
		return bandHigh
	}
}

func bandWithHysteresis(v float64, current intensityBand) intensityBand {
	switch current {
	case bandLow:
		if v >= bandHighMin+bandHysteresis {
			return bandHigh
		}
		if v >= bandLowMax+bandHysteresis {
			return bandModerate
		}
	case bandModerate:
		if v >= bandHighMin+bandHysteresis {
			return bandHigh
		}
		if v < bandLowMax-bandHysteresis {
			return bandLow
		}
	case bandHigh:
		if v < bandLowMax-bandHysteresis {
			return bandLow
		}
		if v < bandHighMin-bandHysteresis {
			return bandModerate
		}
	}
	return current
}

// mergeShortRuns absorbs runs below the minimum duration floor into the
// longer adjacent neighbor, repeatedly, scanning left to right so the result
// is deterministic. Adjacent same-band runs collapse as a side effect.
func mergeShortRuns(points []StreamPoint, runs []bandRun) []bandRun {
	runs = collapseSameBand(runs)
	for len(runs) > 1 {
		idx := -1
		for i, r := range runs {
			if runDurationS(points, r.startIndex, r.endIndex) < minSegmentDurationS {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		runs = absorbRun(points, runs, idx)
		runs = collapseSameBand(runs)
	}
	return runs
}

func absorbRun(points []StreamPoint, runs []bandRun, idx int) []bandRun {
	switch {
	case idx == 0:
		runs[1].startIndex = runs[0].startIndex
		return runs[1:]
	case idx == len(runs)-1:
		runs[idx-1].endIndex = runs[idx].endIndex
		return runs[:idx]
	default:
		prev := runs[idx-1]
		next := runs[idx+1]
		prevDur := runDurationS(points, prev.startIndex, prev.endIndex)
		nextDur := runDurationS(points, next.startIndex, next.endIndex)
		if nextDur > prevDur {
			runs[idx+1].startIndex = runs[idx].startIndex
		} else {
			runs[idx-1].endIndex = runs[idx].endIndex
		}
		return append(runs[:idx], runs[idx+1:]...)
	}
}

func collapseSameBand(runs []bandRun) []bandRun {
	if len(runs) < 2 {
		return runs
	}
	out := runs[:1]
	for _, r := range runs[1:] {
		last := &out[len(out)-1]
		if r.band == last.band {
			last.endIndex = r.endIndex
			continue
		}
		out = append(out, r)
	}
	return out
}

// labelRuns assigns segment types: the first low/moderate run before any
// higher-intensity run is the warmup, the last one after it is the cooldown,
// high runs are work, low runs between two work runs are recovery, and
// everything else is steady.
func labelRuns(runs []bandRun) []SegmentType {
	labels := make([]SegmentType, len(runs))

	firstWork, lastWork := -1, -1
	for i, r := range runs {
		if r.band == bandHigh {
			labels[i] = SegmentWork
			if firstWork < 0 {
				firstWork = i
			}
			lastWork = i
		} else {
			labels[i] = SegmentSteady
		}
	}
	if firstWork < 0 {
		// No high-band run survived merging: no qualifying transitions.
		return labels
	}

	if firstWork > 0 && runs[0].band != bandHigh {
		labels[0] = SegmentWarmup
	}
	last := len(runs) - 1
	if lastWork < last && runs[last].band != bandHigh {
		labels[last] = SegmentCooldown
	}

	// Interior low-band runs flanked by work become recovery.
	for i := 1; i < len(runs)-1; i++ {
		if labels[i] != SegmentSteady || runs[i].band != bandLow {
			continue
		}
		prevWork := false
		for j := i - 1; j >= 0; j-- {
			if labels[j] == SegmentWork {
				prevWork = true
				break
			}
			if labels[j] == SegmentWarmup {
				break
			}
		}
		nextWork := false
		for j := i + 1; j < len(runs); j++ {
			if labels[j] == SegmentWork {
				nextWork = true
				break
			}
			if labels[j] == SegmentCooldown {
				break
			}
		}
		if prevWork && nextWork {
			labels[i] = SegmentRecovery
		}
	}
	return labels
}

// buildSegment computes the derived times and the per-channel averages for
// one index range. Averages are nil when their source channel has no samples
// in range; pace is distance-weighted when both grade and distance are
// present, to avoid bias on hilly terrain.
func buildSegment(points []StreamPoint, t SegmentType, start, end int) Segment {
	seg := Segment{
		Type:       t,
		StartIndex: start,
		EndIndex:   end,
		StartTimeS: points[start].TimeS,
		EndTimeS:   points[end].TimeS,
		DurationS:  points[end].TimeS - points[start].TimeS,
	}

	var hr, cad, grade []float64
	for i := start; i <= end; i++ {
		p := points[i]
		if p.HeartrateBPM != nil {
			hr = append(hr, *p.HeartrateBPM)
		}
		if p.CadenceSPM != nil {
			cad = append(cad, *p.CadenceSPM)
		}
		if p.GradePct != nil {
			grade = append(grade, *p.GradePct)
		}
	}
	if len(hr) > 0 {
		seg.AvgHR = floatPtr(average(hr))
	}
	if len(cad) > 0 {
		seg.AvgCadence = floatPtr(average(cad))
	}
	if len(grade) > 0 {
		seg.AvgGradePct = floatPtr(average(grade))
	}
	if pace, ok := segmentPace(points, start, end); ok {
		seg.AvgPaceSKm = floatPtr(pace)
	}
	return seg
}

// segmentPace is the mean grade-adjusted pace over the range,
// distance-weighted when the distance channel is present and a plain
// per-sample mean otherwise.
func segmentPace(points []StreamPoint, start, end int) (float64, bool) {
	hasDistance := false
	for i := start; i <= end; i++ {
		if points[i].DistanceM != nil {
			hasDistance = true
			break
		}
	}

	if hasDistance {
		var weightedPace, totalDist float64
		for i := start + 1; i <= end; i++ {
			if points[i].DistanceM == nil || points[i-1].DistanceM == nil || points[i].VelocityMPS == nil {
				continue
			}
			dd := *points[i].DistanceM - *points[i-1].DistanceM
			if dd <= 0 {
				continue
			}
			pace := paceSKmFromVelocity(flatVelocity(points[i]))
			if pace == 0 {
				continue
			}
			weightedPace += pace * dd
			totalDist += dd
		}
		if totalDist > 0 {
			return weightedPace / totalDist, true
		}
	}

	var paces []float64
	for i := start; i <= end; i++ {
		if points[i].VelocityMPS == nil {
			continue
		}
		if pace := paceSKmFromVelocity(flatVelocity(points[i])); pace > 0 {
			paces = append(paces, pace)
		}
	}
	if len(paces) == 0 {
		return 0, false
	}
	return average(paces), true
}

// flatVelocity converts a sample's velocity to its equivalent-flat value
// using the same linear grade model as the moment detector. Samples without
// a grade reading pass through unadjusted.
func flatVelocity(p StreamPoint) float64 {
	v := *p.VelocityMPS
	if p.GradePct != nil {
		v *= 1 + gradeAdjustCoeff*(*p.GradePct)
	}
	return v
}

func runDurationS(points []StreamPoint, start, end int) int {
	if end <= start {
		return 0
	}
	return points[end].TimeS - points[start].TimeS
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
