package stride

// matchedPaceTolerance restricts drift comparison to samples near the run's
// mean velocity, so surges and recoveries do not masquerade as drift.
const matchedPaceTolerance = 0.10

// analyzeDrift computes whole-run drift metrics. The run is split at the
// distance midpoint when distance is available, falling back to the time
// midpoint (recorded as an estimated flag by the caller). Fields stay nil
// when their source channel is absent.
func analyzeDrift(points []StreamPoint, inv channelInventory) (DriftMetrics, bool) {
	var drift DriftMetrics

	splitIdx, usedTimeSplit := splitIndex(points, inv)
	first := points[:splitIdx]
	second := points[splitIdx:]

	if inv.has(ChannelHeartrate) && inv.has(ChannelVelocity) {
		if v, ok := cardiacDriftPct(first, second, runMeanVelocity(points)); ok {
			drift.CardiacDriftPct = floatPtr(v)
		}
	}
	if inv.has(ChannelVelocity) {
		if v, ok := paceDriftPct(first, second); ok {
			drift.PaceDriftPct = floatPtr(v)
		}
	}
	if inv.has(ChannelCadence) && inv.has(ChannelDistance) {
		if v, ok := cadenceTrend(points); ok {
			drift.CadenceTrendSPMPerKm = floatPtr(v)
		}
	}
	return drift, usedTimeSplit
}

// splitIndex finds the first index of the second half: the point where
// cumulative distance (or elapsed time) passes half the run total.
func splitIndex(points []StreamPoint, inv channelInventory) (int, bool) {
	if inv.has(ChannelDistance) {
		firstDist, lastDist := 0.0, 0.0
		seen := false
		for _, p := range points {
			if p.DistanceM == nil {
				continue
			}
			if !seen {
				firstDist = *p.DistanceM
				seen = true
			}
			lastDist = *p.DistanceM
		}
		if seen && lastDist > firstDist {
			half := firstDist + (lastDist-firstDist)/2.0
			for i, p := range points {
				if p.DistanceM != nil && *p.DistanceM >= half {
					return clampSplit(i, len(points)), false
				}
			}
		}
	}

	halfTime := points[0].TimeS + (points[len(points)-1].TimeS-points[0].TimeS)/2
	for i, p := range points {
		if p.TimeS >= halfTime {
			return clampSplit(i, len(points)), true
		}
	}
	return clampSplit(len(points)/2, len(points)), true
}

func clampSplit(i, n int) int {
	if i < 1 {
		return 1
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// cardiacDriftPct is the percentage increase of the HR:velocity ratio from
// the first half to the second, over samples at matched pace. A positive
// value means the same pace cost more heart rate late in the run.
func cardiacDriftPct(first, second []StreamPoint, meanVel float64) (float64, bool) {
	if meanVel <= 0 {
		return 0, false
	}
	r1, ok1 := hrPerVelocity(first, meanVel)
	r2, ok2 := hrPerVelocity(second, meanVel)
	if !ok1 || !ok2 || r1 == 0 {
		return 0, false
	}
	return pctChange(r1, r2), true
}

func hrPerVelocity(points []StreamPoint, meanVel float64) (float64, bool) {
	var sumHR, sumVel float64
	count := 0
	for _, p := range points {
		if p.HeartrateBPM == nil || p.VelocityMPS == nil {
			continue
		}
		v := *p.VelocityMPS
		if v <= 0 {
			continue
		}
		ratio := v / meanVel
		if ratio < 1-matchedPaceTolerance || ratio > 1+matchedPaceTolerance {
			continue
		}
		sumHR += *p.HeartrateBPM
		sumVel += v
		count++
	}
	if count == 0 || sumVel == 0 {
		return 0, false
	}
	return (sumHR / float64(count)) / (sumVel / float64(count)), true
}

// paceDriftPct compares mean pace (s/km) across the halves; positive means
// the second half was slower.
func paceDriftPct(first, second []StreamPoint) (float64, bool) {
	p1, ok1 := meanPace(first)
	p2, ok2 := meanPace(second)
	if !ok1 || !ok2 || p1 == 0 {
		return 0, false
	}
	return pctChange(p1, p2), true
}

func meanPace(points []StreamPoint) (float64, bool) {
	var paces []float64
	for _, p := range points {
		if p.VelocityMPS == nil {
			continue
		}
		if pace := paceSKmFromVelocity(*p.VelocityMPS); pace > 0 {
			paces = append(paces, pace)
		}
	}
	if len(paces) == 0 {
		return 0, false
	}
	return average(paces), true
}

// cadenceTrend is the least-squares slope of cadence against cumulative
// distance, in steps/min per km.
func cadenceTrend(points []StreamPoint) (float64, bool) {
	var xs, ys []float64
	for _, p := range points {
		if p.CadenceSPM == nil || p.DistanceM == nil {
			continue
		}
		xs = append(xs, *p.DistanceM/1000.0)
		ys = append(ys, *p.CadenceSPM)
	}
	return linearSlope(xs, ys)
}

func runMeanVelocity(points []StreamPoint) float64 {
	var vels []float64
	for _, p := range points {
		if p.VelocityMPS != nil && *p.VelocityMPS > 0 {
			vels = append(vels, *p.VelocityMPS)
		}
	}
	return average(vels)
}
