package stride

import "sort"

// Tier confidence bases. More personalized context always starts higher;
// the final result confidence is this base discounted by missing channels.
var tierConfidenceBase = map[Tier]float64{
	Tier1ThresholdHR:    0.95,
	Tier2EstimatedHRR:   0.85,
	Tier3PctMaxHR:       0.75,
	Tier4StreamRelative: 0.55,
}

// Karvonen coefficient: estimated threshold sits at 88% of heart-rate
// reserve above resting.
const hrrThresholdCoeff = 0.88

// effortSeries is the normalized per-point intensity signal plus the
// provenance the rest of the engine and the trust gate need.
type effortSeries struct {
	values             []float64
	tier               Tier
	crossRunComparable bool
	flags              []EstimatedFlag
}

// normalizeEffort produces one clamped [0,1] effort scalar per point. Tier
// selection is a strict priority order over the physiology fields; a tier is
// selected only when both its context precondition and its required channel
// are satisfied, otherwise selection falls through to the next tier. The
// switch over the chosen tier is exhaustive by construction.
func normalizeEffort(points []StreamPoint, phys *PhysiologyContext, inv channelInventory) effortSeries {
	hrAvail := inv.has(ChannelHeartrate)
	velAvail := inv.has(ChannelVelocity)

	var hr, vel []float64
	if hrAvail {
		hr = fillGaps(points, func(p StreamPoint) *float64 { return p.HeartrateBPM })
	}
	if velAvail {
		vel = fillGaps(points, func(p StreamPoint) *float64 { return p.VelocityMPS })
	}

	tier := selectTier(phys, hrAvail, velAvail)

	es := effortSeries{
		tier:               tier,
		crossRunComparable: tier != Tier4StreamRelative,
		values:             make([]float64, len(points)),
	}
	if !hrAvail && velAvail {
		es.flags = append(es.flags, FlagVelocityForHR)
	}

	switch tier {
	case Tier1ThresholdHR:
		if hrAvail {
			for i, v := range hr {
				es.values[i] = clamp01(v / *phys.ThresholdHR)
			}
		} else {
			thresholdVel := 1000.0 / *phys.ThresholdPaceSKm
			for i, v := range vel {
				es.values[i] = clamp01(v / thresholdVel)
			}
		}
	case Tier2EstimatedHRR:
		es.flags = append(es.flags, FlagThresholdFromHRR)
		resting := *phys.RestingHR
		estThreshold := resting + hrrThresholdCoeff*(*phys.MaxHR-resting)
		for i, v := range hr {
			es.values[i] = clamp01((v - resting) / (estThreshold - resting))
		}
	case Tier3PctMaxHR:
		for i, v := range hr {
			es.values[i] = clamp01(v / *phys.MaxHR)
		}
	case Tier4StreamRelative:
		es.flags = append(es.flags, FlagStreamRelative)
		src := hr
		if !hrAvail {
			src = vel
		}
		es.values = percentileRank(src)
	}

	return es
}

// selectTier picks the highest-precedence tier whose physiology precondition
// is met and whose formula is computable with the available channels.
func selectTier(phys *PhysiologyContext, hrAvail, velAvail bool) Tier {
	if phys != nil {
		if phys.ThresholdHR != nil && *phys.ThresholdHR > 0 && hrAvail {
			return Tier1ThresholdHR
		}
		if phys.ThresholdPaceSKm != nil && *phys.ThresholdPaceSKm > 0 && velAvail && !hrAvail {
			// Velocity fallback for the threshold tier when HR never made it
			// into the stream.
			return Tier1ThresholdHR
		}
		if phys.RestingHR != nil && phys.MaxHR != nil &&
			*phys.MaxHR > *phys.RestingHR && *phys.RestingHR > 0 && hrAvail {
			return Tier2EstimatedHRR
		}
		if phys.MaxHR != nil && *phys.MaxHR > 0 && hrAvail {
			return Tier3PctMaxHR
		}
	}
	return Tier4StreamRelative
}

// fillGaps extracts one channel as a dense series, carrying the last known
// value across nil samples and backfilling the leading gap from the first
// known value. Gap filling is deterministic and keeps the series aligned
// with the point indices.
func fillGaps(points []StreamPoint, get func(StreamPoint) *float64) []float64 {
	out := make([]float64, len(points))
	first := -1
	last := 0.0
	for i, p := range points {
		if v := get(p); v != nil && isFinite(*v) {
			last = *v
			if first < 0 {
				first = i
			}
		}
		out[i] = last
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	return out
}

// percentileRank maps each value to its mean rank within this series,
// scaled to [0,1]. Ties share a rank so reordering equal values cannot
// change the output.
func percentileRank(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = 0.5
		return out
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	for i, v := range values {
		lo := sort.SearchFloat64s(sorted, v)
		hi := sort.Search(len(sorted), func(j int) bool { return sorted[j] > v })
		// Mean rank of the tie block, as a fraction of n.
		rank := (float64(lo) + float64(hi-1)) / 2.0
		out[i] = clamp01((rank + 0.5) / float64(n))
	}
	return out
}

// resultConfidence derives the deterministic confidence score from the tier
// base and the share of missing optional channels.
func resultConfidence(tier Tier, missingFraction float64) float64 {
	base := tierConfidenceBase[tier]
	c := base * (1.0 - 0.4*missingFraction)
	if c < 0 {
		return 0
	}
	return c
}
