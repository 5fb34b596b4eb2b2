package stride

// Physiological plausibility bounds for structural validation. Values
// outside these ranges cannot come from a human runner and indicate a
// corrupt payload rather than an unusual athlete.
const (
	maxPlausibleHR       = 260.0
	maxPlausibleCadence  = 320.0
	maxPlausibleVelocity = 13.0 // m/s, faster than any recorded sprint
	maxPlausibleGradePct = 60.0
	minPlausibleAltitude = -500.0
	maxPlausibleAltitude = 9000.0
)

// channelInventory reports which optional channels carry at least one sample.
type channelInventory struct {
	present []Channel
	missing []Channel
	counts  map[Channel]int
}

func (inv channelInventory) has(c Channel) bool {
	return inv.counts[c] > 0
}

// missingFraction is the share of the optional channel inventory with no
// samples at all, used for the confidence discount.
func (inv channelInventory) missingFraction() float64 {
	if len(optionalChannels) == 0 {
		return 0
	}
	return float64(len(inv.missing)) / float64(len(optionalChannels))
}

func inventoryChannels(points []StreamPoint) channelInventory {
	counts := make(map[Channel]int, len(optionalChannels))
	for _, p := range points {
		if p.DistanceM != nil {
			counts[ChannelDistance]++
		}
		if p.HeartrateBPM != nil {
			counts[ChannelHeartrate]++
		}
		if p.CadenceSPM != nil {
			counts[ChannelCadence]++
		}
		if p.AltitudeM != nil {
			counts[ChannelAltitude]++
		}
		if p.VelocityMPS != nil {
			counts[ChannelVelocity]++
		}
		if p.GradePct != nil {
			counts[ChannelGrade]++
		}
	}

	inv := channelInventory{counts: counts}
	for _, c := range optionalChannels {
		if counts[c] > 0 {
			inv.present = append(inv.present, c)
		} else {
			inv.missing = append(inv.missing, c)
		}
	}
	return inv
}

// validateStream runs the structural checks of the channel validator. It
// returns the channel inventory on success, or a single typed error
// describing the first structural defect found.
func validateStream(points []StreamPoint) (channelInventory, *AnalysisError) {
	if len(points) == 0 {
		err := insufficientChannels("stream has no points")
		return channelInventory{}, &err
	}

	lastTime := points[0].TimeS
	if lastTime < 0 {
		err := malformed("negative time_s %d at index 0", lastTime)
		return channelInventory{}, &err
	}
	for i, p := range points {
		if i > 0 {
			if p.TimeS <= lastTime {
				err := malformed("non-monotonic time_s at index %d: %d after %d", i, p.TimeS, lastTime)
				return channelInventory{}, &err
			}
			lastTime = p.TimeS
		}

		if pointEmpty(p) {
			err := malformed("point at index %d carries no channel data", i)
			return channelInventory{}, &err
		}
		if reason := implausibleValue(p); reason != "" {
			err := malformed("implausible value at index %d: %s", i, reason)
			return channelInventory{}, &err
		}
	}

	// Distance, when present, shares the time axis' monotonicity contract.
	lastDist := -1.0
	for i, p := range points {
		if p.DistanceM == nil {
			continue
		}
		if *p.DistanceM < lastDist {
			err := malformed("distance_m decreases at index %d", i)
			return channelInventory{}, &err
		}
		lastDist = *p.DistanceM
	}

	inv := inventoryChannels(points)
	if !inv.has(ChannelHeartrate) && !inv.has(ChannelVelocity) {
		err := insufficientChannels("no effort-bearing channel: need heartrate or velocity")
		return channelInventory{}, &err
	}
	return inv, nil
}

func pointEmpty(p StreamPoint) bool {
	return p.DistanceM == nil && p.HeartrateBPM == nil && p.CadenceSPM == nil &&
		p.AltitudeM == nil && p.VelocityMPS == nil && p.GradePct == nil
}

func implausibleValue(p StreamPoint) string {
	if p.HeartrateBPM != nil && (!isFinite(*p.HeartrateBPM) || *p.HeartrateBPM <= 0 || *p.HeartrateBPM > maxPlausibleHR) {
		return "heartrate_bpm out of range"
	}
	if p.CadenceSPM != nil && (!isFinite(*p.CadenceSPM) || *p.CadenceSPM < 0 || *p.CadenceSPM > maxPlausibleCadence) {
		return "cadence_spm out of range"
	}
	if p.VelocityMPS != nil && (!isFinite(*p.VelocityMPS) || *p.VelocityMPS < 0 || *p.VelocityMPS > maxPlausibleVelocity) {
		return "velocity_mps out of range"
	}
	if p.GradePct != nil && (!isFinite(*p.GradePct) || *p.GradePct < -maxPlausibleGradePct || *p.GradePct > maxPlausibleGradePct) {
		return "grade_pct out of range"
	}
	if p.AltitudeM != nil && (!isFinite(*p.AltitudeM) || *p.AltitudeM < minPlausibleAltitude || *p.AltitudeM > maxPlausibleAltitude) {
		return "altitude_m out of range"
	}
	if p.DistanceM != nil && (!isFinite(*p.DistanceM) || *p.DistanceM < 0) {
		return "distance_m out of range"
	}
	return ""
}
