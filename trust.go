package stride

// Trust gate preconditions. Directional language downstream requires at
// least this much supporting data; anything less keeps the number but tags
// it with a suppression reason.
const (
	minDirectionalSamples    = 600 // ~10 minutes at 1 Hz
	minDirectionalConfidence = 0.60
)

// applyTrustGate is a single pass over the assembled result that decides,
// per interpretable field, whether directional or causal language is
// permitted downstream. It never deletes a field: the numeric fact stays,
// the suppression entry travels with it. The gate is fail-closed — a field
// with missing or unknown supporting metadata is suppressed.
func applyTrustGate(res *StreamAnalysisResult, inv channelInventory) {
	lowTier := res.TierUsed == Tier4StreamRelative
	lowConfidence := res.Confidence < minDirectionalConfidence
	fewSamples := res.PointCount < minDirectionalSamples

	suppress := func(field ResultField, reason SuppressReason) {
		res.Suppressions = append(res.Suppressions, Suppression{Field: field, Reason: reason})
	}

	gateDrift := func(field ResultField, value *float64, channels ...Channel) {
		if value == nil {
			// No fact to interpret; channel absence is already recorded in
			// channels_missing.
			return
		}
		for _, c := range channels {
			if !inv.has(c) {
				suppress(field, SuppressChannelMissing)
				return
			}
		}
		switch {
		case fewSamples:
			suppress(field, SuppressInsufficientSamples)
		case lowTier:
			suppress(field, SuppressStreamRelative)
		case lowConfidence:
			suppress(field, SuppressLowTierConfidence)
		}
	}

	gateDrift(FieldCardiacDrift, res.Drift.CardiacDriftPct, ChannelHeartrate, ChannelVelocity)
	gateDrift(FieldPaceDrift, res.Drift.PaceDriftPct, ChannelVelocity)
	gateDrift(FieldCadenceTrend, res.Drift.CadenceTrendSPMPerKm, ChannelCadence, ChannelDistance)

	// Moment contexts carry implicit direction ("during work", "fade").
	if len(res.Moments) > 0 {
		switch {
		case fewSamples:
			suppress(FieldMomentContext, SuppressInsufficientSamples)
		case lowTier:
			suppress(FieldMomentContext, SuppressStreamRelative)
		case lowConfidence:
			suppress(FieldMomentContext, SuppressLowTierConfidence)
		}
	}

	if res.PlanComparison != nil {
		cmp := res.PlanComparison
		hasDelta := cmp.DurationDeltaPct != nil || cmp.DistanceDeltaPct != nil ||
			cmp.PaceDeltaPct != nil || cmp.IntervalCountMatch != nil
		planComplete := cmp.PlannedDurationS != nil && cmp.PlannedDistanceM != nil && cmp.PlannedPaceSKm != nil
		switch {
		case hasDelta && !planComplete:
			suppress(FieldPlanVariance, SuppressPlanIncomplete)
		case hasDelta && fewSamples:
			suppress(FieldPlanVariance, SuppressInsufficientSamples)
		case hasDelta && lowTier:
			suppress(FieldPlanVariance, SuppressStreamRelative)
		case hasDelta && lowConfidence:
			suppress(FieldPlanVariance, SuppressLowTierConfidence)
		}
	}
}
