package stride

import (
	"sort"
	"testing"
)

func analyzeParts(t *testing.T, points []StreamPoint, phys *PhysiologyContext) ([]Segment, []Moment) {
	t.Helper()
	inv := mustInventory(t, points)
	effort := normalizeEffort(points, phys, inv)
	segments := segmentStream(points, effort.values)
	moments := detectMoments(points, effort.values, segments, inv)
	return segments, moments
}

func momentsOfType(moments []Moment, mt MomentType) []Moment {
	var out []Moment
	for _, m := range moments {
		if m.Type == mt {
			out = append(out, m)
		}
	}
	return out
}

func TestDetectMoments_ZoneTransitions(t *testing.T) {
	points := buildStream(intervalPhases())
	segments, moments := analyzeParts(t, points, fullPhysiology())

	transitions := momentsOfType(moments, MomentEffortZoneTransition)
	if len(transitions) != len(segments)-1 {
		t.Fatalf("got %d transitions for %d segments, want %d", len(transitions), len(segments), len(segments)-1)
	}
	for i, m := range transitions {
		seg := segments[i+1]
		if m.Index != seg.StartIndex || m.TimeS != seg.StartTimeS {
			t.Fatalf("transition %d at index %d, want segment start %d", i, m.Index, seg.StartIndex)
		}
		if m.Context == "" || m.Value == nil || m.Unit != "effort" {
			t.Fatalf("transition %d missing context/value/unit: %+v", i, m)
		}
	}
	if transitions[0].Context != ContextEnterWork {
		t.Fatalf("first transition context = %s, want %s", transitions[0].Context, ContextEnterWork)
	}
}

func TestDetectMoments_PaceSurgeAndFade(t *testing.T) {
	phases := []phase{
		{durS: 400, hr: 145, vel: 3.0, cad: 172},
		{durS: 300, hr: 165, vel: 3.7, cad: 178},
		{durS: 400, hr: 150, vel: 2.9, cad: 170},
	}
	points := buildStream(phases)
	_, moments := analyzeParts(t, points, fullPhysiology())

	surges := momentsOfType(moments, MomentPaceSurge)
	fades := momentsOfType(moments, MomentPaceFade)
	if len(surges) == 0 {
		t.Fatalf("expected a pace surge at the +23%% velocity step")
	}
	if len(fades) == 0 {
		t.Fatalf("expected a pace fade at the -22%% velocity step")
	}
	if s := surges[0]; s.TimeS < 400 || s.TimeS > 460 {
		t.Fatalf("surge detected at t=%d, want shortly after the step at 400", s.TimeS)
	}
	if f := fades[0]; f.TimeS < 700 || f.TimeS > 760 {
		t.Fatalf("fade detected at t=%d, want shortly after the step at 700", f.TimeS)
	}
}

func TestDetectMoments_CadenceSteps(t *testing.T) {
	phases := []phase{
		{durS: 400, hr: 150, vel: 3.0, cad: 172},
		{durS: 400, hr: 150, vel: 3.0, cad: 150},
	}
	points := buildStream(phases)
	_, moments := analyzeParts(t, points, fullPhysiology())

	drops := momentsOfType(moments, MomentCadenceDrop)
	if len(drops) == 0 {
		t.Fatalf("expected a cadence drop at the -13%% step")
	}
	if surges := momentsOfType(moments, MomentCadenceSurge); len(surges) != 0 {
		t.Fatalf("no cadence surge in this stream, got %d", len(surges))
	}
}

func TestDetectMoments_CardiacDriftOnset(t *testing.T) {
	points := driftStream(2400, 135, 175)
	_, moments := analyzeParts(t, points, fullPhysiology())

	onsets := momentsOfType(moments, MomentCardiacDriftOnset)
	if len(onsets) != 1 {
		t.Fatalf("got %d drift onsets, want exactly 1", len(onsets))
	}
	m := onsets[0]
	if m.TimeS <= driftBaselineWindowS {
		t.Fatalf("onset at t=%d inside the baseline window", m.TimeS)
	}
	if m.Value == nil || *m.Value < 10 {
		t.Fatalf("onset deviation = %v, want >= 10%%", m.Value)
	}
	if m.Unit != "pct" {
		t.Fatalf("onset unit = %q, want pct", m.Unit)
	}
}

func TestDetectMoments_GradeExplainedAnomaly(t *testing.T) {
	phases := []phase{
		{durS: 540, hr: 150, vel: 3.0, cad: 172, grade: 0},
		{durS: 60, hr: 152, vel: 2.4, cad: 168, grade: 8.4},
		{durS: 540, hr: 150, vel: 3.0, cad: 172, grade: 0},
	}
	points := buildStream(phases)
	_, moments := analyzeParts(t, points, fullPhysiology())

	anomalies := momentsOfType(moments, MomentGradeAdjustedAnomaly)
	if len(anomalies) == 0 {
		t.Fatalf("expected a grade-explained anomaly on the hill")
	}
	for _, m := range anomalies {
		if m.Context != ContextGradeExplained {
			t.Fatalf("anomaly context = %s, want %s", m.Context, ContextGradeExplained)
		}
		if m.TimeS < 500 || m.TimeS > 650 {
			t.Fatalf("anomaly at t=%d, want inside the hill around 540..600", m.TimeS)
		}
	}
}

func TestDetectMoments_RecoveryHRDelay(t *testing.T) {
	// One hard rep whose HR decays through the recovery instead of stepping
	// down instantly.
	var phases []phase
	phases = append(phases, phase{durS: 600, hr: 120, vel: 2.6, cad: 164})
	phases = append(phases, phase{durS: 240, hr: 178, vel: 4.2, cad: 184})
	for i := 0; i < 40; i++ {
		phases = append(phases, phase{durS: 1, hr: 178 - 1.1*float64(i), vel: 2.2, cad: 160})
	}
	for i := 0; i < 140; i++ {
		phases = append(phases, phase{durS: 1, hr: 133 - 0.15*float64(i), vel: 2.2, cad: 160})
	}
	phases = append(phases, phase{durS: 240, hr: 178, vel: 4.2, cad: 184})
	phases = append(phases, phase{durS: 300, hr: 116, vel: 2.4, cad: 162})
	points := buildStream(phases)

	segments, moments := analyzeParts(t, points, fullPhysiology())
	hasRecovery := false
	for _, s := range segments {
		if s.Type == SegmentRecovery {
			hasRecovery = true
		}
	}
	if !hasRecovery {
		t.Fatalf("fixture did not produce a recovery segment: %v", segmentTypes(segments))
	}

	delays := momentsOfType(moments, MomentRecoveryHRDelay)
	if len(delays) == 0 {
		t.Fatalf("expected a recovery HR delay moment")
	}
	m := delays[0]
	if m.Unit != "s" || m.Value == nil || *m.Value <= 0 {
		t.Fatalf("delay moment malformed: %+v", m)
	}
	if m.Context != ContextDuringRecovery {
		t.Fatalf("delay context = %s, want %s", m.Context, ContextDuringRecovery)
	}
}

func TestDetectMoments_DeterministicOrder(t *testing.T) {
	points := buildStream(intervalPhases())
	_, moments := analyzeParts(t, points, fullPhysiology())

	if !sort.SliceIsSorted(moments, func(i, j int) bool {
		if moments[i].TimeS != moments[j].TimeS {
			return moments[i].TimeS < moments[j].TimeS
		}
		return moments[i].Type < moments[j].Type
	}) {
		t.Fatalf("moments not ordered by (time, type)")
	}
}

func TestDetectMoments_NoChannelsNoMoments(t *testing.T) {
	points := dropCadence(dropHR(buildStream(steadyPhases(1200))))
	inv := mustInventory(t, points)
	effort := normalizeEffort(points, nil, inv)
	segments := segmentStream(points, effort.values)
	moments := detectMoments(points, effort.values, segments, inv)

	for _, m := range moments {
		switch m.Type {
		case MomentCardiacDriftOnset, MomentRecoveryHRDelay:
			t.Fatalf("HR-derived moment %s without an HR channel", m.Type)
		case MomentCadenceDrop, MomentCadenceSurge:
			t.Fatalf("cadence moment %s without a cadence channel", m.Type)
		}
	}
}
