package stride

import (
	"math"
	"testing"
)

// driftStream holds pace perfectly steady while HR climbs, the textbook
// cardiac drift shape.
func driftStream(durS int, hrStart, hrEnd float64) []StreamPoint {
	points := make([]StreamPoint, durS)
	dist := 0.0
	for t := 0; t < durS; t++ {
		dist += 3.0
		hr := hrStart + (hrEnd-hrStart)*float64(t)/float64(durS-1)
		points[t] = StreamPoint{
			TimeS:        t,
			DistanceM:    floatPtr(dist),
			HeartrateBPM: floatPtr(hr),
			CadenceSPM:   floatPtr(172),
			VelocityMPS:  floatPtr(3.0),
		}
	}
	return points
}

func TestAnalyzeDrift_CardiacDrift(t *testing.T) {
	points := driftStream(1200, 140, 160)
	inv := mustInventory(t, points)

	drift, usedTimeSplit := analyzeDrift(points, inv)
	if usedTimeSplit {
		t.Fatalf("distance is present, split should use the distance midpoint")
	}
	if drift.CardiacDriftPct == nil {
		t.Fatalf("expected cardiac drift with hr+velocity present")
	}
	// The distance midpoint lands at index 600, so the halves average
	// 144.996 and 155.004 bpm at constant velocity: a +6.9025% ratio rise.
	got := *drift.CardiacDriftPct
	if math.Abs(got-6.9025) > 0.5 {
		t.Fatalf("cardiac drift = %v%%, want 6.9025%% within 0.5", got)
	}
	if drift.PaceDriftPct == nil || math.Abs(*drift.PaceDriftPct) > 1e-9 {
		t.Fatalf("pace drift = %v, want 0 at constant velocity", drift.PaceDriftPct)
	}
	if drift.CadenceTrendSPMPerKm == nil || math.Abs(*drift.CadenceTrendSPMPerKm) > 1e-9 {
		t.Fatalf("cadence trend = %v, want 0 at constant cadence", drift.CadenceTrendSPMPerKm)
	}
}

func TestAnalyzeDrift_PaceFade(t *testing.T) {
	phases := []phase{
		{durS: 900, hr: 150, vel: 3.2, cad: 174},
		{durS: 900, hr: 152, vel: 2.9, cad: 168},
	}
	points := buildStream(phases)
	inv := mustInventory(t, points)

	drift, _ := analyzeDrift(points, inv)
	if drift.PaceDriftPct == nil {
		t.Fatalf("expected pace drift with velocity present")
	}
	// Pace in s/km: 312.5 -> 344.8, about +10% slower.
	if *drift.PaceDriftPct < 8 || *drift.PaceDriftPct > 12 {
		t.Fatalf("pace drift = %v%%, want roughly +10%%", *drift.PaceDriftPct)
	}
	if drift.CadenceTrendSPMPerKm == nil || *drift.CadenceTrendSPMPerKm >= 0 {
		t.Fatalf("cadence trend = %v, want negative when cadence decays", drift.CadenceTrendSPMPerKm)
	}
}

func TestAnalyzeDrift_TimeSplitFallback(t *testing.T) {
	points := dropDistance(driftStream(1200, 140, 160))
	inv := mustInventory(t, points)

	drift, usedTimeSplit := analyzeDrift(points, inv)
	if !usedTimeSplit {
		t.Fatalf("no distance channel, split must fall back to the time midpoint")
	}
	if drift.CardiacDriftPct == nil {
		t.Fatalf("cardiac drift should survive a time-midpoint split")
	}
	if drift.CadenceTrendSPMPerKm != nil {
		t.Fatalf("cadence trend requires distance, got %v", *drift.CadenceTrendSPMPerKm)
	}
}

func TestAnalyzeDrift_MissingChannelsStayNil(t *testing.T) {
	points := dropHR(driftStream(1200, 140, 160))
	inv := mustInventory(t, points)
	drift, _ := analyzeDrift(points, inv)
	if drift.CardiacDriftPct != nil {
		t.Fatalf("cardiac drift without HR must be nil, got %v", *drift.CardiacDriftPct)
	}
	if drift.PaceDriftPct == nil {
		t.Fatalf("pace drift should still compute from velocity alone")
	}

	points = dropVelocity(driftStream(1200, 140, 160))
	inv = mustInventory(t, points)
	drift, _ = analyzeDrift(points, inv)
	if drift.CardiacDriftPct != nil || drift.PaceDriftPct != nil {
		t.Fatalf("velocity-derived drift fields must be nil without velocity")
	}
	if drift.CadenceTrendSPMPerKm == nil {
		t.Fatalf("cadence trend needs only cadence and distance")
	}
}

func TestAnalyzeDrift_MatchedPaceExcludesSurges(t *testing.T) {
	// Second half contains a hard surge; at matched pace the steady samples
	// show no extra heart rate, so drift should stay near zero rather than
	// inherit the surge's HR.
	phases := []phase{
		{durS: 600, hr: 145, vel: 3.0, cad: 172},
		{durS: 300, hr: 145, vel: 3.0, cad: 172},
		{durS: 150, hr: 178, vel: 4.5, cad: 186},
		{durS: 150, hr: 145, vel: 3.0, cad: 172},
	}
	points := buildStream(phases)
	inv := mustInventory(t, points)

	drift, _ := analyzeDrift(points, inv)
	if drift.CardiacDriftPct == nil {
		t.Fatalf("expected cardiac drift metric")
	}
	if math.Abs(*drift.CardiacDriftPct) > 2 {
		t.Fatalf("cardiac drift = %v%%, surge samples leaked into the matched-pace comparison", *drift.CardiacDriftPct)
	}
}

func TestSplitIndex_DistanceMidpoint(t *testing.T) {
	points := driftStream(1000, 140, 150)
	inv := mustInventory(t, points)
	idx, usedTime := splitIndex(points, inv)
	if usedTime {
		t.Fatalf("expected distance split")
	}
	// Constant velocity: the distance midpoint is the time midpoint.
	if idx < 480 || idx > 520 {
		t.Fatalf("split index = %d, want near 500", idx)
	}
}
