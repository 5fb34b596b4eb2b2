package stride

// Synthetic stream builders shared by the engine tests. Streams are 1 Hz
// and fully deterministic so expectations can be exact.

type phase struct {
	durS  int
	hr    float64
	vel   float64
	cad   float64
	grade float64
}

// buildStream emits one point per second across the phases, with cumulative
// distance integrated from velocity.
func buildStream(phases []phase) []StreamPoint {
	var points []StreamPoint
	t := 0
	dist := 0.0
	for _, ph := range phases {
		for s := 0; s < ph.durS; s++ {
			dist += ph.vel
			points = append(points, StreamPoint{
				TimeS:        t,
				DistanceM:    floatPtr(dist),
				HeartrateBPM: floatPtr(ph.hr),
				CadenceSPM:   floatPtr(ph.cad),
				VelocityMPS:  floatPtr(ph.vel),
				GradePct:     floatPtr(ph.grade),
			})
			t++
		}
	}
	return points
}

// intervalPhases is a structured workout: warmup, 4x3min hard with 90s
// float, cooldown.
func intervalPhases() []phase {
	phases := []phase{{durS: 600, hr: 120, vel: 2.6, cad: 164}}
	for i := 0; i < 4; i++ {
		phases = append(phases, phase{durS: 180, hr: 176, vel: 4.2, cad: 184})
		if i < 3 {
			phases = append(phases, phase{durS: 90, hr: 126, vel: 2.2, cad: 160})
		}
	}
	phases = append(phases, phase{durS: 300, hr: 116, vel: 2.4, cad: 162})
	return phases
}

func steadyPhases(durS int) []phase {
	return []phase{{durS: durS, hr: 148, vel: 3.2, cad: 172}}
}

func dropHR(points []StreamPoint) []StreamPoint {
	out := make([]StreamPoint, len(points))
	for i, p := range points {
		p.HeartrateBPM = nil
		out[i] = p
	}
	return out
}

func dropVelocity(points []StreamPoint) []StreamPoint {
	out := make([]StreamPoint, len(points))
	for i, p := range points {
		p.VelocityMPS = nil
		out[i] = p
	}
	return out
}

func dropDistance(points []StreamPoint) []StreamPoint {
	out := make([]StreamPoint, len(points))
	for i, p := range points {
		p.DistanceM = nil
		out[i] = p
	}
	return out
}

func dropCadence(points []StreamPoint) []StreamPoint {
	out := make([]StreamPoint, len(points))
	for i, p := range points {
		p.CadenceSPM = nil
		out[i] = p
	}
	return out
}

func fullPhysiology() *PhysiologyContext {
	return &PhysiologyContext{
		ThresholdHR: floatPtr(170),
		RestingHR:   floatPtr(48),
		MaxHR:       floatPtr(192),
	}
}

func mustAnalyze(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, in Input) *StreamAnalysisResult {
	t.Helper()
	res, err := Analyze(in)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	return res
}
