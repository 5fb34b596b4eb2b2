package stride

import "math"

// Small numeric helpers shared across the engine. All of them treat NaN and
// Inf as absent data.

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return ((to / from) - 1.0) * 100.0
}

// movingAverage smooths a series with a centered fixed-width window. The
// window shrinks symmetrically near the edges so the output has the input's
// length and no phase shift.
func movingAverage(values []float64, width int) []float64 {
	if width < 1 {
		width = 1
	}
	half := width / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(values) {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// linearSlope fits y against x by least squares and returns the slope, with
// ok=false when the fit is degenerate (fewer than two distinct x values).
func linearSlope(x, y []float64) (float64, bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, false
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		num += dx * (y[i] - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// paceSKmFromVelocity converts velocity in m/s to pace in seconds per km.
// Velocities at or below a walking-noise floor map to 0 (no meaningful pace).
func paceSKmFromVelocity(v float64) float64 {
	if !isFinite(v) || v <= 0.1 {
		return 0
	}
	return 1000.0 / v
}

func floatPtr(v float64) *float64 {
	out := v
	return &out
}

func intPtr(v int) *int {
	out := v
	return &out
}

func boolPtr(v bool) *bool {
	out := v
	return &out
}
