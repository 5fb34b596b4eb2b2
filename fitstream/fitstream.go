// Package fitstream adapts FIT activity files into the engine's stream
// representation. It owns all provider-format concerns: sentinel values,
// enhanced-field fallbacks, out-of-order timestamps and sub-second
// duplicates never reach the engine.
package fitstream

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/tormoder/fit"

	stride "stride-engine"
)

// DecodeFile reads a FIT file from disk and converts its record messages
// into engine stream points.
func DecodeFile(path string) ([]stride.StreamPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes converts an in-memory FIT payload.
func DecodeBytes(data []byte) ([]stride.StreamPoint, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode fit: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("not an activity file: %w", err)
	}
	return fromRecords(activity.Records)
}

func fromRecords(records []*fit.RecordMsg) ([]stride.StreamPoint, error) {
	rows := make([]*fit.RecordMsg, 0, len(records))
	for _, rec := range records {
		if rec == nil || !validTime(rec.Timestamp) {
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("activity carries no timestamped record messages")
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	start := rows[0].Timestamp
	points := make([]stride.StreamPoint, 0, len(rows))
	lastTime := -1
	for _, rec := range rows {
		t := int(rec.Timestamp.Sub(start) / time.Second)
		if t <= lastTime && len(points) > 0 {
			// Sub-second duplicate: the later record wins the whole second.
			points[len(points)-1] = buildPoint(rec, t)
			continue
		}
		points = append(points, buildPoint(rec, t))
		lastTime = t
	}
	return points, nil
}

func buildPoint(rec *fit.RecordMsg, timeS int) stride.StreamPoint {
	p := stride.StreamPoint{TimeS: timeS}
	if v, ok := extractDistance(rec); ok {
		p.DistanceM = &v
	}
	if v, ok := extractHeartRate(rec); ok {
		p.HeartrateBPM = &v
	}
	if v, ok := extractCadence(rec); ok {
		p.CadenceSPM = &v
	}
	if v, ok := extractAltitude(rec); ok {
		p.AltitudeM = &v
	}
	if v, ok := extractSpeed(rec); ok {
		p.VelocityMPS = &v
	}
	if v, ok := extractGrade(rec); ok {
		p.GradePct = &v
	}
	return p
}

func extractHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

// extractCadence reports total steps per minute. FIT running cadence counts
// one leg; fractional cadence is carried in the 256-scaled field when the
// device records it.
func extractCadence(rec *fit.RecordMsg) (float64, bool) {
	cad256 := rec.GetCadence256Scaled()
	if isFinite(cad256) && cad256 > 0 {
		return cad256 * 2, true
	}
	if rec.Cadence == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.Cadence) * 2, true
}

func extractSpeed(rec *fit.RecordMsg) (float64, bool) {
	speed := rec.GetEnhancedSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	speed = rec.GetSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	return 0, false
}

func extractDistance(rec *fit.RecordMsg) (float64, bool) {
	d := rec.GetDistanceScaled()
	if isFinite(d) && d >= 0 {
		return d, true
	}
	return 0, false
}

func extractAltitude(rec *fit.RecordMsg) (float64, bool) {
	a := rec.GetEnhancedAltitudeScaled()
	if isFinite(a) {
		return a, true
	}
	a = rec.GetAltitudeScaled()
	if isFinite(a) {
		return a, true
	}
	return 0, false
}

func extractGrade(rec *fit.RecordMsg) (float64, bool) {
	if rec.Grade == math.MaxInt16 {
		return 0, false
	}
	g := rec.GetGradeScaled()
	if !isFinite(g) {
		return 0, false
	}
	return g, true
}

func validTime(t time.Time) bool {
	return !t.IsZero() && !fit.IsBaseTime(t)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
