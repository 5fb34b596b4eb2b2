// Package pipeline turns a FIT activity file into a durable analysis bundle:
// analysis.json (optionally zstd-compressed), an activity series artifact in
// parquet or CSV, and a manifest tying the artifacts to the source bytes.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	stride "stride-engine"
	"stride-engine/fitstream"
)

// Run executes the full analysis pipeline for one FIT file and writes all
// artifacts under opts.OutDir.
func Run(opts Options) (*Result, error) {
	if opts.FitPath == "" {
		return nil, fmt.Errorf("fit path is required")
	}
	if opts.OutDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	data, err := os.ReadFile(opts.FitPath)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	return runBytes(opts, filepath.Base(opts.FitPath), opts.FitPath, data)
}

// RunBytes executes the pipeline over an in-memory FIT payload, for callers
// that receive uploads rather than paths.
func RunBytes(opts Options, sourceName string, data []byte) (*Result, error) {
	if opts.OutDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	return runBytes(opts, sourceName, sourceName, data)
}

func runBytes(opts Options, sourceName, sourcePath string, data []byte) (*Result, error) {
	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	points, err := fitstream.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	budget := opts.Budget
	if budget <= 0 {
		budget = stride.DefaultBudget
	}
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	analysis, err := stride.AnalyzeWithBudget(ctx, stride.Input{
		Points:     points,
		Physiology: opts.Physiology,
		Plan:       opts.Plan,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze activity: %w", err)
	}

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	analysisPath := filepath.Join(opts.OutDir, "analysis.json")
	if opts.Compress {
		analysisPath += ".zst"
		if err := writeJSONZst(analysisPath, analysis); err != nil {
			return nil, fmt.Errorf("write analysis: %w", err)
		}
	} else if err := writeJSON(analysisPath, analysis); err != nil {
		return nil, fmt.Errorf("write analysis: %w", err)
	}

	rows := buildSeriesRows(points, analysis.Segments)
	format := opts.Format
	if format == "" {
		format = "parquet"
	}
	seriesPath := filepath.Join(opts.OutDir, "activity_series."+formatExtension(format))
	switch format {
	case "parquet":
		err = writeSeriesParquet(seriesPath, rows)
	case "csv":
		err = writeSeriesCSV(seriesPath, rows)
	default:
		return nil, fmt.Errorf("unsupported series format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("write series: %w", err)
	}

	manifest := Manifest{
		RunID:           uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		SourceFile:      sourcePath,
		SourceFileName:  sourceName,
		SourceSHA256:    sha,
		SourceSizeBytes: int64(len(data)),
		AnalysisPath:    filepath.Base(analysisPath),
		SeriesPath:      filepath.Base(seriesPath),
		SeriesFormat:    format,
		Compressed:      opts.Compress,
		PointCount:      analysis.PointCount,
		SegmentCount:    len(analysis.Segments),
		MomentCount:     len(analysis.Moments),
		TierUsed:        string(analysis.TierUsed),
		Confidence:      analysis.Confidence,
	}
	manifestPath := filepath.Join(opts.OutDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return &Result{
		OutputDir:    opts.OutDir,
		ManifestPath: manifestPath,
		AnalysisPath: analysisPath,
		SeriesPath:   seriesPath,
		PointCount:   analysis.PointCount,
		SegmentCount: len(analysis.Segments),
		MomentCount:  len(analysis.Moments),
	}, nil
}

func formatExtension(format string) string {
	if format == "csv" {
		return "csv"
	}
	return "parquet"
}

func buildSeriesRows(points []stride.StreamPoint, segments []stride.Segment) []SeriesRow {
	rows := make([]SeriesRow, len(points))
	seg := 0
	for i, p := range points {
		for seg < len(segments)-1 && i > segments[seg].EndIndex {
			seg++
		}
		label := ""
		if seg < len(segments) {
			label = string(segments[seg].Type)
		}
		rows[i] = SeriesRow{
			TimeS:       p.TimeS,
			DistanceM:   p.DistanceM,
			HRBPM:       p.HeartrateBPM,
			CadenceSPM:  p.CadenceSPM,
			AltitudeM:   p.AltitudeM,
			VelocityMPS: p.VelocityMPS,
			GradePct:    p.GradePct,
			SegmentType: label,
		}
	}
	return rows
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite to allow)", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONZst(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func writeSeriesCSV(path string, rows []SeriesRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"time_s", "distance_m", "heartrate_bpm", "cadence_spm", "altitude_m", "velocity_mps", "grade_pct", "segment_type"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.TimeS),
			formatFloatPtr(r.DistanceM),
			formatFloatPtr(r.HRBPM),
			formatFloatPtr(r.CadenceSPM),
			formatFloatPtr(r.AltitudeM),
			formatFloatPtr(r.VelocityMPS),
			formatFloatPtr(r.GradePct),
			r.SegmentType,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
