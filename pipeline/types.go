package pipeline

import (
	"time"

	stride "stride-engine"
)

// Options configures one pipeline run over a FIT activity file.
type Options struct {
	FitPath    string
	OutDir     string
	Physiology *stride.PhysiologyContext
	Plan       *stride.PlanSummary
	Format     string // parquet|csv
	Compress   bool   // zstd-compress analysis.json
	Overwrite  bool
	Budget     time.Duration // 0 means the engine default
}

// Result returns generated output paths.
type Result struct {
	OutputDir    string `json:"output_dir"`
	ManifestPath string `json:"manifest_path"`
	AnalysisPath string `json:"analysis_path"`
	SeriesPath   string `json:"series_path"`
	PointCount   int    `json:"point_count"`
	SegmentCount int    `json:"segment_count"`
	MomentCount  int    `json:"moment_count"`
}

// Manifest records provenance for one analysis run so artifacts can be
// traced back to the exact source bytes that produced them.
type Manifest struct {
	RunID           string    `json:"run_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	SourceFile      string    `json:"source_file"`
	SourceFileName  string    `json:"source_file_name"`
	SourceSHA256    string    `json:"source_sha256"`
	SourceSizeBytes int64     `json:"source_size_bytes"`
	AnalysisPath    string    `json:"analysis_path"`
	SeriesPath      string    `json:"series_path"`
	SeriesFormat    string    `json:"series_format"`
	Compressed      bool      `json:"compressed"`
	PointCount      int       `json:"point_count"`
	SegmentCount    int       `json:"segment_count"`
	MomentCount     int       `json:"moment_count"`
	TierUsed        string    `json:"tier_used"`
	Confidence      float64   `json:"confidence"`
}

// SeriesRow is one per-second row of the exported activity series: the raw
// channels plus the segment label the analyzer assigned to that index.
type SeriesRow struct {
	TimeS       int      `json:"time_s"`
	DistanceM   *float64 `json:"distance_m,omitempty"`
	HRBPM       *float64 `json:"heartrate_bpm,omitempty"`
	CadenceSPM  *float64 `json:"cadence_spm,omitempty"`
	AltitudeM   *float64 `json:"altitude_m,omitempty"`
	VelocityMPS *float64 `json:"velocity_mps,omitempty"`
	GradePct    *float64 `json:"grade_pct,omitempty"`
	SegmentType string   `json:"segment_type"`
}
