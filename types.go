package stride

// StreamPoint is one raw sample from an activity's sensor streams. TimeS is
// the only required field; every other channel is optional and nil when the
// provider did not record it.
type StreamPoint struct {
	TimeS        int      `json:"time_s"`
	DistanceM    *float64 `json:"distance_m,omitempty"`
	HeartrateBPM *float64 `json:"heartrate_bpm,omitempty"`
	CadenceSPM   *float64 `json:"cadence_spm,omitempty"`
	AltitudeM    *float64 `json:"altitude_m,omitempty"`
	VelocityMPS  *float64 `json:"velocity_mps,omitempty"`
	GradePct     *float64 `json:"grade_pct,omitempty"`
}

// PhysiologyContext carries whatever is known about the athlete. Field
// presence drives effort tier selection; the zero value means nothing is
// known and forces stream-relative classification.
type PhysiologyContext struct {
	ThresholdHR      *float64 `json:"threshold_hr,omitempty"`
	RestingHR        *float64 `json:"resting_hr,omitempty"`
	MaxHR            *float64 `json:"max_hr,omitempty"`
	ThresholdPaceSKm *float64 `json:"threshold_pace_s_per_km,omitempty"`
}

// Channel identifies one optional stream channel.
type Channel string

const (
	ChannelTime      Channel = "time"
	ChannelDistance  Channel = "distance"
	ChannelHeartrate Channel = "heartrate"
	ChannelCadence   Channel = "cadence"
	ChannelAltitude  Channel = "altitude"
	ChannelVelocity  Channel = "velocity"
	ChannelGrade     Channel = "grade"
)

// optionalChannels is the fixed channel inventory used for presence
// accounting and the confidence discount. Order is the report order.
var optionalChannels = []Channel{
	ChannelDistance,
	ChannelHeartrate,
	ChannelCadence,
	ChannelAltitude,
	ChannelVelocity,
	ChannelGrade,
}

// SegmentType labels one contiguous interval of a run.
type SegmentType string

const (
	SegmentWarmup   SegmentType = "warmup"
	SegmentWork     SegmentType = "work"
	SegmentRecovery SegmentType = "recovery"
	SegmentCooldown SegmentType = "cooldown"
	SegmentSteady   SegmentType = "steady"
)

// Segment is one labeled, contiguous index range of the point array.
// Segments returned by the engine tile the run: EndIndex of segment n is
// immediately followed by StartIndex of segment n+1.
type Segment struct {
	Type       SegmentType `json:"type"`
	StartIndex int         `json:"start_index"`
	EndIndex   int         `json:"end_index"`
	StartTimeS int         `json:"start_time_s"`
	EndTimeS   int         `json:"end_time_s"`
	DurationS  int         `json:"duration_s"`

	AvgPaceSKm  *float64 `json:"avg_pace_s_km,omitempty"`
	AvgHR       *float64 `json:"avg_hr,omitempty"`
	AvgCadence  *float64 `json:"avg_cadence,omitempty"`
	AvgGradePct *float64 `json:"avg_grade_pct,omitempty"`
}

// DriftMetrics compares the second half of the run against the first at
// matched pace. Every field is nil, never zero, when its source channel is
// absent.
type DriftMetrics struct {
	CardiacDriftPct      *float64 `json:"cardiac_drift_pct,omitempty"`
	PaceDriftPct         *float64 `json:"pace_drift_pct,omitempty"`
	CadenceTrendSPMPerKm *float64 `json:"cadence_trend_bpm_per_km,omitempty"`
}

// MomentType enumerates the discrete events the detector can emit.
type MomentType string

const (
	MomentCardiacDriftOnset    MomentType = "cardiac_drift_onset"
	MomentCadenceDrop          MomentType = "cadence_drop"
	MomentCadenceSurge         MomentType = "cadence_surge"
	MomentPaceSurge            MomentType = "pace_surge"
	MomentPaceFade             MomentType = "pace_fade"
	MomentGradeAdjustedAnomaly MomentType = "grade_adjusted_anomaly"
	MomentRecoveryHRDelay      MomentType = "recovery_hr_delay"
	MomentEffortZoneTransition MomentType = "effort_zone_transition"
)

// MomentContext is the closed set of short context labels a moment may
// carry. Moments never carry free text.
type MomentContext string

const (
	ContextDuringWork     MomentContext = "during_work"
	ContextDuringRecovery MomentContext = "during_recovery"
	ContextDuringSteady   MomentContext = "during_steady"
	ContextGradeExplained MomentContext = "grade_explained"
	ContextEnterWarmup    MomentContext = "enter_warmup"
	ContextEnterWork      MomentContext = "enter_work"
	ContextEnterRecovery  MomentContext = "enter_recovery"
	ContextEnterCooldown  MomentContext = "enter_cooldown"
	ContextEnterSteady    MomentContext = "enter_steady"
)

// Moment is one discrete, timestamped observation. It is a fact, never a
// prescription.
type Moment struct {
	Type    MomentType    `json:"type"`
	Index   int           `json:"index"`
	TimeS   int           `json:"time_s"`
	Value   *float64      `json:"value,omitempty"`
	Unit    string        `json:"unit,omitempty"`
	Context MomentContext `json:"context,omitempty"`
}

// PlanSummary is the linked planned workout's prescribed totals. Every field
// is optional; the comparator never infers a missing target.
type PlanSummary struct {
	DurationS     *float64 `json:"duration_s,omitempty"`
	DistanceM     *float64 `json:"distance_m,omitempty"`
	PaceSKm       *float64 `json:"pace_s_km,omitempty"`
	IntervalCount *int     `json:"interval_count,omitempty"`
}

// PlanComparison reconciles actual totals against the plan. Delta fields are
// nil whenever their planned counterpart is nil.
type PlanComparison struct {
	PlannedDurationS   *float64 `json:"planned_duration_s,omitempty"`
	ActualDurationS    float64  `json:"actual_duration_s"`
	DurationDeltaPct   *float64 `json:"duration_delta_pct,omitempty"`
	PlannedDistanceM   *float64 `json:"planned_distance_m,omitempty"`
	ActualDistanceM    *float64 `json:"actual_distance_m,omitempty"`
	DistanceDeltaPct   *float64 `json:"distance_delta_pct,omitempty"`
	PlannedPaceSKm     *float64 `json:"planned_pace_s_km,omitempty"`
	ActualPaceSKm      *float64 `json:"actual_pace_s_km,omitempty"`
	PaceDeltaPct       *float64 `json:"pace_delta_pct,omitempty"`
	PlannedIntervals   *int     `json:"planned_interval_count,omitempty"`
	ActualIntervals    int      `json:"actual_interval_count"`
	IntervalCountMatch *bool    `json:"interval_count_match,omitempty"`
}

// Tier is the precedence level of physiological context used for effort
// normalization. Lower numbers use more personalized data.
type Tier string

const (
	Tier1ThresholdHR    Tier = "tier1_threshold_hr"
	Tier2EstimatedHRR   Tier = "tier2_estimated_hrr"
	Tier3PctMaxHR       Tier = "tier3_pct_max_hr"
	Tier4StreamRelative Tier = "tier4_stream_relative"
)

// EstimatedFlag records a substitution or estimation the normalizer had to
// make. Flags are facts about provenance, not warnings.
type EstimatedFlag string

const (
	FlagStreamRelative    EstimatedFlag = "stream_relative_classification"
	FlagVelocityForHR     EstimatedFlag = "velocity_substituted_for_heartrate"
	FlagThresholdFromHRR  EstimatedFlag = "threshold_estimated_from_hrr"
	FlagTimeMidpointSplit EstimatedFlag = "time_midpoint_split"
)

// SuppressReason is the closed set of reasons the trust gate withholds
// directional interpretation of a field.
type SuppressReason string

const (
	SuppressInsufficientSamples SuppressReason = "insufficient_samples"
	SuppressChannelMissing      SuppressReason = "source_channel_missing"
	SuppressLowTierConfidence   SuppressReason = "low_tier_confidence"
	SuppressStreamRelative      SuppressReason = "stream_relative_only"
	SuppressPlanIncomplete      SuppressReason = "plan_incomplete"
)

// ResultField names a field of the result capable of carrying directional
// interpretation, for suppression bookkeeping.
type ResultField string

const (
	FieldCardiacDrift  ResultField = "drift.cardiac_drift_pct"
	FieldPaceDrift     ResultField = "drift.pace_drift_pct"
	FieldCadenceTrend  ResultField = "drift.cadence_trend_bpm_per_km"
	FieldMomentContext ResultField = "moments.context"
	FieldPlanVariance  ResultField = "plan_comparison.deltas"
)

// Suppression tags one result field whose numeric fact remains visible but
// whose directional interpretation is withheld downstream.
type Suppression struct {
	Field  ResultField    `json:"field"`
	Reason SuppressReason `json:"suppressed_reason"`
}

// StreamAnalysisResult is the engine's sole successful return value. It is
// immutable once returned and shares no state with the caller's inputs.
type StreamAnalysisResult struct {
	Segments           []Segment       `json:"segments"`
	Drift              DriftMetrics    `json:"drift"`
	Moments            []Moment        `json:"moments"`
	PlanComparison     *PlanComparison `json:"plan_comparison,omitempty"`
	ChannelsPresent    []Channel       `json:"channels_present"`
	ChannelsMissing    []Channel       `json:"channels_missing"`
	PointCount         int             `json:"point_count"`
	Confidence         float64         `json:"confidence"`
	TierUsed           Tier            `json:"tier_used"`
	EstimatedFlags     []EstimatedFlag `json:"estimated_flags,omitempty"`
	CrossRunComparable bool            `json:"cross_run_comparable"`
	Suppressions       []Suppression   `json:"suppressions,omitempty"`
}

// Input bundles everything one analysis call consumes. Points are required;
// Physiology and Plan may be nil. RequirePlan makes a missing plan an error
// instead of a nil comparison.
type Input struct {
	Points      []StreamPoint
	Physiology  *PhysiologyContext
	Plan        *PlanSummary
	RequirePlan bool
}
