package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated deformation statistics for a time window.
type WindowStats struct {
	WindowStartFrame int     `csv:"-"`
	WindowEndFrame   int     `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`

	Policy    string `csv:"policy"`
	Particles int    `csv:"particles"`

	// Events during window
	Presses int `csv:"presses"`

	// Displacement distribution (sampled at window end)
	Displaced int     `csv:"displaced"`
	DispMean  float64 `csv:"disp_mean"`
	DispStd   float64 `csv:"disp_std"`
	DispP50   float64 `csv:"disp_p50"`
	DispP90   float64 `csv:"disp_p90"`

	// Running peaks over the window
	PeakDisp  float64 `csv:"peak_disp"`
	PeakSpeed float64 `csv:"peak_speed"`

	// Motion (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	Kinetic   float64 `csv:"kinetic"`
}

// displacedEps is the displacement below which a particle counts as at rest.
const displacedEps = 1e-4

// ComputeDistStats calculates mean, standard deviation, and percentiles from
// a sample of magnitudes. The input is not modified.
func ComputeDistStats(values []float64) (mean, std, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartFrame),
		slog.Int("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.String("policy", s.Policy),
		slog.Int("particles", s.Particles),
		slog.Int("presses", s.Presses),
		slog.Int("displaced", s.Displaced),
		slog.Float64("disp_mean", s.DispMean),
		slog.Float64("disp_std", s.DispStd),
		slog.Float64("disp_p50", s.DispP50),
		slog.Float64("disp_p90", s.DispP90),
		slog.Float64("peak_disp", s.PeakDisp),
		slog.Float64("peak_speed", s.PeakSpeed),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("kinetic", s.Kinetic),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTimeSec,
		"policy", s.Policy,
		"particles", s.Particles,
		"presses", s.Presses,
		"displaced", s.Displaced,
		"disp_mean", s.DispMean,
		"disp_p50", s.DispP50,
		"disp_p90", s.DispP90,
		"peak_disp", s.PeakDisp,
		"peak_speed", s.PeakSpeed,
		"speed_mean", s.SpeedMean,
		"kinetic", s.Kinetic,
	)
}
