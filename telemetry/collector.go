package telemetry

import "math"

// Collector accumulates deformation events within time windows and produces
// WindowStats. Cheap running peaks are updated every frame; distribution
// statistics are sampled once at window end.
type Collector struct {
	windowDurationSec    float64
	windowDurationFrames int
	dt                   float64

	windowStartFrame int

	// Event counters and peaks for the current window
	presses   int
	peakDisp  float64
	peakSpeed float64
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per frame (used for frame-to-time conversion)
//
// The frame count is rounded, not truncated: a dt that carries float
// rounding error (1/60 stored as float32 sits just above the true value)
// must still give exactly windowDurationSec/dt frames.
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	framesPerWindow := int(math.Round(windowDurationSec / dt))
	if framesPerWindow < 1 {
		framesPerWindow = 1
	}

	return &Collector{
		windowDurationSec:    windowDurationSec,
		windowDurationFrames: framesPerWindow,
		dt:                   dt,
	}
}

// RecordPress records a pointer press.
func (c *Collector) RecordPress() {
	c.presses++
}

// ObserveFrame updates the running peaks from this frame's extremes.
func (c *Collector) ObserveFrame(maxDisp, maxSpeed float64) {
	if maxDisp > c.peakDisp {
		c.peakDisp = maxDisp
	}
	if maxSpeed > c.peakSpeed {
		c.peakSpeed = maxSpeed
	}
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int) bool {
	return currentFrame-c.windowStartFrame >= c.windowDurationFrames
}

// Flush produces a WindowStats and resets counters for the next window.
// displacements and speeds are the per-particle magnitudes sampled at window
// end; they are not retained.
func (c *Collector) Flush(currentFrame int, policy string, displacements, speeds []float64) WindowStats {
	displaced := 0
	for _, d := range displacements {
		if d > displacedEps {
			displaced++
		}
	}

	dispMean, dispStd, dispP50, dispP90 := ComputeDistStats(displacements)

	var speedSum, kinetic float64
	for _, v := range speeds {
		speedSum += v
		kinetic += 0.5 * v * v
	}
	var speedMean float64
	if len(speeds) > 0 {
		speedMean = speedSum / float64(len(speeds))
	}

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		SimTimeSec:       float64(currentFrame) * c.dt,

		Policy:    policy,
		Particles: len(displacements),

		Presses: c.presses,

		Displaced: displaced,
		DispMean:  dispMean,
		DispStd:   dispStd,
		DispP50:   dispP50,
		DispP90:   dispP90,

		PeakDisp:  c.peakDisp,
		PeakSpeed: c.peakSpeed,

		SpeedMean: speedMean,
		Kinetic:   kinetic,
	}

	c.windowStartFrame = currentFrame
	c.presses = 0
	c.peakDisp = 0
	c.peakSpeed = 0

	return stats
}

// WindowDurationFrames returns the number of frames per window.
func (c *Collector) WindowDurationFrames() int {
	return c.windowDurationFrames
}
