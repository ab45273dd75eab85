package main

import (
	"math/rand"

	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/model"
	"github.com/pthm-cable/jelly/sim"
)

// Pulse script and scoring thresholds for one evaluation run.
const (
	pulsePressFrame   = 30
	pulseReleaseFrame = 40

	settleTol = 0.01  // max displacement counting as settled
	speedTol  = 0.005 // max speed counting as settled

	// A parameter set whose pulse moves the cloud less than this is
	// under-responsive and gets penalized.
	responseTarget = 0.05

	// Cap on particle count during evaluation runs, for speed.
	evalMaxParticles = 800
)

// FitnessEvaluator scores parameter vectors by running headless pulse
// simulations. Lower is better: frames until the cloud settles, plus
// penalties for never settling or barely responding.
type FitnessEvaluator struct {
	params  *ParamVector
	frames  int
	seeds   []int64
	baseCfg *config.Config

	lastPeak float64
}

// NewFitnessEvaluator creates an evaluator running each vector once per seed
// for at most frames frames.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:  params,
		frames:  frames,
		seeds:   seeds,
		baseCfg: baseCfg,
	}
}

// LastPeak returns the peak displacement of the most recent evaluation,
// averaged over seeds.
func (f *FitnessEvaluator) LastPeak() float64 {
	return f.lastPeak
}

// Evaluate runs the pulse scenario for every seed and returns the mean
// fitness.
func (f *FitnessEvaluator) Evaluate(raw []float64) float64 {
	var total, peakTotal float64
	for _, seed := range f.seeds {
		fit, peak := f.runOnce(seed, raw)
		total += fit
		peakTotal += peak
	}
	n := float64(len(f.seeds))
	f.lastPeak = peakTotal / n
	return total / n
}

// runOnce simulates a single scripted pulse and scores the response.
func (f *FitnessEvaluator) runOnce(seed int64, raw []float64) (fitness, peak float64) {
	cfg := *f.baseCfg
	cfg.Interaction.Policy = f.params.Policy
	f.params.ApplyToConfig(&cfg, raw)
	if cfg.Model.Count > evalMaxParticles {
		cfg.Model.Count = evalMaxParticles
	}

	rng := rand.New(rand.NewSource(seed))
	engine, err := sim.New(&cfg, rng)
	if err != nil {
		return float64(f.frames) * 10, 0
	}
	points, grains, err := model.Build(&cfg, rng)
	if err != nil {
		return float64(f.frames) * 10, 0
	}
	engine.Load(points, grains)

	cx, cy := cfg.Derived.ScreenW32/2, cfg.Derived.ScreenH32/2
	settleFrame := -1

	for frame := 0; frame < f.frames; frame++ {
		switch frame {
		case pulsePressFrame:
			engine.Mapper().PointerMove(cx, cy)
			engine.Mapper().PointerDown(cx, cy)
		case pulseReleaseFrame:
			engine.Mapper().PointerUp()
		}
		engine.Step(config.DT)

		maxDisp, maxSpeed := engine.Extremes()
		if maxDisp > peak {
			peak = maxDisp
		}
		if frame > pulseReleaseFrame && settleFrame < 0 && maxDisp < settleTol && maxSpeed < speedTol {
			settleFrame = frame
		}
	}

	if settleFrame < 0 {
		// Never settled: max score plus the residual displacement.
		maxDisp, _ := engine.Extremes()
		fitness = float64(f.frames) + 1000*maxDisp
	} else {
		fitness = float64(settleFrame - pulseReleaseFrame)
	}

	if peak < responseTarget {
		fitness += (responseTarget - peak) * 10000
	}
	return fitness, peak
}
