package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/jelly/config"
	"github.com/pthm-cable/jelly/model"
	"github.com/pthm-cable/jelly/render"
	"github.com/pthm-cable/jelly/sim"
	"github.com/pthm-cable/jelly/telemetry"
	"github.com/pthm-cable/jelly/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	policy := flag.String("policy", "", "Force-field policy override (empty = use config)")
	pulse := flag.Bool("pulse", false, "Inject a scripted pointer press (reproducible headless runs)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *policy != "" {
		cfg.Interaction.Policy = *policy
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid policy override", "error", err)
			os.Exit(1)
		}
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	engine, err := sim.New(cfg, rng)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Warn("could not snapshot config", "error", err)
	}

	loadCloud(engine, cfg, rng)

	slog.Info("starting",
		"seed", rngSeed,
		"policy", cfg.Interaction.Policy,
		"particles", engine.Size(),
		"headless", *headless,
	)

	opts := runOptions{
		logStats:  *logStats,
		maxFrames: *maxFrames,
		pulse:     *pulse,
	}
	if *headless {
		runHeadless(engine, cfg, om, opts)
	} else {
		runWindow(engine, cfg, om, rng, opts)
	}
}

type runOptions struct {
	logStats  bool
	maxFrames int
	pulse     bool
}

// loadCloud builds the configured model. An unavailable asset is not fatal:
// the engine runs inert and a reload can recover later.
func loadCloud(engine *sim.Engine, cfg *config.Config, rng *rand.Rand) {
	points, grains, err := model.Build(cfg, rng)
	if err != nil {
		slog.Warn("model unavailable, running inert", "source", cfg.Model.Source, "error", err)
		engine.Load(nil, nil)
		return
	}
	engine.Load(points, grains)
}

// Scripted pulse timing for reproducible headless runs.
const (
	pulsePressFrame   = 60
	pulseReleaseFrame = 70
)

func runHeadless(engine *sim.Engine, cfg *config.Config, om *telemetry.OutputManager, opts runOptions) {
	cx, cy := cfg.Derived.ScreenW32/2, cfg.Derived.ScreenH32/2

	for {
		if opts.pulse {
			switch engine.Frame() {
			case pulsePressFrame:
				engine.Mapper().PointerMove(cx, cy)
				engine.Mapper().PointerDown(cx, cy)
			case pulseReleaseFrame:
				engine.Mapper().PointerUp()
			}
		}

		emitStats(engine, om, opts, engine.Step(config.DT))

		if opts.maxFrames > 0 && engine.Frame() >= opts.maxFrames {
			slog.Info("max frames reached", "frame", engine.Frame())
			break
		}
		if engine.Size() == 0 {
			slog.Info("no particles, nothing to simulate")
			break
		}
	}

	if err := om.WritePositions(engine.Positions()); err != nil {
		slog.Warn("could not write positions", "error", err)
	}
}

func runWindow(engine *sim.Engine, cfg *config.Config, om *telemetry.OutputManager, rng *rand.Rand, opts runOptions) {
	r := render.New(cfg, "Jelly")
	defer r.Close()

	panel := ui.NewPanel(cfg.Derived.ScreenW32-280, 60, 250)

	for !r.ShouldClose() {
		handleKeys(engine, panel, cfg, rng)
		if w, h, ok := r.HandleResize(); ok {
			engine.Resize(w, h)
		}
		render.PollPointer(engine.Mapper())

		emitStats(engine, om, opts, engine.Step(config.DT))
		engine.Perf().RecordFrame()

		r.Frame(engine.Camera(), engine.Positions(), func() {
			panel.Draw(cfg, engine)
			ui.DrawHUD(engine)
		})
		engine.ClearDirty()

		if opts.maxFrames > 0 && engine.Frame() >= opts.maxFrames {
			break
		}
	}

	if err := om.WritePositions(engine.Positions()); err != nil {
		slog.Warn("could not write positions", "error", err)
	}
}

func handleKeys(engine *sim.Engine, panel *ui.Panel, cfg *config.Config, rng *rand.Rand) {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		engine.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		panel.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		loadCloud(engine, cfg, rng)
	}

	for i, name := range []string{"repulse", "impulse", "wave", "depth_kick"} {
		if rl.IsKeyPressed(int32(rl.KeyOne) + int32(i)) {
			if err := engine.SetPolicy(name); err != nil {
				slog.Warn("policy switch failed", "policy", name, "error", err)
			}
		}
	}
}

// emitStats routes a closed telemetry window to slog and the CSV output.
func emitStats(engine *sim.Engine, om *telemetry.OutputManager, opts runOptions, stats *telemetry.WindowStats) {
	if stats == nil {
		return
	}
	if opts.logStats {
		stats.LogStats()
	}
	if err := om.WriteStats(*stats); err != nil {
		slog.Warn("could not write stats", "error", err)
	}
	if err := om.WritePerf(engine.Perf().Stats(), stats.WindowEndFrame); err != nil {
		slog.Warn("could not write perf", "error", err)
	}
}
