// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Camera      CameraConfig      `yaml:"camera"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Interaction InteractionConfig `yaml:"interaction"`
	Repulse     RepulseConfig     `yaml:"repulse"`
	Impulse     ImpulseConfig     `yaml:"impulse"`
	Wave        WaveConfig        `yaml:"wave"`
	DepthKick   DepthKickConfig   `yaml:"depth_kick"`
	Model       ModelConfig       `yaml:"model"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// CameraConfig holds the perspective camera parameters.
type CameraConfig struct {
	FOV      float64 `yaml:"fov"`      // vertical field of view, degrees
	Distance float64 `yaml:"distance"` // eye distance from the origin
	Near     float64 `yaml:"near"`
	Far      float64 `yaml:"far"`
}

// PhysicsConfig holds the integrator parameters shared by all policies.
type PhysicsConfig struct {
	Damping float64 `yaml:"damping"` // per-frame velocity multiplier, must be in (0,1)
	Spring  float64 `yaml:"spring"`  // restoring force coefficient toward rest position
}

// InteractionConfig selects the force-field policy and pointer hit testing.
type InteractionConfig struct {
	Policy     string  `yaml:"policy"`      // repulse | impulse | wave | depth_kick
	PickRadius float64 `yaml:"pick_radius"` // ray-to-particle hit distance in world units
}

// RepulseConfig holds the directed-repulsion (screen-space) policy parameters.
type RepulseConfig struct {
	Radius         float64 `yaml:"radius"`          // influence radius in screen pixels
	Strength       float64 `yaml:"strength"`        // base force multiplier K
	PushMultiplier float64 `yaml:"push_multiplier"` // extra gain on the pressed push direction
	Drag           float64 `yaml:"drag"`            // pointer-velocity contribution
	Jitter         float64 `yaml:"jitter"`          // z perturbation while pressed
	HoverScale     float64 `yaml:"hover_scale"`     // jitter scale while hovering (vs pressed)
}

// ImpulseConfig holds the impulse-with-decay (ray-cast) policy parameters.
type ImpulseConfig struct {
	Radius   float64 `yaml:"radius"` // influence radius in world units
	Strength float64 `yaml:"strength"`
	Ease     float64 `yaml:"ease"`    // per-frame lerp factor toward rest+offset, in (0,1)
	Decay    float64 `yaml:"decay"`   // per-frame offset multiplier, in (0,1)
	Jitter   float64 `yaml:"jitter"`  // random perturbation of the push direction
	Epsilon  float64 `yaml:"epsilon"` // squared-magnitude cutoff for dropping an offset
}

// WaveConfig holds the continuous wave-field (ray-cast) policy parameters.
type WaveConfig struct {
	Radius      float64 `yaml:"radius"`
	Strength    float64 `yaml:"strength"`
	WaveSpeed   float64 `yaml:"wave_speed"` // radial phase velocity of the wave term
	Swirl       float64 `yaml:"swirl"`      // pointer-velocity swirl contribution
	Turbulence  float64 `yaml:"turbulence"` // per-particle turbulence contribution
	Magnetic    float64 `yaml:"magnetic"`   // restoring coefficient (overrides physics.spring)
	BreathAmp   float64 `yaml:"breath_amp"` // idle breathing displacement amplitude
	BreathSpeed float64 `yaml:"breath_speed"`
}

// DepthKickConfig holds the depth-weighted single-shot push policy parameters.
type DepthKickConfig struct {
	Radius           float64 `yaml:"radius"`
	Strength         float64 `yaml:"strength"`
	DepthCoefficient float64 `yaml:"depth_coefficient"` // camera-distance falloff
	Spring           float64 `yaml:"spring"`            // pull-back for displaced particles
	RestTolerance    float64 `yaml:"rest_tolerance"`    // snap-to-rest distance threshold
	SpeedTolerance   float64 `yaml:"speed_tolerance"`   // snap-to-rest speed threshold
}

// ModelConfig holds the vertex source parameters.
type ModelConfig struct {
	Source    string  `yaml:"source"` // sphere | grid | csv
	Path      string  `yaml:"path"`   // vertex CSV for source=csv
	Count     int     `yaml:"count"`  // particle count for generated shapes
	Radius    float64 `yaml:"radius"` // sphere radius / grid extent
	NoiseAmp  float64 `yaml:"noise_amp"`
	NoiseFreq float64 `yaml:"noise_freq"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // fixed per-frame timestep as float32
	ScreenW32 float32
	ScreenH32 float32
	Damping32 float32
	Spring32  float32
}

// DT is the fixed simulation timestep in seconds.
const DT = 1.0 / 60.0

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations that violate the convergence invariants.
// Damping at or above 1 lets energy grow without bound, so it is a hard error
// rather than something the integrator clamps silently.
func (c *Config) Validate() error {
	// A zero dimension turns the camera aspect ratio into NaN, which then
	// poisons every projection.
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen dimensions must be > 0, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Physics.Damping <= 0 || c.Physics.Damping >= 1 {
		return fmt.Errorf("physics.damping must be in (0,1), got %v", c.Physics.Damping)
	}
	if c.Physics.Spring < 0 {
		return fmt.Errorf("physics.spring must be >= 0, got %v", c.Physics.Spring)
	}
	if c.Impulse.Ease <= 0 || c.Impulse.Ease >= 1 {
		return fmt.Errorf("impulse.ease must be in (0,1), got %v", c.Impulse.Ease)
	}
	if c.Impulse.Decay <= 0 || c.Impulse.Decay >= 1 {
		return fmt.Errorf("impulse.decay must be in (0,1), got %v", c.Impulse.Decay)
	}
	if c.Impulse.Epsilon <= 0 {
		return fmt.Errorf("impulse.epsilon must be > 0, got %v", c.Impulse.Epsilon)
	}
	for _, r := range []struct {
		name  string
		value float64
	}{
		{"repulse.radius", c.Repulse.Radius},
		{"impulse.radius", c.Impulse.Radius},
		{"wave.radius", c.Wave.Radius},
		{"depth_kick.radius", c.DepthKick.Radius},
		{"interaction.pick_radius", c.Interaction.PickRadius},
	} {
		if r.value <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", r.name, r.value)
		}
	}
	switch c.Interaction.Policy {
	case "repulse", "impulse", "wave", "depth_kick":
	default:
		return fmt.Errorf("interaction.policy must be one of repulse, impulse, wave, depth_kick; got %q", c.Interaction.Policy)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.Damping32 = float32(c.Physics.Damping)
	c.Derived.Spring32 = float32(c.Physics.Spring)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
