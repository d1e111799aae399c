// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/petri/genome"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// A loaded Config is owned by the caller and passed to sim.New; there is no
// process-wide instance, so independent simulations can run side by side.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Traits       TraitsConfig       `yaml:"traits"`
	Energy       EnergyConfig       `yaml:"energy"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Interaction  InteractionConfig  `yaml:"interaction"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Resource     ResourceConfig     `yaml:"resource"`
	Spatial      SpatialConfig      `yaml:"spatial"`
	Driver       DriverConfig       `yaml:"driver"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
}

// WorldConfig holds the arena dimensions in world units.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PopulationConfig holds population parameters.
// Max of 0 means no capacity cap; when the cap is reached, reproduction
// attempts still pay their energy cost but produce no offspring.
type PopulationConfig struct {
	Initial       int     `yaml:"initial"`
	Max           int     `yaml:"max"`
	InitialEnergy float64 `yaml:"initial_energy"`
}

// TraitRange is a [min, max] interval in YAML form.
type TraitRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// TraitsConfig holds the founder sampling ranges per heritable trait.
// Each range must lie within the trait's hard bounds in package genome.
type TraitsConfig struct {
	Speed                 TraitRange `yaml:"speed"`
	Size                  TraitRange `yaml:"size"`
	Efficiency            TraitRange `yaml:"efficiency"`
	ReproductionThreshold TraitRange `yaml:"reproduction_threshold"`
	Aggression            TraitRange `yaml:"aggression"`
	MutationRate          TraitRange `yaml:"mutation_rate"`
}

// EnergyConfig holds the metabolic economy.
// Upkeep per tick = (size*size_cost + speed*move_cost) / efficiency.
// Intake per tick = resource(x,y) * intake_rate * efficiency.
type EnergyConfig struct {
	SizeCost   float64 `yaml:"size_cost"`
	MoveCost   float64 `yaml:"move_cost"`
	IntakeRate float64 `yaml:"intake_rate"`
	MaxAge     int     `yaml:"max_age"` // ticks; 0 disables old-age death
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	SigmaFrac float64 `yaml:"sigma_frac"` // delta stddev as fraction of trait range
}

// InteractionConfig holds the pairwise contest parameters.
// A contest fires only when both parties exceed the aggression threshold
// and are closer than the sum of their sizes.
type InteractionConfig struct {
	AggressionThreshold float64 `yaml:"aggression_threshold"`
	WinnerGain          float64 `yaml:"winner_gain"` // fraction of loser's energy gained
	LoserLoss           float64 `yaml:"loser_loss"`  // fraction of loser's energy lost
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	BirthCostFrac   float64 `yaml:"birth_cost_frac"`   // cost = threshold * this
	ChildEnergyFrac float64 `yaml:"child_energy_frac"` // child energy = cost * this
	MaturityAge     int     `yaml:"maturity_age"`      // ticks; 0 = energy gate only
	SpawnOffset     float64 `yaml:"spawn_offset"`      // max offspring displacement
}

// ResourceConfig holds the grazing field parameters.
type ResourceConfig struct {
	CellSize    float64 `yaml:"cell_size"`
	NoiseScale  float64 `yaml:"noise_scale"`
	RegenRate   float64 `yaml:"regen_rate"`
	MaxCapacity float64 `yaml:"max_capacity"`
}

// SpatialConfig holds the neighbor-lookup grid parameters.
type SpatialConfig struct {
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// DriverConfig holds cadence settings for the external driver.
// The multiplier scales how often the driver calls Tick; it never changes
// what a tick does.
type DriverConfig struct {
	BaseTickRate    int     `yaml:"base_tick_rate"` // ticks per second at 1.0x
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
}

// TelemetryConfig holds trend-output parameters.
type TelemetryConfig struct {
	WindowTicks int `yaml:"window_ticks"`
}

// Effective speed-multiplier range. Cadence only: outside this range
// playback would either starve the display or spin the driver.
const (
	MinSpeedMultiplier = 0.1
	MaxSpeedMultiplier = 5.0
)

// Load reads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only the embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct; only fields present in the file
		// overwrite defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Validate rejects out-of-range parameters before a simulation is built.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world: dimensions must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.Population.Initial < 0 {
		return fmt.Errorf("population: initial size must not be negative, got %d", c.Population.Initial)
	}
	if c.Population.Max < 0 {
		return fmt.Errorf("population: max must not be negative, got %d", c.Population.Max)
	}
	if c.Population.InitialEnergy <= 0 {
		return fmt.Errorf("population: initial energy must be positive, got %g", c.Population.InitialEnergy)
	}

	ranges := []struct {
		name   string
		r      TraitRange
		bounds genome.Range
	}{
		{"speed", c.Traits.Speed, genome.SpeedBounds},
		{"size", c.Traits.Size, genome.SizeBounds},
		{"efficiency", c.Traits.Efficiency, genome.EfficiencyBounds},
		{"reproduction_threshold", c.Traits.ReproductionThreshold, genome.ReproThresholdBounds},
		{"aggression", c.Traits.Aggression, genome.AggressionBounds},
		{"mutation_rate", c.Traits.MutationRate, genome.MutationRateBounds},
	}
	for _, tr := range ranges {
		if tr.r.Min > tr.r.Max {
			return fmt.Errorf("traits.%s: inverted range [%g, %g]", tr.name, tr.r.Min, tr.r.Max)
		}
		if !tr.bounds.Contains(tr.r.Min) || !tr.bounds.Contains(tr.r.Max) {
			return fmt.Errorf("traits.%s: range [%g, %g] outside hard bounds [%g, %g]",
				tr.name, tr.r.Min, tr.r.Max, tr.bounds.Min, tr.bounds.Max)
		}
	}

	if c.Energy.SizeCost < 0 || c.Energy.MoveCost < 0 || c.Energy.IntakeRate < 0 {
		return fmt.Errorf("energy: costs and intake rate must not be negative")
	}
	if c.Energy.MaxAge < 0 {
		return fmt.Errorf("energy: max_age must not be negative, got %d", c.Energy.MaxAge)
	}
	if c.Mutation.SigmaFrac <= 0 {
		return fmt.Errorf("mutation: sigma_frac must be positive, got %g", c.Mutation.SigmaFrac)
	}
	if c.Interaction.AggressionThreshold < 0 || c.Interaction.AggressionThreshold > 1 {
		return fmt.Errorf("interaction: aggression_threshold must be in [0,1], got %g", c.Interaction.AggressionThreshold)
	}
	if c.Interaction.WinnerGain < 0 || c.Interaction.WinnerGain > 1 {
		return fmt.Errorf("interaction: winner_gain must be in [0,1], got %g", c.Interaction.WinnerGain)
	}
	if c.Interaction.LoserLoss < 0 || c.Interaction.LoserLoss > 1 {
		return fmt.Errorf("interaction: loser_loss must be in [0,1], got %g", c.Interaction.LoserLoss)
	}
	if c.Reproduction.BirthCostFrac <= 0 || c.Reproduction.BirthCostFrac > 1 {
		return fmt.Errorf("reproduction: birth_cost_frac must be in (0,1], got %g", c.Reproduction.BirthCostFrac)
	}
	if c.Reproduction.ChildEnergyFrac <= 0 || c.Reproduction.ChildEnergyFrac > 1 {
		return fmt.Errorf("reproduction: child_energy_frac must be in (0,1], got %g", c.Reproduction.ChildEnergyFrac)
	}
	if c.Reproduction.MaturityAge < 0 {
		return fmt.Errorf("reproduction: maturity_age must not be negative, got %d", c.Reproduction.MaturityAge)
	}
	if c.Reproduction.SpawnOffset < 0 {
		return fmt.Errorf("reproduction: spawn_offset must not be negative, got %g", c.Reproduction.SpawnOffset)
	}
	if c.Resource.CellSize <= 0 {
		return fmt.Errorf("resource: cell_size must be positive, got %g", c.Resource.CellSize)
	}
	if c.Resource.NoiseScale <= 0 {
		return fmt.Errorf("resource: noise_scale must be positive, got %g", c.Resource.NoiseScale)
	}
	if c.Resource.RegenRate < 0 {
		return fmt.Errorf("resource: regen_rate must not be negative, got %g", c.Resource.RegenRate)
	}
	if c.Resource.MaxCapacity <= 0 {
		return fmt.Errorf("resource: max_capacity must be positive, got %g", c.Resource.MaxCapacity)
	}
	if c.Spatial.GridCellSize <= 0 {
		return fmt.Errorf("spatial: grid_cell_size must be positive, got %g", c.Spatial.GridCellSize)
	}
	if c.Driver.BaseTickRate <= 0 {
		return fmt.Errorf("driver: base_tick_rate must be positive, got %d", c.Driver.BaseTickRate)
	}
	if c.Driver.SpeedMultiplier < MinSpeedMultiplier || c.Driver.SpeedMultiplier > MaxSpeedMultiplier {
		return fmt.Errorf("driver: speed_multiplier must be in [%g, %g], got %g",
			MinSpeedMultiplier, MaxSpeedMultiplier, c.Driver.SpeedMultiplier)
	}
	if c.Telemetry.WindowTicks < 1 {
		return fmt.Errorf("telemetry: window_ticks must be at least 1, got %d", c.Telemetry.WindowTicks)
	}

	return nil
}

// InitRanges converts the trait section into founder sampling ranges.
func (c *Config) InitRanges() genome.InitRanges {
	return genome.InitRanges{
		Speed:          genome.Range{Min: c.Traits.Speed.Min, Max: c.Traits.Speed.Max},
		Size:           genome.Range{Min: c.Traits.Size.Min, Max: c.Traits.Size.Max},
		Efficiency:     genome.Range{Min: c.Traits.Efficiency.Min, Max: c.Traits.Efficiency.Max},
		ReproThreshold: genome.Range{Min: c.Traits.ReproductionThreshold.Min, Max: c.Traits.ReproductionThreshold.Max},
		Aggression:     genome.Range{Min: c.Traits.Aggression.Min, Max: c.Traits.Aggression.Max},
		MutationRate:   genome.Range{Min: c.Traits.MutationRate.Min, Max: c.Traits.MutationRate.Max},
	}
}

// MutatePolicy converts the mutation section into a genome policy.
func (c *Config) MutatePolicy() genome.MutatePolicy {
	return genome.MutatePolicy{SigmaFrac: c.Mutation.SigmaFrac}
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
