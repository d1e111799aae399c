// Package sim implements the population manager: it owns the organism
// collection, runs the tick loop, assigns identities, and produces the
// per-tick statistics snapshot.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/genome"
	"github.com/pthm-cable/petri/systems"
	"github.com/pthm-cable/petri/telemetry"
)

// Simulation is one independent simulation instance. All population
// mutation happens inside Tick on the calling goroutine; there is no
// background work and no shared global state, so multiple simulations can
// run side by side.
type Simulation struct {
	cfg *config.Config
	rng *rand.Rand

	world  *ecs.World
	mapper *ecs.Map5[
		components.Position,
		components.Heading,
		components.Energy,
		components.Organism,
		genome.Genome,
	]
	filter *ecs.Filter5[
		components.Position,
		components.Heading,
		components.Energy,
		components.Organism,
		genome.Genome,
	]

	// Individual component mappers for neighbor lookups.
	posMap    *ecs.Map1[components.Position]
	energyMap *ecs.Map1[components.Energy]
	orgMap    *ecs.Map1[components.Organism]
	genomeMap *ecs.Map1[genome.Genome]

	grid  *systems.SpatialGrid
	field *systems.ResourceField

	width  float32
	height float32

	tick     int64
	nextID   uint64
	alive    int
	counters telemetry.Counters
	speedMul float64

	initRanges genome.InitRanges
	policy     genome.MutatePolicy
	upkeep     systems.UpkeepParams
	contest    systems.ContestParams

	// Scratch buffers reused across ticks.
	neighborBuf []systems.Neighbor
	sampleBuf   []telemetry.TraitSample
}

// New validates the configuration, builds the world, and spawns the founder
// population (random genomes, generation 0). A configuration error means
// the simulation never starts.
func New(cfg *config.Config, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	world := ecs.NewWorld()
	width := float32(cfg.World.Width)
	height := float32(cfg.World.Height)

	s := &Simulation{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Heading,
			components.Energy,
			components.Organism,
			genome.Genome,
		](world),
		filter: ecs.NewFilter5[
			components.Position,
			components.Heading,
			components.Energy,
			components.Organism,
			genome.Genome,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		orgMap:    ecs.NewMap1[components.Organism](world),
		genomeMap: ecs.NewMap1[genome.Genome](world),

		width:  width,
		height: height,
		nextID: 1,

		speedMul:   cfg.Driver.SpeedMultiplier,
		initRanges: cfg.InitRanges(),
		policy:     cfg.MutatePolicy(),
		upkeep: systems.UpkeepParams{
			SizeCost: cfg.Energy.SizeCost,
			MoveCost: cfg.Energy.MoveCost,
		},
		contest: systems.ContestParams{
			AggressionThreshold: cfg.Interaction.AggressionThreshold,
			WinnerGain:          cfg.Interaction.WinnerGain,
			LoserLoss:           cfg.Interaction.LoserLoss,
		},
	}

	s.grid = systems.NewSpatialGrid(width, height, float32(cfg.Spatial.GridCellSize))
	s.field = systems.NewResourceField(width, height,
		float32(cfg.Resource.CellSize),
		cfg.Resource.NoiseScale, cfg.Resource.RegenRate, cfg.Resource.MaxCapacity,
		seed)

	for i := 0; i < cfg.Population.Initial; i++ {
		s.spawnFounder()
	}

	return s, nil
}

// spawnFounder creates a generation-0 organism with a random genome at a
// random position.
func (s *Simulation) spawnFounder() {
	g := genome.Random(s.rng, s.initRanges)
	pos := components.Position{
		X: s.rng.Float32() * s.width,
		Y: s.rng.Float32() * s.height,
	}
	heading := components.Heading{Angle: s.rng.Float32() * 2 * math.Pi}
	energy := components.Energy{
		Value: float32(s.cfg.Population.InitialEnergy),
		Alive: true,
	}
	org := components.Organism{ID: s.nextID, Generation: 0}
	s.nextID++

	s.mapper.NewEntity(&pos, &heading, &energy, &org, &g)
	s.alive++
}

// Len returns the number of live organisms.
func (s *Simulation) Len() int {
	return s.alive
}

// TickCount returns the number of completed ticks.
func (s *Simulation) TickCount() int64 {
	return s.tick
}

// SetSpeedMultiplier stores the playback speed hint for the external
// driver, clamped to the documented effective range. It changes only how
// often the driver should call Tick, never what a tick computes.
func (s *Simulation) SetSpeedMultiplier(x float64) {
	if x < config.MinSpeedMultiplier {
		x = config.MinSpeedMultiplier
	}
	if x > config.MaxSpeedMultiplier {
		x = config.MaxSpeedMultiplier
	}
	s.speedMul = x
}

// SpeedMultiplier returns the current playback speed hint.
func (s *Simulation) SpeedMultiplier() float64 {
	return s.speedMul
}

// OrganismView is a read-only projection of one live organism for the
// display boundary. The display never mutates engine state through it.
type OrganismView struct {
	ID         uint64
	Genome     genome.Genome
	X, Y       float32
	Energy     float32
	Age        int32
	Generation int32
}

// Organisms returns read-only views of all live organisms.
func (s *Simulation) Organisms() []OrganismView {
	views := make([]OrganismView, 0, s.alive)

	query := s.filter.Query()
	for query.Next() {
		pos, _, energy, org, g := query.Get()
		if !energy.Alive {
			continue
		}
		views = append(views, OrganismView{
			ID:         org.ID,
			Genome:     *g,
			X:          pos.X,
			Y:          pos.Y,
			Energy:     energy.Value,
			Age:        energy.Age,
			Generation: org.Generation,
		})
	}

	return views
}
