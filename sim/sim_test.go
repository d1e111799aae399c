package sim

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/config"
)

// quietConfig returns a small arena with fixed genomes and a frozen energy
// economy (no upkeep, no intake), so tests can reason about energy exactly.
func quietConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Width = 100
	cfg.World.Height = 100
	cfg.Population.Initial = 10
	cfg.Population.InitialEnergy = 50

	cfg.Traits.Speed = config.TraitRange{Min: 1, Max: 1}
	cfg.Traits.Size = config.TraitRange{Min: 5, Max: 5}
	cfg.Traits.Efficiency = config.TraitRange{Min: 1, Max: 1}
	cfg.Traits.ReproductionThreshold = config.TraitRange{Min: 150, Max: 150}
	cfg.Traits.Aggression = config.TraitRange{Min: 0, Max: 0}
	cfg.Traits.MutationRate = config.TraitRange{Min: 0.01, Max: 0.01}

	cfg.Energy.SizeCost = 0
	cfg.Energy.MoveCost = 0
	cfg.Energy.IntakeRate = 0
	cfg.Energy.MaxAge = 0

	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width = 0

	if _, err := New(cfg, 1); err == nil {
		t.Fatal("expected error for zero-width arena")
	}
}

func TestEmptyPopulationStaysEmpty(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 0

	s, err := New(cfg, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		stats := s.Tick()
		if stats.Population != 0 || stats.Births != 0 || stats.Deaths != 0 {
			t.Fatalf("tick %d: empty population produced activity: %+v", i+1, stats)
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestFoundersSpawnInsideArena(t *testing.T) {
	cfg := quietConfig()
	s, err := New(cfg, 42)
	if err != nil {
		t.Fatal(err)
	}

	views := s.Organisms()
	if len(views) != cfg.Population.Initial {
		t.Fatalf("founders = %d, want %d", len(views), cfg.Population.Initial)
	}

	seen := make(map[uint64]bool)
	for _, v := range views {
		if v.X < 0 || v.X > 100 || v.Y < 0 || v.Y > 100 {
			t.Errorf("founder %d outside arena at (%g, %g)", v.ID, v.X, v.Y)
		}
		if v.Energy != 50 {
			t.Errorf("founder %d energy = %g, want 50", v.ID, v.Energy)
		}
		if v.Generation != 0 {
			t.Errorf("founder %d generation = %d, want 0", v.ID, v.Generation)
		}
		if seen[v.ID] {
			t.Errorf("duplicate organism id %d", v.ID)
		}
		seen[v.ID] = true
	}
}

func TestReproductionAtThreshold(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.InitialEnergy = 60
	cfg.Traits.ReproductionThreshold = config.TraitRange{Min: 50, Max: 50}

	s, err := New(cfg, 7)
	if err != nil {
		t.Fatal(err)
	}

	stats := s.Tick()

	if stats.Births != 10 {
		t.Fatalf("births = %d, want 10 (every founder above threshold)", stats.Births)
	}
	if stats.Population != 20 {
		t.Fatalf("population = %d, want 20", stats.Population)
	}
	if stats.GenerationMax != 1 {
		t.Errorf("generation max = %d, want 1", stats.GenerationMax)
	}

	// Cost = 50 * 0.7 = 35, so parents hold 25 and children 35 * 0.6 = 21.
	var parents, children int
	for _, v := range s.Organisms() {
		switch v.Generation {
		case 0:
			parents++
			if math.Abs(float64(v.Energy)-25) > 1e-3 {
				t.Errorf("parent energy = %g, want 25", v.Energy)
			}
		case 1:
			children++
			if math.Abs(float64(v.Energy)-21) > 1e-3 {
				t.Errorf("child energy = %g, want 21", v.Energy)
			}
			if v.Age != 0 {
				t.Errorf("newborn age = %d, want 0 (not stepped in birth tick)", v.Age)
			}
		}
	}
	if parents != 10 || children != 10 {
		t.Errorf("parents/children = %d/%d, want 10/10", parents, children)
	}
}

func TestStarvationRemovesInOneTick(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.InitialEnergy = 1
	cfg.Energy.SizeCost = 1 // upkeep = 5 against energy 1

	s, err := New(cfg, 3)
	if err != nil {
		t.Fatal(err)
	}

	stats := s.Tick()

	if stats.Population != 0 {
		t.Errorf("population = %d, want 0 after starvation tick", stats.Population)
	}
	if stats.Deaths != 10 {
		t.Errorf("deaths = %d, want 10", stats.Deaths)
	}
	if stats.Starved != 10 {
		t.Errorf("starved total = %d, want 10", stats.Starved)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestExtinctionIsTerminal(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.InitialEnergy = 1
	cfg.Energy.SizeCost = 1

	s, err := New(cfg, 3)
	if err != nil {
		t.Fatal(err)
	}

	s.Tick()
	for i := 0; i < 5; i++ {
		stats := s.Tick()
		if stats.Population != 0 || stats.Births != 0 {
			t.Fatalf("post-extinction tick produced organisms: %+v", stats)
		}
	}
}

func TestPassiveCrowdNoEnergyTransfer(t *testing.T) {
	cfg := quietConfig()
	cfg.World.Width = 30 // crowded so everyone is in contest reach
	cfg.World.Height = 30

	s, err := New(cfg, 11)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		s.Tick()
		for _, v := range s.Organisms() {
			if v.Energy != 50 {
				t.Fatalf("tick %d: organism %d energy = %g, want exactly 50 (no upkeep, no contests)",
					i+1, v.ID, v.Energy)
			}
		}
	}
}

func TestMaxAgeDeath(t *testing.T) {
	cfg := quietConfig()
	cfg.Energy.MaxAge = 3

	s, err := New(cfg, 5)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		stats := s.Tick()
		if stats.Population != 10 {
			t.Fatalf("tick %d: population = %d, want 10 (age <= max)", i+1, stats.Population)
		}
	}

	stats := s.Tick()
	if stats.Population != 0 {
		t.Errorf("population = %d, want 0 once age exceeds max", stats.Population)
	}
	if stats.DiedOfAge != 10 {
		t.Errorf("old-age total = %d, want 10", stats.DiedOfAge)
	}
}

func TestPopulationAccounting(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width = 200
	cfg.World.Height = 200
	cfg.Population.Initial = 30

	s, err := New(cfg, 99)
	if err != nil {
		t.Fatal(err)
	}

	prev := s.Len()
	var prevBirths, prevDeaths uint64

	for i := 0; i < 200; i++ {
		stats := s.Tick()

		if stats.Population != prev+stats.Births-stats.Deaths {
			t.Fatalf("tick %d: population %d != %d + %d births - %d deaths",
				i+1, stats.Population, prev, stats.Births, stats.Deaths)
		}
		if stats.Population != s.Len() {
			t.Fatalf("tick %d: snapshot population %d disagrees with Len() %d",
				i+1, stats.Population, s.Len())
		}
		if stats.TotalBirths < prevBirths || stats.TotalDeaths < prevDeaths {
			t.Fatalf("tick %d: cumulative counters decreased", i+1)
		}

		for _, v := range s.Organisms() {
			if v.Energy <= 0 {
				t.Fatalf("tick %d: live organism %d with energy %g", i+1, v.ID, v.Energy)
			}
			if !v.Genome.InBounds() {
				t.Fatalf("tick %d: organism %d genome out of bounds: %+v", i+1, v.ID, v.Genome)
			}
		}

		prev = stats.Population
		prevBirths = stats.TotalBirths
		prevDeaths = stats.TotalDeaths
	}
}

func TestUniqueIDsAcrossRun(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width = 150
	cfg.World.Height = 150
	cfg.Population.Initial = 20

	s, err := New(cfg, 13)
	if err != nil {
		t.Fatal(err)
	}

	// Identities of removed organisms must never be reissued, so every id
	// ever observed maps to exactly one generation.
	genByID := make(map[uint64]int32)

	record := func() {
		for _, v := range s.Organisms() {
			if g, ok := genByID[v.ID]; ok && g != v.Generation {
				t.Fatalf("id %d reused across organisms (gen %d then %d)", v.ID, g, v.Generation)
			}
			genByID[v.ID] = v.Generation
		}
	}

	record()
	for i := 0; i < 100; i++ {
		s.Tick()
		record()
	}
}

func TestDeterministicRuns(t *testing.T) {
	cfg1 := config.Default()
	cfg1.Population.Initial = 25
	cfg2 := config.Default()
	cfg2.Population.Initial = 25

	a, err := New(cfg1, 2024)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(cfg2, 2024)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		sa := a.Tick()
		sb := b.Tick()
		if sa != sb {
			t.Fatalf("tick %d: same seed diverged:\n%+v\n%+v", i+1, sa, sb)
		}
	}
}

func TestCapacityCapHoldsPopulation(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Max = 10
	cfg.Population.InitialEnergy = 100
	cfg.Traits.ReproductionThreshold = config.TraitRange{Min: 50, Max: 50}

	s, err := New(cfg, 21)
	if err != nil {
		t.Fatal(err)
	}

	stats := s.Tick()

	if stats.Population != 10 {
		t.Errorf("population = %d, want 10 (at capacity)", stats.Population)
	}
	if stats.Births != 0 {
		t.Errorf("births = %d, want 0 at capacity", stats.Births)
	}

	// The attempt still costs the parent: 100 - 50*0.7 = 65.
	for _, v := range s.Organisms() {
		if math.Abs(float64(v.Energy)-65) > 1e-3 {
			t.Errorf("organism %d energy = %g, want 65 (birth cost charged despite cap)", v.ID, v.Energy)
		}
	}
}

func TestNeighborIndexTracksMovedOrganisms(t *testing.T) {
	cfg := quietConfig()
	cfg.Traits.Speed = config.TraitRange{Min: 5, Max: 5}
	cfg.Spatial.GridCellSize = 1 // cells far smaller than one tick of travel

	s, err := New(cfg, 17)
	if err != nil {
		t.Fatal(err)
	}

	s.Tick()

	// After a tick every organism must be discoverable from its own current
	// position with a tiny radius. An index built before the move phase
	// would leave fast movers filed several cells away from where they
	// actually are, hiding them from contest reach checks.
	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, org, _ := query.Get()

		found := s.grid.QueryRadiusInto(nil, pos.X, pos.Y, 0.5, ecs.Entity{}, s.posMap)
		ok := false
		for _, n := range found {
			if n.E == entity {
				ok = true
				break
			}
		}
		if !ok {
			t.Fatalf("organism %d at (%g, %g) missing from its own grid cell", org.ID, pos.X, pos.Y)
		}
	}
}

func TestSpeedMultiplierClamped(t *testing.T) {
	s, err := New(quietConfig(), 1)
	if err != nil {
		t.Fatal(err)
	}

	s.SetSpeedMultiplier(100)
	if got := s.SpeedMultiplier(); got != config.MaxSpeedMultiplier {
		t.Errorf("multiplier = %g, want clamp to %g", got, config.MaxSpeedMultiplier)
	}

	s.SetSpeedMultiplier(0.001)
	if got := s.SpeedMultiplier(); got != config.MinSpeedMultiplier {
		t.Errorf("multiplier = %g, want clamp to %g", got, config.MinSpeedMultiplier)
	}
}
