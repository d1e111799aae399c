package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/genome"
	"github.com/pthm-cable/petri/systems"
	"github.com/pthm-cable/petri/telemetry"
)

// Tick advances the simulation by one step and returns the statistics
// snapshot. Phase order: move, metabolize, interact, reproduce-decision,
// death-decision; removals and insertions are applied atomically at the
// end. Each phase completes over the whole population before the next
// begins, and cross-organism effects (contest deltas, offspring) are
// buffered until their phase is fully decided, so iteration order never
// changes an outcome. Tick always completes and always returns a snapshot,
// including at population zero.
func (s *Simulation) Tick() telemetry.TickStats {
	s.tick++

	s.field.Regen()

	s.phaseMove()
	s.rebuildGrid()
	s.phaseMetabolize()
	s.phaseInteract()
	births := s.phaseReproduce()
	s.phaseAgeAndDeath()

	deaths := s.applyRemovals()
	s.applyBirths(births)

	return s.snapshot(len(births), deaths)
}

// rebuildGrid indexes all live organisms at their post-move positions.
// It runs after the move phase and before the interact phase, the only
// reader, so candidate cells and contest distances agree even when a tick
// of travel spans several grid cells.
func (s *Simulation) rebuildGrid() {
	s.grid.Clear()

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, energy, _, _ := query.Get()
		if energy.Alive {
			s.grid.Insert(entity, pos.X, pos.Y)
		}
	}
}

// phaseMove advances every organism by its speed along its heading,
// reflecting off the arena walls.
func (s *Simulation) phaseMove() {
	query := s.filter.Query()
	for query.Next() {
		pos, heading, energy, _, g := query.Get()
		if !energy.Alive {
			continue
		}
		systems.Move(s.rng, pos, heading, float32(g.Speed), s.width, s.height)
	}
}

// phaseMetabolize charges each organism its upkeep and lets it graze from
// the resource field at its position. Grazing resolves in stable entity
// order and is bounded by what the cell holds; with the field regenerating
// every tick this only matters in fully grazed-down cells.
func (s *Simulation) phaseMetabolize() {
	intakeRate := s.cfg.Energy.IntakeRate

	query := s.filter.Query()
	for query.Next() {
		pos, _, energy, _, g := query.Get()
		if !energy.Alive {
			continue
		}

		energy.Value -= systems.Upkeep(*g, s.upkeep)

		want := systems.IntakeWant(*g, s.field.Sample(pos.X, pos.Y), intakeRate)
		energy.Value += s.field.Graze(pos.X, pos.Y, want)
	}
}

type energyDelta struct {
	entity ecs.Entity
	delta  float32
}

// phaseInteract resolves aggression-gated contests between organisms
// within reach of each other. All deltas are computed against the energies
// as they stood at phase start, then applied together: an organism
// processed first cannot see a neighbor already drained this phase.
func (s *Simulation) phaseInteract() {
	var deltas []energyDelta

	// Widest possible reach for the candidate query: own size plus the
	// largest size any partner can have.
	maxPartner := float32(genome.SizeBounds.Max)

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, energy, org, g := query.Get()

		if !energy.Alive || energy.Value <= 0 {
			continue
		}
		if g.Aggressiveness <= s.contest.AggressionThreshold {
			continue
		}

		radius := float32(g.Size) + maxPartner
		s.neighborBuf = s.grid.QueryRadiusInto(s.neighborBuf[:0], pos.X, pos.Y, radius, entity, s.posMap)

		for _, n := range s.neighborBuf {
			nOrg := s.orgMap.Get(n.E)
			if nOrg == nil || nOrg.ID <= org.ID {
				continue // each unordered pair resolves exactly once
			}
			nEnergy := s.energyMap.Get(n.E)
			if nEnergy == nil || !nEnergy.Alive || nEnergy.Value <= 0 {
				continue
			}
			nGenome := s.genomeMap.Get(n.E)

			reach := float32(g.Size + nGenome.Size)
			if n.DistSq > reach*reach {
				continue
			}

			out := systems.Contest(
				systems.Contestant{ID: org.ID, Size: g.Size, Speed: g.Speed, Aggression: g.Aggressiveness, Energy: energy.Value},
				systems.Contestant{ID: nOrg.ID, Size: nGenome.Size, Speed: nGenome.Speed, Aggression: nGenome.Aggressiveness, Energy: nEnergy.Value},
				s.contest,
			)
			if out.Fought {
				deltas = append(deltas,
					energyDelta{entity: entity, delta: out.DeltaA},
					energyDelta{entity: n.E, delta: out.DeltaB},
				)
			}
		}
	}

	for _, d := range deltas {
		s.energyMap.Get(d.entity).Value += d.delta
	}
}

// pendingBirth is an offspring decided this tick but not yet part of the
// population; it becomes visible only after the tick's phases complete.
type pendingBirth struct {
	genome     genome.Genome
	x, y       float32
	heading    float32
	energy     float32
	generation int32
}

// phaseReproduce collects offspring from every organism whose energy has
// reached its reproduction threshold. The parent pays the birth cost
// immediately; if the arena is at capacity the cost is still paid and the
// offspring silently discarded.
func (s *Simulation) phaseReproduce() []pendingBirth {
	repro := &s.cfg.Reproduction
	capacity := s.cfg.Population.Max

	var births []pendingBirth

	query := s.filter.Query()
	for query.Next() {
		pos, _, energy, org, g := query.Get()

		if !energy.Alive || energy.Value <= 0 {
			continue
		}
		if float64(energy.Value) < g.ReproductionThreshold {
			continue
		}
		if energy.Age < int32(repro.MaturityAge) {
			continue
		}

		cost := float32(g.ReproductionThreshold * repro.BirthCostFrac)
		energy.Value -= cost

		if capacity > 0 && s.alive+len(births) >= capacity {
			continue // arena full: cost charged, offspring discarded
		}

		offset := float32(repro.SpawnOffset)
		childX := clamp(pos.X+(s.rng.Float32()-0.5)*2*offset, 0, s.width)
		childY := clamp(pos.Y+(s.rng.Float32()-0.5)*2*offset, 0, s.height)

		births = append(births, pendingBirth{
			genome:     g.Mutate(s.rng, s.policy),
			x:          childX,
			y:          childY,
			heading:    s.rng.Float32() * 2 * math.Pi,
			energy:     cost * float32(repro.ChildEnergyFrac),
			generation: org.Generation + 1,
		})
	}

	return births
}

// phaseAgeAndDeath increments ages and marks organisms for removal, noting
// the cause for the statistics.
func (s *Simulation) phaseAgeAndDeath() {
	maxAge := int32(s.cfg.Energy.MaxAge)

	query := s.filter.Query()
	for query.Next() {
		_, _, energy, _, _ := query.Get()
		if !energy.Alive {
			continue
		}

		energy.Age++

		if energy.Value <= 0 {
			energy.Alive = false
			energy.Cause = components.CauseStarvation
		} else if maxAge > 0 && energy.Age > maxAge {
			energy.Alive = false
			energy.Cause = components.CauseOldAge
		}
	}
}

// applyRemovals removes every organism marked dead and returns how many
// were removed this tick. Collection completes before any removal, as the
// world cannot be modified during iteration.
func (s *Simulation) applyRemovals() int {
	type removal struct {
		entity ecs.Entity
		cause  components.DeathCause
	}
	var toRemove []removal

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, energy, _, _ := query.Get()
		if !energy.Alive {
			toRemove = append(toRemove, removal{entity: entity, cause: energy.Cause})
		}
	}

	for _, r := range toRemove {
		if r.cause == components.CauseOldAge {
			s.counters.RecordOldAge()
		} else {
			s.counters.RecordStarvation()
		}
		s.mapper.Remove(r.entity)
		s.alive--
	}

	return len(toRemove)
}

// applyBirths inserts the tick's offspring. Newborns carry a fresh
// monotonic identity and are first stepped on the next tick.
func (s *Simulation) applyBirths(births []pendingBirth) {
	for _, b := range births {
		pos := components.Position{X: b.x, Y: b.y}
		heading := components.Heading{Angle: b.heading}
		energy := components.Energy{Value: b.energy, Alive: true}
		org := components.Organism{ID: s.nextID, Generation: b.generation}
		s.nextID++

		g := b.genome
		s.mapper.NewEntity(&pos, &heading, &energy, &org, &g)
		s.alive++
		s.counters.RecordBirth()
	}
}

// snapshot aggregates the post-tick population into the statistics
// snapshot handed to the display boundary.
func (s *Simulation) snapshot(births, deaths int) telemetry.TickStats {
	s.sampleBuf = s.sampleBuf[:0]

	query := s.filter.Query()
	for query.Next() {
		_, _, energy, org, g := query.Get()
		if !energy.Alive {
			continue
		}
		s.sampleBuf = append(s.sampleBuf, telemetry.TraitSample{
			Genome:     *g,
			Energy:     energy.Value,
			Age:        energy.Age,
			Generation: org.Generation,
		})
	}

	return telemetry.Compute(s.tick, s.sampleBuf, births, deaths, s.counters)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
