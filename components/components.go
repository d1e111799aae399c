// Package components defines the ECS components for the simulation.
package components

// Position is an entity's location within the arena.
type Position struct {
	X, Y float32
}

// Heading is the direction of travel in radians.
type Heading struct {
	Angle float32
}

// Energy tracks an entity's metabolic state.
// Value is in absolute energy units; an organism whose value reaches zero
// is marked for removal at the end of the tick.
type Energy struct {
	Value float32
	Age   int32 // ticks alive
	Alive bool
	Cause DeathCause // set when Alive flips to false
}

// Organism bundles identity and lineage.
// IDs are assigned monotonically by the population manager and never reused.
type Organism struct {
	ID         uint64
	Generation int32 // parent's generation + 1, 0 for founders
}

// DeathCause records why an organism was removed.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseStarvation
	CauseOldAge
)

func (c DeathCause) String() string {
	switch c {
	case CauseStarvation:
		return "starvation"
	case CauseOldAge:
		return "old_age"
	default:
		return "none"
	}
}
