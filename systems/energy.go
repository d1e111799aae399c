package systems

import "github.com/pthm-cable/petri/genome"

// UpkeepParams holds the metabolic cost coefficients.
type UpkeepParams struct {
	SizeCost float64 // energy per unit of size per tick
	MoveCost float64 // energy per unit of speed per tick
}

// Upkeep returns the per-tick maintenance cost for a genome. Larger and
// faster organisms pay more; efficiency divides the gross cost, so an
// efficient organism keeps more of every unit of food it finds.
func Upkeep(g genome.Genome, p UpkeepParams) float32 {
	gross := g.Size*p.SizeCost + g.Speed*p.MoveCost
	return float32(gross / g.EnergyEfficiency)
}

// IntakeWant returns how much resource a genome tries to graze per tick
// given the local field value. The actual gain is bounded by what the
// field holds; efficiency scales how much of the resource becomes energy.
func IntakeWant(g genome.Genome, fieldValue float32, intakeRate float64) float32 {
	return fieldValue * float32(intakeRate*g.EnergyEfficiency)
}
