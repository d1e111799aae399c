// Package genome defines the heritable trait vector of an organism.
package genome

import "math/rand"

// Range is a closed interval of valid trait values.
type Range struct {
	Min float64
	Max float64
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Span returns the width of the range.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Hard bounds per trait. Every genome value stays within these after any
// mutation; initial ranges from configuration must lie inside them.
var (
	SpeedBounds          = Range{0.1, 5.0}
	SizeBounds           = Range{0.5, 15.0}
	EfficiencyBounds     = Range{0.05, 1.0}
	ReproThresholdBounds = Range{10.0, 150.0}
	AggressionBounds     = Range{0.0, 1.0}
	MutationRateBounds   = Range{0.001, 0.2}
	ColorBounds          = Range{0.0, 255.0}
)

// Genome holds the nine heritable traits. Values are immutable at rest:
// Mutate returns a new genome and never modifies its receiver.
type Genome struct {
	Speed                 float64 // world units moved per tick
	Size                  float64 // upkeep scale and collision footprint
	EnergyEfficiency      float64 // divides upkeep, scales food intake
	ReproductionThreshold float64 // energy gate for reproduction
	Aggressiveness        float64 // contest gate and weighting
	MutationRate          float64 // per-trait mutation probability, itself heritable
	ColorR                float64 // cosmetic, [0,255]
	ColorG                float64
	ColorB                float64
}

// InitRanges holds the uniform sampling ranges for founder genomes.
// Color channels are always drawn from the full [0,255] range.
type InitRanges struct {
	Speed          Range
	Size           Range
	Efficiency     Range
	ReproThreshold Range
	Aggression     Range
	MutationRate   Range
}

// DefaultInitRanges returns the stock founder ranges.
func DefaultInitRanges() InitRanges {
	return InitRanges{
		Speed:          Range{0.5, 3.0},
		Size:           Range{2.0, 8.0},
		Efficiency:     Range{0.3, 1.0},
		ReproThreshold: Range{50.0, 100.0},
		Aggression:     Range{0.0, 1.0},
		MutationRate:   Range{0.01, 0.1},
	}
}

// MutatePolicy controls the size of mutation deltas.
// SigmaFrac is the standard deviation of a perturbation expressed as a
// fraction of the trait's full range.
type MutatePolicy struct {
	SigmaFrac float64
}

// DefaultMutatePolicy returns the stock mutation policy.
func DefaultMutatePolicy() MutatePolicy {
	return MutatePolicy{SigmaFrac: 0.1}
}

// Random produces a founder genome with each trait drawn independently and
// uniformly from its initial range.
func Random(rng *rand.Rand, init InitRanges) Genome {
	return Genome{
		Speed:                 uniform(rng, init.Speed),
		Size:                  uniform(rng, init.Size),
		EnergyEfficiency:      uniform(rng, init.Efficiency),
		ReproductionThreshold: uniform(rng, init.ReproThreshold),
		Aggressiveness:        uniform(rng, init.Aggression),
		MutationRate:          uniform(rng, init.MutationRate),
		ColorR:                uniform(rng, ColorBounds),
		ColorG:                uniform(rng, ColorBounds),
		ColorB:                uniform(rng, ColorBounds),
	}
}

// Mutate returns a child genome. Each trait mutates independently with
// probability equal to the parent's MutationRate; a mutation adds a normal
// delta scaled by the trait's range and the result is clamped to the
// trait's bounds. The coin flip for MutationRate itself uses the
// pre-mutation rate, which is what lets the rate drift across generations.
func (g Genome) Mutate(rng *rand.Rand, policy MutatePolicy) Genome {
	rate := g.MutationRate
	child := g
	child.Speed = mutateTrait(rng, g.Speed, SpeedBounds, rate, policy.SigmaFrac)
	child.Size = mutateTrait(rng, g.Size, SizeBounds, rate, policy.SigmaFrac)
	child.EnergyEfficiency = mutateTrait(rng, g.EnergyEfficiency, EfficiencyBounds, rate, policy.SigmaFrac)
	child.ReproductionThreshold = mutateTrait(rng, g.ReproductionThreshold, ReproThresholdBounds, rate, policy.SigmaFrac)
	child.Aggressiveness = mutateTrait(rng, g.Aggressiveness, AggressionBounds, rate, policy.SigmaFrac)
	child.MutationRate = mutateTrait(rng, g.MutationRate, MutationRateBounds, rate, policy.SigmaFrac)
	child.ColorR = mutateTrait(rng, g.ColorR, ColorBounds, rate, policy.SigmaFrac)
	child.ColorG = mutateTrait(rng, g.ColorG, ColorBounds, rate, policy.SigmaFrac)
	child.ColorB = mutateTrait(rng, g.ColorB, ColorBounds, rate, policy.SigmaFrac)
	return child
}

// InBounds reports whether every trait lies within its hard bounds.
func (g Genome) InBounds() bool {
	return SpeedBounds.Contains(g.Speed) &&
		SizeBounds.Contains(g.Size) &&
		EfficiencyBounds.Contains(g.EnergyEfficiency) &&
		ReproThresholdBounds.Contains(g.ReproductionThreshold) &&
		AggressionBounds.Contains(g.Aggressiveness) &&
		MutationRateBounds.Contains(g.MutationRate) &&
		ColorBounds.Contains(g.ColorR) &&
		ColorBounds.Contains(g.ColorG) &&
		ColorBounds.Contains(g.ColorB)
}

// RGB returns the display color.
func (g Genome) RGB() (r, gr, b uint8) {
	return uint8(g.ColorR), uint8(g.ColorG), uint8(g.ColorB)
}

func uniform(rng *rand.Rand, r Range) float64 {
	return r.Min + rng.Float64()*r.Span()
}

func mutateTrait(rng *rand.Rand, v float64, bounds Range, rate, sigmaFrac float64) float64 {
	if rng.Float64() >= rate {
		return v
	}
	delta := rng.NormFloat64() * sigmaFrac * bounds.Span()
	return bounds.Clamp(v + delta)
}
