// Package telemetry aggregates population statistics and writes trend output.
package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/petri/genome"
)

// TraitSample is one organism's frozen state captured for aggregation.
type TraitSample struct {
	Genome     genome.Genome
	Energy     float32
	Age        int32
	Generation int32
}

// Counters holds the cumulative event totals since simulation start.
// They are monotonic non-decreasing over the simulation's lifetime.
type Counters struct {
	Births    uint64
	Deaths    uint64
	Starved   uint64
	DiedOfAge uint64
}

// RecordBirth adds one birth.
func (c *Counters) RecordBirth() {
	c.Births++
}

// RecordStarvation adds one starvation death.
func (c *Counters) RecordStarvation() {
	c.Deaths++
	c.Starved++
}

// RecordOldAge adds one old-age death.
func (c *Counters) RecordOldAge() {
	c.Deaths++
	c.DiedOfAge++
}

// TickStats is the read-only statistics snapshot computed after each tick.
// It is derived from the organism list and the counters; recomputing from
// the same inputs yields identical values.
type TickStats struct {
	Tick       int64 `csv:"tick"`
	Population int   `csv:"population"`

	Births      int    `csv:"births"` // this tick; window total once a Collector flushes
	Deaths      int    `csv:"deaths"` // this tick; window total once a Collector flushes
	TotalBirths uint64 `csv:"births_total"`
	TotalDeaths uint64 `csv:"deaths_total"`
	Starved     uint64 `csv:"starved_total"`
	DiedOfAge   uint64 `csv:"old_age_total"`

	SpeedMean             float64 `csv:"speed_mean"`
	SpeedVar              float64 `csv:"speed_var"`
	SizeMean              float64 `csv:"size_mean"`
	SizeVar               float64 `csv:"size_var"`
	EfficiencyMean        float64 `csv:"efficiency_mean"`
	EfficiencyVar         float64 `csv:"efficiency_var"`
	ReproThresholdMean    float64 `csv:"repro_threshold_mean"`
	ReproThresholdVar     float64 `csv:"repro_threshold_var"`
	AggressionMean        float64 `csv:"aggression_mean"`
	AggressionVar         float64 `csv:"aggression_var"`
	MutationRateMean      float64 `csv:"mutation_rate_mean"`
	MutationRateVar       float64 `csv:"mutation_rate_var"`

	EnergyMean     float64 `csv:"energy_mean"`
	AgeMean        float64 `csv:"age_mean"`
	GenerationMean float64 `csv:"generation_mean"`
	GenerationMax  int32   `csv:"generation_max"`

	Predators  int `csv:"predators"`
	Herbivores int `csv:"herbivores"`
	Omnivores  int `csv:"omnivores"`
}

// Compute builds the snapshot for a tick. Pure aggregation: no engine state
// beyond the arguments participates.
func Compute(tick int64, samples []TraitSample, birthsTick, deathsTick int, c Counters) TickStats {
	s := TickStats{
		Tick:        tick,
		Population:  len(samples),
		Births:      birthsTick,
		Deaths:      deathsTick,
		TotalBirths: c.Births,
		TotalDeaths: c.Deaths,
		Starved:     c.Starved,
		DiedOfAge:   c.DiedOfAge,
	}

	if len(samples) == 0 {
		return s
	}

	n := len(samples)
	speed := make([]float64, n)
	size := make([]float64, n)
	efficiency := make([]float64, n)
	threshold := make([]float64, n)
	aggression := make([]float64, n)
	mutationRate := make([]float64, n)
	energy := make([]float64, n)
	age := make([]float64, n)
	generation := make([]float64, n)

	for i, smp := range samples {
		g := smp.Genome
		speed[i] = g.Speed
		size[i] = g.Size
		efficiency[i] = g.EnergyEfficiency
		threshold[i] = g.ReproductionThreshold
		aggression[i] = g.Aggressiveness
		mutationRate[i] = g.MutationRate
		energy[i] = float64(smp.Energy)
		age[i] = float64(smp.Age)
		generation[i] = float64(smp.Generation)

		if smp.Generation > s.GenerationMax {
			s.GenerationMax = smp.Generation
		}

		switch g.DietClass() {
		case genome.Predator:
			s.Predators++
		case genome.Herbivore:
			s.Herbivores++
		default:
			s.Omnivores++
		}
	}

	s.SpeedMean, s.SpeedVar = meanVar(speed)
	s.SizeMean, s.SizeVar = meanVar(size)
	s.EfficiencyMean, s.EfficiencyVar = meanVar(efficiency)
	s.ReproThresholdMean, s.ReproThresholdVar = meanVar(threshold)
	s.AggressionMean, s.AggressionVar = meanVar(aggression)
	s.MutationRateMean, s.MutationRateVar = meanVar(mutationRate)
	s.EnergyMean = stat.Mean(energy, nil)
	s.AgeMean = stat.Mean(age, nil)
	s.GenerationMean = stat.Mean(generation, nil)

	return s
}

// meanVar returns mean and unbiased sample variance. A population of one
// has zero variance rather than gonum's NaN.
func meanVar(xs []float64) (mean, variance float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) < 2 {
		return mean, 0
	}
	return mean, stat.Variance(xs, nil)
}
