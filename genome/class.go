package genome

// Class buckets organisms by behavioral strategy for display and statistics.
// The boundaries match the contest gate: organisms above the upper bound
// initiate fights, organisms below the lower bound never do.
type Class uint8

const (
	Herbivore Class = iota
	Omnivore
	Predator
)

// Class boundaries on the aggressiveness axis.
const (
	herbivoreMax = 0.3
	predatorMin  = 0.7
)

// DietClass derives the behavioral class from aggressiveness.
func (g Genome) DietClass() Class {
	switch {
	case g.Aggressiveness > predatorMin:
		return Predator
	case g.Aggressiveness < herbivoreMax:
		return Herbivore
	default:
		return Omnivore
	}
}

func (c Class) String() string {
	switch c {
	case Predator:
		return "predator"
	case Herbivore:
		return "herbivore"
	default:
		return "omnivore"
	}
}
