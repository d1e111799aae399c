package systems

// ContestParams configures the aggression-gated pairwise contest.
type ContestParams struct {
	AggressionThreshold float64
	WinnerGain          float64 // fraction of loser's energy the winner gains
	LoserLoss           float64 // fraction of loser's energy the loser loses
}

// Contestant is one party to a potential contest, captured from the frozen
// pre-phase state so iteration order cannot change the outcome.
type Contestant struct {
	ID         uint64
	Size       float64
	Speed      float64
	Aggression float64
	Energy     float32
}

// Outcome holds the pending energy deltas of a contest. Deltas are applied
// by the caller after all pairs have been resolved.
type Outcome struct {
	Fought bool
	DeltaA float32
	DeltaB float32
}

// Contest resolves a pairwise encounter. A fight happens only when both
// parties' aggressiveness exceeds the threshold. The larger size*speed
// product wins; an exact tie goes to the lower organism ID, which keeps the
// rule deterministic for identical genomes. The winner gains WinnerGain and
// the loser loses LoserLoss of the loser's pre-phase energy.
func Contest(a, b Contestant, p ContestParams) Outcome {
	if a.Aggression <= p.AggressionThreshold || b.Aggression <= p.AggressionThreshold {
		return Outcome{}
	}

	aWins := a.Size*a.Speed > b.Size*b.Speed
	if a.Size*a.Speed == b.Size*b.Speed {
		aWins = a.ID < b.ID
	}

	var out Outcome
	out.Fought = true
	if aWins {
		out.DeltaA = b.Energy * float32(p.WinnerGain)
		out.DeltaB = -b.Energy * float32(p.LoserLoss)
	} else {
		out.DeltaB = a.Energy * float32(p.WinnerGain)
		out.DeltaA = -a.Energy * float32(p.LoserLoss)
	}
	return out
}
