package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/petri/components"
)

// Heading jitter: each tick there is a 10% chance the organism turns by a
// uniform amount in [-0.5, 0.5] radians before stepping.
const (
	turnChance = 0.1
	turnMax    = 0.5
)

// Move advances an organism by its speed along its heading and reflects it
// off the arena walls: the offending heading component is mirrored and the
// coordinate clamped inside the arena. Reflection, not wrap-around, so a
// fast organism near a wall turns back instead of teleporting.
func Move(rng *rand.Rand, pos *components.Position, h *components.Heading, speed, width, height float32) {
	if rng.Float64() < turnChance {
		h.Angle += float32((rng.Float64() - 0.5) * 2 * turnMax)
	}

	sin, cos := math.Sincos(float64(h.Angle))
	pos.X += float32(cos) * speed
	pos.Y += float32(sin) * speed

	if pos.X < 0 || pos.X > width {
		h.Angle = math.Pi - h.Angle
		pos.X = clamp(pos.X, 0, width)
	}
	if pos.Y < 0 || pos.Y > height {
		h.Angle = -h.Angle
		pos.Y = clamp(pos.Y, 0, height)
	}
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
