package telemetry

// Collector accumulates birth and death events across a telemetry window so
// trend rows report per-window totals instead of single-tick samples.
type Collector struct {
	windowTicks int64
	windowStart int64 // tick at which the current window opened

	births int
	deaths int
}

// NewCollector creates a collector that closes a window every windowTicks
// ticks. A window shorter than one tick is clamped to one.
func NewCollector(windowTicks int) *Collector {
	w := int64(windowTicks)
	if w < 1 {
		w = 1
	}
	return &Collector{windowTicks: w}
}

// Observe folds one tick's events into the current window.
func (c *Collector) Observe(stats TickStats) {
	c.births += stats.Births
	c.deaths += stats.Deaths
}

// ShouldFlush reports whether the window that opened at the last flush is
// complete at the given tick.
func (c *Collector) ShouldFlush(tick int64) bool {
	return tick-c.windowStart >= c.windowTicks
}

// Flush produces the window row and opens the next window. The row carries
// the closing snapshot's population gauges with Births and Deaths replaced
// by the window totals; cumulative counters pass through unchanged.
func (c *Collector) Flush(stats TickStats) TickStats {
	row := stats
	row.Births = c.births
	row.Deaths = c.deaths

	c.births = 0
	c.deaths = 0
	c.windowStart = stats.Tick

	return row
}
