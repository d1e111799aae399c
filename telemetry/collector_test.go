package telemetry

import "testing"

func TestCollectorSumsWindowEvents(t *testing.T) {
	c := NewCollector(3)

	c.Observe(TickStats{Tick: 1, Births: 2, Deaths: 0})
	c.Observe(TickStats{Tick: 2, Births: 0, Deaths: 1})
	c.Observe(TickStats{Tick: 3, Births: 1, Deaths: 1})

	if !c.ShouldFlush(3) {
		t.Fatal("window of 3 ticks should flush at tick 3")
	}

	row := c.Flush(TickStats{Tick: 3, Population: 12, TotalBirths: 3, TotalDeaths: 2})

	if row.Births != 3 || row.Deaths != 2 {
		t.Errorf("window totals = %d births / %d deaths, want 3/2", row.Births, row.Deaths)
	}
	if row.Population != 12 || row.TotalBirths != 3 || row.TotalDeaths != 2 {
		t.Errorf("snapshot gauges not carried through: %+v", row)
	}
}

func TestCollectorResetsAfterFlush(t *testing.T) {
	c := NewCollector(2)

	c.Observe(TickStats{Tick: 1, Births: 5, Deaths: 5})
	c.Observe(TickStats{Tick: 2, Births: 5, Deaths: 5})
	c.Flush(TickStats{Tick: 2})

	if c.ShouldFlush(3) {
		t.Error("window should reopen at the flush tick, not stay due")
	}

	c.Observe(TickStats{Tick: 3, Births: 1})
	c.Observe(TickStats{Tick: 4, Deaths: 2})

	if !c.ShouldFlush(4) {
		t.Fatal("second window should flush at tick 4")
	}
	row := c.Flush(TickStats{Tick: 4})
	if row.Births != 1 || row.Deaths != 2 {
		t.Errorf("second window = %d/%d, want 1/2 (first window leaked)", row.Births, row.Deaths)
	}
}

func TestCollectorPartialWindowFlush(t *testing.T) {
	c := NewCollector(100)

	c.Observe(TickStats{Tick: 1, Births: 0, Deaths: 4})

	if c.ShouldFlush(1) {
		t.Error("window of 100 must not be due at tick 1")
	}

	// An early flush (extinction cuts the run short) still reports what the
	// partial window accumulated.
	row := c.Flush(TickStats{Tick: 1, Population: 0})
	if row.Deaths != 4 {
		t.Errorf("partial window deaths = %d, want 4", row.Deaths)
	}
}

func TestCollectorClampsWindow(t *testing.T) {
	c := NewCollector(0)
	if !c.ShouldFlush(1) {
		t.Error("degenerate window should clamp to one tick")
	}
}
