package core

import (
	"testing"
)

func TestClockDefaultTick(t *testing.T) {
	for _, tick := range []Time{0, -3} {
		c := NewClock(tick)
		if c.Tick() != DefaultTick {
			t.Fatalf("tick %d became %d", tick, c.Tick())
		}
	}
}

func TestClockAdvance(t *testing.T) {
	c := NewClock(5)
	if c.Now() != 0 {
		t.Fatal(c.Now())
	}
	c.Advance()
	if got := c.Advance(); got != 10 {
		t.Fatalf("advanced to %d", got)
	}
	if got := c.Since(4); got != 6 {
		t.Fatalf("since %d", got)
	}
	if got := c.Since(15); got != -5 {
		t.Fatalf("since future %d", got)
	}
}
