package timers

import (
	"testing"

	"github.com/Comcast/telegraph/core"
)

func msg(typ string) *core.Telegram {
	return core.NewTelegram(0, 1, 1, 2, core.MsgType(typ), nil)
}

func TestTimersOrder(t *testing.T) {
	ts := NewTimers(0)

	for _, x := range []struct {
		at  core.Time
		typ string
	}{
		{5, "c"},
		{2, "a"},
		{5, "d"},
		{3, "b"},
		{5, "e"},
	} {
		if _, err := ts.Add(x.at, msg(x.typ)); err != nil {
			t.Fatal(err)
		}
	}

	if n := ts.Len(); n != 5 {
		t.Fatal(n)
	}
	if at, ok := ts.Next(); !ok || at != 2 {
		t.Fatal(at, ok)
	}

	got := ""
	for now := core.Time(0); now <= 6; now++ {
		for {
			x := ts.PopDue(now)
			if x == nil {
				break
			}
			if x.At > now {
				t.Fatalf("%d popped at %d", x.At, now)
			}
			got += string(x.Msg.Type())
		}
	}
	if got != "abcde" {
		t.Fatal(got)
	}
	if _, ok := ts.Next(); ok {
		t.Fatal("expected nothing pending")
	}
}

func TestTimersNotDue(t *testing.T) {
	ts := NewTimers(0)
	if _, err := ts.Add(10, msg("later")); err != nil {
		t.Fatal(err)
	}
	if x := ts.PopDue(9); x != nil {
		t.Fatal(x)
	}
	if x := ts.PopDue(10); x == nil {
		t.Fatal("expected a timer")
	}
	if x := ts.PopDue(11); x != nil {
		t.Fatal(x)
	}
}

func TestTimersTooMany(t *testing.T) {
	ts := NewTimers(2)
	for i := 0; i < 2; i++ {
		if _, err := ts.Add(1, msg("x")); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ts.Add(1, msg("x")); err != TooMany {
		t.Fatal(err)
	}
}

func TestTimersRem(t *testing.T) {
	ts := NewTimers(0)
	a, _ := ts.Add(1, msg("a"))
	b, _ := ts.Add(1, msg("b"))
	if a.Id >= b.Id {
		t.Fatal(a.Id, b.Id)
	}
	if err := ts.Rem(a.Id); err != nil {
		t.Fatal(err)
	}
	if err := ts.Rem(a.Id); err != NotFound {
		t.Fatal(err)
	}
	x := ts.PopDue(1)
	if x == nil || x.Msg.Type() != "b" {
		t.Fatal(x)
	}
}

func TestTimersList(t *testing.T) {
	ts := NewTimers(0)
	ts.Add(4, msg("b"))
	ts.Add(1, msg("a"))
	l := ts.List()
	if len(l) != 2 || l[0].At != 1 || l[1].At != 4 {
		t.Fatal(l)
	}
	l[0] = nil
	if ts.PopDue(1) == nil {
		t.Fatal("List should return a copy")
	}
}
