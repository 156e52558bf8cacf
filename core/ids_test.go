package core

import (
	"errors"
	"testing"
)

func TestIDsUnique(t *testing.T) {
	ids := NewIDs()
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := ids.Next()
		if id < MinID {
			t.Fatalf("id %d below %d", id, MinID)
		}
		if seen[id] {
			t.Fatalf("id %d reused", id)
		}
		seen[id] = true
	}
}

func TestIDsZeroValue(t *testing.T) {
	var ids IDs
	if id := ids.Next(); id != MinID {
		t.Fatalf("zero IDs gave %d", id)
	}
}

func TestIDsClaim(t *testing.T) {
	ids := NewIDs()
	if err := ids.Claim(10); err != nil {
		t.Fatal(err)
	}
	if id := ids.Next(); id != 11 {
		t.Fatalf("next after claim was %d", id)
	}

	err := ids.Claim(11)
	if !errors.Is(err, ErrIDBelowMinimum) {
		t.Fatalf("claiming a used id gave %v", err)
	}
	var ide *IDError
	if !errors.As(err, &ide) {
		t.Fatalf("%T isn't an IDError", err)
	}
	if ide.ID != 11 || ide.Min != 12 {
		t.Fatalf("bad IDError %#v", ide)
	}

	if err := ids.Claim(0); err == nil {
		t.Fatal("claimed 0")
	}
}

func TestNewBase(t *testing.T) {
	ids := NewIDs()
	b, err := NewBase(ids, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.ID() != 1 {
		t.Fatal(b.ID())
	}
	// Without a Poster, Send is harmless.
	b.Send(0, 2, "hello", nil)

	if _, err = NewBase(ids, 1, nil); !errors.Is(err, ErrIDBelowMinimum) {
		t.Fatalf("duplicate construction gave %v", err)
	}
}

func TestNextBase(t *testing.T) {
	ids := NewIDs()
	a := NextBase(ids, nil)
	b := NextBase(ids, nil)
	if a.ID() != MinID || b.ID() != MinID+1 {
		t.Fatal(a.ID(), b.ID())
	}
	if _, err := NewBase(ids, b.ID(), nil); err == nil {
		t.Fatal("claimed a used id")
	}
}
