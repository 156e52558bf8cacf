package sio

import "testing"

func TestJShort(t *testing.T) {
	x := map[string]interface{}{"likes": "tacos"}
	if got := JS(x); got != `{"likes":"tacos"}` {
		t.Fatal(got)
	}
	if got := JShort(x, 8); got != `{"likes"...` {
		t.Fatal(got)
	}
	if got := JShort(x, 80); got != JS(x) {
		t.Fatal(got)
	}
	if got := JS(nil); got != "null" {
		t.Fatal(got)
	}
	if got := JS(func() {}); got == "" {
		t.Fatal("empty")
	}
}
