package core

import (
	"encoding/json"
	"testing"
)

func TestTelegramDue(t *testing.T) {
	tg := NewTelegram(7, 3, 1, 2, "stew", nil)
	if tg.Immediate() {
		t.Fatal("delayed telegram is immediate")
	}
	if tg.Due() != 10 {
		t.Fatalf("due %d", tg.Due())
	}

	now := NewTelegram(7, -1, 1, 2, "stew", nil)
	if !now.Immediate() {
		t.Fatal("negative delay isn't immediate")
	}
	if now.Due() != 7 {
		t.Fatalf("due %d", now.Due())
	}

	far := NewTelegram(7, MaxTime-3, 1, 2, "stew", nil)
	if far.Due() != MaxTime {
		t.Fatalf("due %d", far.Due())
	}
	if edge := NewTelegram(3, MaxTime-3, 1, 2, "stew", nil); edge.Due() != MaxTime {
		t.Fatalf("due %d", edge.Due())
	}
}

func TestTelegramJSON(t *testing.T) {
	tg := NewTelegram(1, 2, 3, 4, "hi", map[string]interface{}{"likes": "tacos"})
	js, err := json.Marshal(tg)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err = json.Unmarshal(js, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "hi" || m["due"] != float64(3) || m["to"] != float64(4) {
		t.Fatalf("bad JSON %s", js)
	}
}
