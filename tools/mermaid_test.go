package tools

import (
	"bytes"
	"strings"
	"testing"
)

type buffer struct {
	bytes.Buffer
	closed bool
}

func (b *buffer) Close() error {
	b.closed = true
	return nil
}

func TestMermaid(t *testing.T) {
	out := &buffer{}
	if err := Mermaid(loadWestworld(t), out, nil, "", ""); err != nil {
		t.Fatal(err)
	}
	if !out.closed {
		t.Fatal("not closed")
	}

	g := out.String()
	if !strings.HasPrefix(g, "graph TB\n") {
		t.Fatal(g)
	}
	// States are numbered in name order, so cookStew is n1 and
	// doHouseWork is n2.
	for _, want := range []string{
		`n1["cookStew"]`,
		`n1 -- "message" --> n2`,
		`a0>"Bob"]`,
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("missing %q in\n%s", want, g)
		}
	}

	out = &buffer{}
	if err := Mermaid(loadWestworld(t), out, &MermaidOpts{}, "", ""); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "Bob") {
		t.Fatal(out.String())
	}
}
