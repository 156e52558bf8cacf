package tools

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderScenarioHTML(t *testing.T) {

	t.Run("withoutGraph", func(t *testing.T) {
		out := bytes.NewBuffer(make([]byte, 0, 1024*128))

		if err := ReadAndRenderScenarioPage(westworld, []string{"scenario.css"}, out, false); err != nil {
			t.Fatal(err)
		}
		page := out.String()
		if !strings.Contains(page, "<h1>West World</h1>") {
			t.Fatal("no rendered doc")
		}
		if strings.Contains(page, "mermaid") {
			t.Fatal("unexpected graph")
		}
		if !strings.Contains(page, `<a href="#eatStew">`) {
			t.Fatal("no transition link")
		}
	})

	t.Run("withGraph", func(t *testing.T) {
		out := bytes.NewBuffer(make([]byte, 0, 1024*128))

		if err := ReadAndRenderScenarioPage(westworld, []string{"scenario.css"}, out, true); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), `<div class="mermaid">`) {
			t.Fatal("no graph")
		}
	})

	t.Run("missing", func(t *testing.T) {
		var out bytes.Buffer
		if err := ReadAndRenderScenarioPage("nope.yaml", nil, &out, false); err == nil {
			t.Fatal("expected an error")
		}
	})
}
