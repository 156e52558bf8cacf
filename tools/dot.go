package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/telegraph/sio"

	"gopkg.in/yaml.v2"
)

// Dot makes a Graphviz dot file for the given scenario.  Not a pretty
// dot file.
//
// States are nodes, and literal transitions are edges labeled with
// the hook that makes them.  Each agent gets a small node pointing at
// its initial state, with its initial bindings rendered as YAML.
//
// The optional fromState and toState can be names of states during a
// transition.  If non-zero, then the edge between them will be red,
// and so will the toState.
func Dot(sc *sio.Scenario, w io.WriteCloser, fromState, toState string) error {

	names := sc.StateNames()
	log.Printf("processing %d states", len(names))

	reverters := make(map[string]bool)
	handlers := make(map[string]bool)
	for _, name := range names {
		hs := hooks(sc.States[name])
		if _, has := hs["message"]; has {
			handlers[name] = true
		}
		for _, code := range hs {
			if revertPattern.MatchString(code) {
				reverters[name] = true
			}
		}
	}

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	for _, name := range names {
		s := sc.States[name]
		label := name
		if s != nil && s.Doc != "" {
			label += "<BR/><FONT POINT-SIZE='8'>" + escapeHTML(firstSentence(s.Doc)) + "</FONT>"
		}
		fillcolor := "#99ddc8"
		if handlers[name] {
			fillcolor = "#2d93ad"
		}
		color := "black"
		style := "filled"
		if toState == name {
			color = "red"
			fillcolor = "#f98b8b"
		}
		if reverters[name] {
			style += ",dashed"
		}
		fmt.Fprintf(w, "  %s [shape=\"record\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			name, style, color, fillcolor, label)
	}

	for i, spec := range sc.Agents {
		aid := fmt.Sprintf("agent%d", i)
		label := "<B>" + escapeHTML(spec.Name) + "</B>"
		if 0 < len(spec.Bindings) {
			bs, err := yaml.Marshal(spec.Bindings)
			if err != nil {
				bs = []byte(err.Error())
			}
			src := escapeHTML(strings.TrimSpace(string(bs)))
			label += `<FONT POINT-SIZE="8"><BR/>` +
				strings.Replace(src+"\n", "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		}
		fmt.Fprintf(w, "  %s [shape=\"note\", style=\"filled\", fillcolor=\"#f4e285\", label=<%s> ]\n",
			aid, label)
		fmt.Fprintf(w, "  %s -> %s [ style=\"dotted\" ]\n", aid, spec.State)
		if spec.Global != "" {
			fmt.Fprintf(w, "  %s -> %s [ style=\"dotted\" label=<global> ]\n", aid, spec.Global)
		}
	}

	for _, t := range Transitions(sc) {
		color := "black"
		if fromState == t.From && toState == t.To {
			color = "red"
		}
		fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" label = <<FONT POINT-SIZE=\"8\">%s</FONT>> ]\n",
			t.From, t.To, color, t.Hook)
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(sc *sio.Scenario, basename string, fromState, toState string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(sc, dotfile, fromState, toState); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

// firstSentence trims long docs to their first sentence.
func firstSentence(doc string) string {
	doc = strings.TrimSpace(doc)
	if 40 < len(doc) {
		if period := strings.Index(doc, ". "); 0 < period {
			doc = doc[0 : period+1]
		}
	}
	return doc
}

func escapeHTML(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}
