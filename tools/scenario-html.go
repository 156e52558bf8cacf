package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"

	"github.com/Comcast/telegraph/interpreters/goja"
	"github.com/Comcast/telegraph/sio"
	. "github.com/Comcast/telegraph/util/testutil"

	md "github.com/russross/blackfriday/v2"
)

// RenderScenarioHTML writes an HTML fragment describing the
// scenario's states and agents.  Docs are rendered as Markdown.
func RenderScenarioHTML(sc *sio.Scenario, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="scenarioDoc doc">%s</div>`, md.Run([]byte(sc.Doc)))

	byFrom := make(map[string][]Transition)
	for _, t := range Transitions(sc) {
		byFrom[t.From] = append(byFrom[t.From], t)
	}

	{ // States
		f(`<div class="states"><table>`)
		for _, name := range sc.StateNames() {
			s := sc.States[name]
			f(`<tr class="state"><td><span id="%s" class="stateName">%s</span></td><td>`, name, name)

			if s != nil && s.Doc != "" {
				f(`<div class="stateDoc doc">%s</div>`, md.Run([]byte(s.Doc)))
			}
			hs := hooks(s)
			for _, hook := range []string{"enter", "execute", "leave", "message"} {
				code, has := hs[hook]
				if !has {
					continue
				}
				f(`<div class="hook"><span class="hookName">%s</span>`, hook)
				f(`<div class="code"><pre>%s</pre></div></div>`, html.EscapeString(code))
			}
			if ts := byFrom[name]; 0 < len(ts) {
				f(`<div class="transitions"><table>`)
				for _, t := range ts {
					f(`<tr><td>%s</td><td><a href="#%s"><code>%s</code></a></td></tr>`, t.Hook, t.To, t.To)
				}
				f(`</table></div>`)
			}
			f(`</td></tr>`)
		}
		f(`</table></div>`)
	}

	{ // Agents
		f(`<div class="agents"><table>`)
		for _, a := range sc.Agents {
			f(`<tr class="agent"><td><span class="agentName">%s</span></td>`, html.EscapeString(a.Name))
			f(`<td><a href="#%s"><code>%s</code></a></td>`, a.State, a.State)
			f(`<td>%s</td>`, a.Global)
			f(`<td><code>%s</code></td></tr>`, html.EscapeString(JS(a.Bindings)))
		}
		f(`</table></div>`)
	}

	return nil
}

// RenderScenarioPage writes a complete HTML page for the scenario.
func RenderScenarioPage(sc *sio.Scenario, out io.Writer, cssFiles []string, includeGraph bool) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/scenario-html.css"}
	}

	js, err := json.Marshal(sc)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(sc.Name))

	if includeGraph {
		fmt.Fprintf(out, `
  <script src="https://cdnjs.cloudflare.com/ajax/libs/mermaid/8.0.0/mermaid.min.js"></script>
  <script>
  var thisScenario = %s;
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(sc.Name))

	if includeGraph {
		fmt.Fprintf(out, `<div class="mermaid">`+"\n")
		if err = Mermaid(sc, nopCloser{out}, nil, "", ""); err != nil {
			return err
		}
		fmt.Fprintf(out, "</div>\n")
	}

	if err = RenderScenarioHTML(sc, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderScenarioPage reads a scenario (with inlines), makes
// sure its hooks compile, and renders it as a page.
func ReadAndRenderScenarioPage(filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	sc, err := ReadScenario(filename)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err = sc.Compile(ctx, goja.NewInterpreter()); err != nil {
		return err
	}

	return RenderScenarioPage(sc, out, cssFiles, includeGraph)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
