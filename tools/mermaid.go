/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"fmt"
	"io"
	"log"

	"github.com/Comcast/telegraph/sio"
)

type MermaidOpts struct {
	// ShowHooks will label each edge with the hook that makes
	// the transition.
	ShowHooks bool `json:"showHooks"`

	// HandlerFill is the fill color for states with a message
	// hook.  Does not apply if HandlerClass is set.
	HandlerFill string `json:"handlerFill,omitempty"`

	// HandlerClass will be the CSS class for states with a
	// message hook.
	HandlerClass string `json:"handlerClass,omitempty"`

	// ShowAgents adds a node for each agent pointing at its
	// initial state.
	ShowAgents bool `json:"showAgents,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given scenario.
func Mermaid(sc *sio.Scenario, w io.WriteCloser, opts *MermaidOpts, fromState, toState string) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowHooks:   true,
			HandlerFill: "#bcf2db",
			ShowAgents:  true,
		}
	}

	names := sc.StateNames()
	log.Printf("processing %d states", len(names))

	fmt.Fprintf(w, "graph TB\n")

	nids := make(map[string]string)
	num := 0

	node := func(name string) string {
		if nid, already := nids[name]; already {
			return nid
		}
		num++
		nid := fmt.Sprintf("n%d", num)
		nids[name] = nid

		_, handles := hooks(sc.States[name])["message"]
		if !handles {
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid, name)
		} else {
			fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, name)
			if opts.HandlerClass != "" {
				fmt.Fprintf(w, "  class %s %s\n", nid, opts.HandlerClass)
			} else if opts.HandlerFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.HandlerFill)
			}
		}
		if name == toState {
			fmt.Fprintf(w, "  style %s stroke:#f00\n", nid)
		}

		return nid
	}

	for _, name := range names {
		node(name)
	}

	if opts.ShowAgents {
		for i, spec := range sc.Agents {
			aid := fmt.Sprintf("a%d", i)
			fmt.Fprintf(w, "  %s>\"%s\"]\n", aid, spec.Name)
			fmt.Fprintf(w, "  %s -.-> %s\n", aid, node(spec.State))
		}
	}

	for i, t := range Transitions(sc) {
		from, to := node(t.From), node(t.To)
		label := ""
		if opts.ShowHooks {
			label = fmt.Sprintf(`-- "%s"`, t.Hook)
		}
		fmt.Fprintf(w, "  %s %s --> %s\n", from, label, to)
		if t.From == fromState && t.To == toState {
			fmt.Fprintf(w, "  linkStyle %d stroke:#f00\n", i+linkOffset(opts, sc))
		}
	}

	fmt.Fprintf(w, "\n")
	log.Printf("mermaid gen done")

	return w.Close()
}

// linkOffset is the number of links written before the transitions.
func linkOffset(opts *MermaidOpts, sc *sio.Scenario) int {
	if opts.ShowAgents {
		return len(sc.Agents)
	}
	return 0
}
