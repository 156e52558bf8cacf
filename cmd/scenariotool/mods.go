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

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Comcast/telegraph/sio"
	"github.com/Comcast/telegraph/tools"

	"github.com/jsccast/yaml"
)

var Mods = map[string]Mod{
	"renameState": &RenameStateMod{},
	"addGlobal":   &AddGlobalMod{},
	"analyze":     &Analyzer{},
	"graph":       &Grapher{},
	"mermaid":     &Mermaider{},
	"html":        &Pager{},
}

var (
	NoState     = errors.New("no such state")
	StateExists = errors.New("state exists")
)

type Mod interface {
	F(*sio.Scenario) error
	Doc() string
	Flags() *flag.FlagSet
}

// RenameState renames a state.  Agents that use the state are
// updated, and so are literal '_.change("NAME")' calls in hooks.
//
// Hooks that compute a state name aren't touched.
func RenameState(s *sio.Scenario, from, to string) error {
	src, have := s.States[from]
	if !have {
		return NoState
	}
	if _, have := s.States[to]; have {
		return StateExists
	}

	delete(s.States, from)
	s.States[to] = src

	for _, a := range s.Agents {
		if a.State == from {
			a.State = to
		}
		if a.Global == from {
			a.Global = to
		}
	}

	p := regexp.MustCompile("(_\\.change\\(\\s*[\"'`])" + regexp.QuoteMeta(from) + "([\"'`]\\s*\\))")
	rename := func(x interface{}) interface{} {
		if code, is := x.(string); is {
			return p.ReplaceAllString(code, "${1}"+to+"${2}")
		}
		return x
	}
	for _, st := range s.States {
		if st == nil {
			continue
		}
		st.Enter = rename(st.Enter)
		st.Execute = rename(st.Execute)
		st.Leave = rename(st.Leave)
		st.Message = rename(st.Message)
	}

	s.Doc = s.Doc + fmt.Sprintf(`

This scenario has been processed by RenameState from "%s" to "%s".
`, from, to)

	return nil
}

type RenameStateMod struct {
	From string
	To   string
}

func (m *RenameStateMod) F(s *sio.Scenario) error {
	return RenameState(s, m.From, m.To)
}

func (m *RenameStateMod) Doc() string {
	return `Renames a state everywhere a literal name refers to it.`
}

func (m *RenameStateMod) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("renameState", flag.ContinueOnError)
	fs.StringVar(&m.From, "from", "", "current state name")
	fs.StringVar(&m.To, "to", "", "new state name")
	return fs
}

// AddGlobal gives every agent without a global state the given one.
func AddGlobal(s *sio.Scenario, global string) error {
	if _, have := s.States[global]; !have {
		return NoState
	}
	n := 0
	for _, a := range s.Agents {
		if a.Global == "" {
			a.Global = global
			n++
		}
	}
	s.Doc = s.Doc + fmt.Sprintf(`

This scenario has been processed by AddGlobal with "%s" (%d agents).
`, global, n)
	return nil
}

type AddGlobalMod struct {
	Global string
}

func (m *AddGlobalMod) F(s *sio.Scenario) error {
	return AddGlobal(s, m.Global)
}

func (m *AddGlobalMod) Doc() string {
	return `Gives every agent without a global state the given one.`
}

func (m *AddGlobalMod) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("addGlobal", flag.ContinueOnError)
	fs.StringVar(&m.Global, "global", "", "global state name")
	return fs
}

type Analyzer struct {
}

func (m *Analyzer) F(s *sio.Scenario) error {
	a, err := tools.Analyze(s)
	if err != nil {
		return err
	}
	bs, err := yaml.Marshal(&a)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s\n", bs)

	if 0 < len(a.Errors) {
		return fmt.Errorf("%d problems: %s", len(a.Errors), strings.Join(a.Errors, "; "))
	}
	return nil
}

func (m *Analyzer) Doc() string {
	return "Writes a static analysis (YAML) to stderr."
}

func (m *Analyzer) Flags() *flag.FlagSet {
	return flag.NewFlagSet("analyze", flag.ContinueOnError)
}

type Grapher struct {
	OutputFilename string
}

func (m *Grapher) F(s *sio.Scenario) error {
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}

	return tools.Dot(s, f, "", "") // Will Close f.
}

func (m *Grapher) Doc() string {
	return "Writes a Graphviz dot file."
}

func (m *Grapher) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("graph", flag.ContinueOnError)
	fs.StringVar(&m.OutputFilename, "o", "scenario.dot", "output filename")
	return fs
}

type Mermaider struct {
	OutputFilename string
}

func (m *Mermaider) F(s *sio.Scenario) error {
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}

	return tools.Mermaid(s, f, nil, "", "") // Will Close f.
}

func (m *Mermaider) Doc() string {
	return "Writes a Mermaid graph."
}

func (m *Mermaider) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("mermaid", flag.ContinueOnError)
	fs.StringVar(&m.OutputFilename, "o", "scenario.mermaid", "output filename")
	return fs
}

type Pager struct {
	OutputFilename string
	CSS            string
	Graph          bool
}

func (m *Pager) F(s *sio.Scenario) error {
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}
	defer f.Close()

	var css []string
	if m.CSS != "" {
		css = []string{m.CSS}
	}
	return tools.RenderScenarioPage(s, f, css, m.Graph)
}

func (m *Pager) Doc() string {
	return "Writes an HTML page."
}

func (m *Pager) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("html", flag.ContinueOnError)
	fs.StringVar(&m.OutputFilename, "o", "scenario.html", "output filename")
	fs.StringVar(&m.CSS, "css", "", "optional stylesheet URL")
	fs.BoolVar(&m.Graph, "graph", true, "include a graph")
	return fs
}
