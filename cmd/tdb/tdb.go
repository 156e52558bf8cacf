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

// Package main is a command-line scenario debugger in the spirit of
// gdb.
//
// Load a scenario, then step it a tick at a time, poke at agents,
// and post telegrams by hand.  Type "help" for the commands.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/dispatch"
	"github.com/Comcast/telegraph/interpreters/goja"
	"github.com/Comcast/telegraph/sio"
	"github.com/Comcast/telegraph/tools"
	. "github.com/Comcast/telegraph/util/testutil"
)

type Opts struct {
	scenario string
	echo     bool
}

func main() {

	opts := &Opts{}
	flag.StringVar(&opts.scenario, "s", "", "optional scenario to load")
	flag.BoolVar(&opts.echo, "e", false, "echo input")
	flag.Parse()

	if err := opts.run(context.Background(), os.Stdin, os.Stdout); err != nil {
		panic(err)
	}
}

// Host holds the sim being debugged.
type Host struct {
	Scenario *sio.Scenario
	Sim      *sio.Sim
	Library  *goja.Library
	Agents   []*goja.Agent

	// Events are the dispatcher events since the last command.
	Events []*dispatch.Event
}

// Load replaces the host's sim with a new one for the scenario.  The
// agents' machines are started.
func (h *Host) Load(ctx context.Context, filename string) error {
	sc, err := tools.ReadScenario(filename)
	if err != nil {
		return err
	}
	sim, err := sio.NewSim(nil)
	if err != nil {
		return err
	}
	agents, err := sc.Populate(ctx, sim)
	if err != nil {
		return err
	}
	lib, err := sc.Compile(ctx, sim.Interpreter)
	if err != nil {
		return err
	}
	sim.Trace(dispatch.TracerFunc(func(e *dispatch.Event) {
		h.Events = append(h.Events, e)
	}))
	if _, err = sim.Start(); err != nil {
		return err
	}
	h.Scenario, h.Sim, h.Library, h.Agents = sc, sim, lib, agents
	return nil
}

func (h *Host) agent(id string) (*goja.Agent, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		for _, a := range h.Agents {
			if a.Name() == id {
				return a, nil
			}
		}
		return nil, fmt.Errorf("agent '%s' not found", id)
	}
	if e, is := h.Sim.Crew.Lookup(core.ID(n)).(*goja.Agent); is {
		return e, nil
	}
	return nil, fmt.Errorf("agent %d not found", n)
}

func (opts *Opts) run(ctx context.Context, in io.Reader, w io.Writer) error {

	h := &Host{}

	var (
		load = regexp.MustCompile("^load +(.*)")

		step = regexp.MustCompile("^(step|s)( +([0-9]+))?$")

		setState = regexp.MustCompile("^set +([-a-zA-Z0-9_]+) +state +([-a-zA-Z0-9_]+)")

		setBindings = regexp.MustCompile("^set +([-a-zA-Z0-9_]+) +(bs|bindings) +(.*)")

		post = regexp.MustCompile("^post +([0-9]+) +([0-9]+) +([-a-zA-Z0-9_]+)( +([0-9]+))?$")

		rem = regexp.MustCompile("^(rem|del|remove|delete) +([-a-zA-Z0-9_]+)")

		cancel = regexp.MustCompile("^cancel +([0-9]+)$")

		print = regexp.MustCompile("^print( +([-a-zA-Z0-9_]+))?")

		printqueue = regexp.MustCompile("^(printqueue|queue)")

		help = regexp.MustCompile("^(help|h|\\?)")

		save = regexp.MustCompile("^save +(.*)")

		debug = regexp.MustCompile("^debug(ging)? (on|off)")

		outputPrefix = "# "

		say = func(format string, args ...interface{}) {
			fmt.Fprintf(w, outputPrefix+format+"\n", args...)
		}

		protest = func(format string, args ...interface{}) {
			say("error: "+format, args...)
		}

		report = func() {
			for _, e := range h.Events {
				say("%s %s", e.Kind, e.Telegram)
			}
			h.Events = nil
		}
	)

	if opts.scenario != "" {
		if err := h.Load(ctx, opts.scenario); err != nil {
			return err
		}
		say("loaded %s with %d agents", h.Scenario.Name, len(h.Agents))
		report()
	}

	r := bufio.NewReader(in)
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF && line == "" {
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}
		line = strings.TrimSpace(line)

		if opts.echo {
			fmt.Fprintln(w, line)
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var ss []string

		if ss = help.FindStringSubmatch(line); 0 < len(ss) {
			for _, s := range strings.Split(doc(), "\n") {
				say("%s", s)
			}
			continue
		}

		if ss = load.FindStringSubmatch(line); 0 < len(ss) {
			if err := h.Load(ctx, ss[1]); err != nil {
				protest("couldn't load %s: %s", ss[1], err)
				continue
			}
			say("loaded %s with %d agents", h.Scenario.Name, len(h.Agents))
			report()
			continue
		}

		if h.Sim == nil {
			protest("no scenario loaded")
			continue
		}

		if ss = step.FindStringSubmatch(line); 0 < len(ss) {
			n := 1
			if ss[3] != "" {
				n, _ = strconv.Atoi(ss[3])
			}
			for i := 0; i < n; i++ {
				h.Sim.Step()
			}
			say("now %d", h.Sim.Now())
			report()
			continue
		}

		if ss = setState.FindStringSubmatch(line); 0 < len(ss) {
			a, err := h.agent(ss[1])
			if err != nil {
				protest("%s", err)
				continue
			}
			s, err := h.Library.State(ss[2])
			if err != nil {
				protest("%s", err)
				continue
			}
			a.FSM.ChangeState(s)
			say("%s now in %s", a.Name(), a.FSM.StateName())
			report()
			continue
		}

		if ss = setBindings.FindStringSubmatch(line); 0 < len(ss) {
			var bs map[string]interface{}
			if err := json.Unmarshal([]byte(ss[3]), &bs); err != nil {
				protest("couldn't parse bindings %s", ss[3])
				continue
			}
			a, err := h.agent(ss[1])
			if err != nil {
				protest("%s", err)
				continue
			}
			a.SetBindings(bs)
			continue
		}

		if ss = post.FindStringSubmatch(line); 0 < len(ss) {
			from, _ := strconv.Atoi(ss[1])
			to, _ := strconv.Atoi(ss[2])
			delay := 0
			if ss[5] != "" {
				delay, _ = strconv.Atoi(ss[5])
			}
			h.Sim.Dispatcher.Post(core.Time(delay), core.ID(from), core.ID(to), core.MsgType(ss[3]), nil)
			report()
			continue
		}

		if ss = rem.FindStringSubmatch(line); 0 < len(ss) {
			a, err := h.agent(ss[2])
			if err != nil {
				protest("%s", err)
				continue
			}
			h.Sim.Crew.Unregister(a)
			say("crew now has %d agents", h.Sim.Crew.Len())
			continue
		}

		if ss = cancel.FindStringSubmatch(line); 0 < len(ss) {
			i, _ := strconv.Atoi(ss[1])
			ts := h.Sim.Dispatcher.Queued()
			if len(ts) <= i {
				protest("no queued telegram %d", i)
				continue
			}
			if err := h.Sim.Dispatcher.Cancel(ts[i]); err != nil {
				protest("%s", err)
				continue
			}
			report()
			continue
		}

		if ss = printqueue.FindStringSubmatch(line); 0 < len(ss) {
			ts := h.Sim.Dispatcher.Queued()
			if len(ts) == 0 {
				say("queue is empty")
				continue
			}
			for i, t := range ts {
				say("%d. %s", i, t)
			}
			continue
		}

		if ss = save.FindStringSubmatch(line); 0 < len(ss) {
			if err := sio.NewJSONStore(ss[1]).WriteState(h.Sim.Crew); err != nil {
				protest("couldn't save: %s", err)
				continue
			}
			say("saved %s", ss[1])
			continue
		}

		if ss = debug.FindStringSubmatch(line); 0 < len(ss) {
			on := ss[2] == "on"
			h.Sim.Verbose = on
			h.Sim.Crew.Verbose = on
			h.Sim.Dispatcher.Verbose = on
			if on {
				say("debugging")
			} else {
				say("not debugging")
			}
			continue
		}

		if ss = print.FindStringSubmatch(line); 0 < len(ss) {
			printer := func(m *crew.Machine) {
				say("agent %d %s:", m.Id, m.Name)
				say("  state:    %s", m.State)
				say("  previous: %s", m.Previous)
				if m.Global != "" {
					say("  global:   %s", m.Global)
				}
				say("  bindings: %s", JS(m.Bindings))
			}
			if ss[2] == "" {
				for _, m := range h.Sim.Crew.Snapshot() {
					printer(m)
				}
				continue
			}
			a, err := h.agent(ss[2])
			if err != nil {
				protest("%s", err)
				continue
			}
			printer(crew.Describe(a))
			continue
		}

		protest("unknown command '%s' (try 'help')", line)
	}
}

func doc() string {
	return `load FILENAME            load a scenario and start it
step [N]                 run N ticks (default 1)
print [AGENT]            print one or every agent
queue                    print the pending telegrams
post FROM TO TYPE [D]    post a telegram with delay D
cancel N                 cancel queued telegram N (see queue)
set AGENT state STATE    change an agent's state
set AGENT bs JSON        replace an agent's bindings
rem AGENT                unregister an agent
save FILENAME            write the crew's state as JSON
debug on|off             verbose logging
help                     this message

An AGENT is an id or a name.`
}
