/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package main runs a scenario.
//
// Dispatcher events are written to stdout as tagged JSON lines and
// can also go to websocket clients, an MQTT broker, a bbolt journal,
// and Prometheus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/dispatch"
	"github.com/Comcast/telegraph/examples/westworld"
	"github.com/Comcast/telegraph/sio"
	"github.com/Comcast/telegraph/storage"
	"github.com/Comcast/telegraph/storage/bolt"
	"github.com/Comcast/telegraph/tools"
)

type Opts struct {
	scenario string
	builtin  string
	conf     string
	ticks    int
	tick     int64
	pace     string
	verbose  bool

	trace bool
	only  string
	ts    bool
	pad   bool
	tags  bool

	ws       string
	broker   string
	topic    string
	clientId string
	journal  string
	metrics  string

	stateOut  string
	snapshots string

	dot  string
	html string
}

func main() {

	opts := &Opts{}
	flag.StringVar(&opts.scenario, "s", "specs/westworld.yaml", "scenario filename")
	flag.StringVar(&opts.builtin, "builtin", "", `run a built-in population ("westworld") instead of a scenario`)
	flag.StringVar(&opts.conf, "c", "", "optional configuration (YAML) filename")
	flag.IntVar(&opts.ticks, "n", 0, "number of ticks to run (0 means until interrupted)")
	flag.Int64Var(&opts.tick, "tick", 0, "tick size (overrides configuration)")
	flag.StringVar(&opts.pace, "pace", "", `wall-clock time between ticks, like "100ms" (overrides configuration)`)
	flag.BoolVar(&opts.verbose, "v", false, "verbose")

	flag.BoolVar(&opts.trace, "trace", true, "write events to stdout")
	flag.StringVar(&opts.only, "only", "", `comma-separated event kinds to write, like "discharged,dropped"`)
	flag.BoolVar(&opts.ts, "ts", false, "print timestamps")
	flag.BoolVar(&opts.pad, "pad", false, "pad tags")
	flag.BoolVar(&opts.tags, "tags", true, "tags")

	flag.StringVar(&opts.ws, "ws", "", "serve events to websocket clients at this address")
	flag.StringVar(&opts.broker, "mqtt", "", `publish events to this MQTT broker ("tcp://localhost:1883")`)
	flag.StringVar(&opts.topic, "topic", "telegraph/%s", `MQTT topic ("%s" becomes the event kind)`)
	flag.StringVar(&opts.clientId, "client-id", "telegraph", "MQTT client id")
	flag.StringVar(&opts.journal, "journal", "", "bbolt journal filename")
	flag.StringVar(&opts.metrics, "metrics", "", "serve Prometheus metrics at this address")

	flag.StringVar(&opts.stateOut, "state-out", "", "state output (JSON) filename, written after every tick")
	flag.StringVar(&opts.snapshots, "snapshots", "", "snapshot (YAML stream) filename, appended after every tick")

	flag.StringVar(&opts.dot, "dot", "", "write a Graphviz file for the scenario and exit")
	flag.StringVar(&opts.html, "html", "", "write an HTML page for the scenario and exit")

	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := opts.run(ctx); err != nil {
		log.Fatal(err)
	}
}

func (opts *Opts) confs() (*sio.Conf, error) {
	conf := sio.DefaultConf()
	if opts.conf != "" {
		c, err := sio.LoadConf(opts.conf)
		if err != nil {
			return nil, err
		}
		conf = c
	}
	if 0 < opts.tick {
		conf.Tick = core.Time(opts.tick)
	}
	if opts.pace != "" {
		conf.Pace = opts.pace
	}
	if opts.verbose {
		conf.Verbose = true
	}
	return conf, nil
}

func (opts *Opts) tracer() *sio.JSONTracer {
	t := sio.NewJSONTracer(os.Stdout)
	t.Timestamps = opts.ts
	t.PadTags = opts.pad
	t.Tags = opts.tags
	if opts.only != "" {
		t.Only = make(map[dispatch.EventKind]bool)
		for _, kind := range strings.Split(opts.only, ",") {
			t.Only[dispatch.EventKind(strings.TrimSpace(kind))] = true
		}
	}
	return t
}

func (opts *Opts) render(sc *sio.Scenario) error {
	if opts.dot != "" {
		f, err := os.Create(opts.dot)
		if err != nil {
			return err
		}
		defer f.Close()
		if err = tools.Dot(sc, f, "", ""); err != nil {
			return err
		}
	}
	if opts.html != "" {
		f, err := os.Create(opts.html)
		if err != nil {
			return err
		}
		defer f.Close()
		if err = tools.RenderScenarioPage(sc, f, nil, true); err != nil {
			return err
		}
	}
	return nil
}

func (opts *Opts) populate(ctx context.Context, sim *sio.Sim) error {
	switch opts.builtin {
	case "":
	case "westworld":
		_, _, err := westworld.Populate(sim)
		return err
	default:
		return fmt.Errorf("unknown built-in population '%s'", opts.builtin)
	}

	sc, err := tools.ReadScenario(opts.scenario)
	if err != nil {
		return err
	}
	_, err = sc.Populate(ctx, sim)
	return err
}

func (opts *Opts) run(ctx context.Context) error {

	if opts.dot != "" || opts.html != "" {
		sc, err := tools.ReadScenario(opts.scenario)
		if err != nil {
			return err
		}
		return opts.render(sc)
	}

	conf, err := opts.confs()
	if err != nil {
		return err
	}

	sim, err := sio.NewSim(conf)
	if err != nil {
		return err
	}

	if err = opts.populate(ctx, sim); err != nil {
		return err
	}

	if opts.trace {
		sim.Trace(opts.tracer())
	}

	if opts.ws != "" {
		sim.Couple(sio.NewWSTracer(opts.ws))
	}

	if opts.broker != "" {
		sim.Couple(sio.NewMQTTTracer(opts.broker, opts.clientId, opts.topic))
	}

	if opts.metrics != "" {
		m, err := sio.NewMetricsServer(opts.metrics, sim.Dispatcher)
		if err != nil {
			return err
		}
		sim.Couple(m)
	}

	var journal *storage.Journal
	if opts.journal != "" {
		s, err := bolt.NewStorage(opts.journal)
		if err != nil {
			return err
		}
		journal = storage.NewJournal(s)
		sim.Couple(journal)
		sim.OnTick = append(sim.OnTick, func(s *sio.Sim) {
			journal.Snapshot(s.Crew)
		})
	}

	if opts.stateOut != "" {
		store := sio.NewJSONStore(opts.stateOut)
		sim.OnTick = append(sim.OnTick, func(s *sio.Sim) {
			if err := store.WriteState(s.Crew); err != nil {
				log.Printf("state output error %s", err)
			}
		})
	}

	if opts.snapshots != "" {
		f, err := os.Create(opts.snapshots)
		if err != nil {
			return err
		}
		defer f.Close()
		sim.OnTick = append(sim.OnTick, func(s *sio.Sim) {
			if err := tools.WriteSnapshot(f, s.Crew, s.Now()); err != nil {
				log.Printf("snapshot error %s", err)
			}
		})
	}

	if err = sim.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sim.Close(context.Background()); err != nil {
			log.Printf("error from sim.Close: %v", err)
		}
	}()

	if journal != nil {
		log.Printf("journal run %s", journal.Run)
	}

	if _, err = sim.Start(); err != nil {
		return err
	}

	err = sim.Run(ctx, opts.ticks)
	if errors.Is(err, context.Canceled) {
		log.Printf("interrupted at %d", sim.Now())
		err = nil
	}

	if journal != nil {
		if n := journal.Errors(); 0 < n {
			return fmt.Errorf("journal had %d errors", n)
		}
	}

	return err
}
