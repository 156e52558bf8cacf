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

package sio

import (
	"context"
	"log"
	"time"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/dispatch"
	"github.com/Comcast/telegraph/interpreters/goja"
	"github.com/Comcast/telegraph/util"
)

// Sim wires a clock, a crew, and a dispatcher together and drives
// them one tick at a time.
//
// Each Step advances the clock, updates every entity, flushes due
// telegrams, and then calls the OnTick functions.
type Sim struct {
	Conf *Conf

	Clock       *core.Clock
	Crew        *crew.Crew
	Dispatcher  *dispatch.Dispatcher
	Interpreter *goja.Interpreter

	// OnTick functions run after each Step's flush.  Rendering,
	// physics, and snapshots go here.
	OnTick []func(*Sim)

	// Verbose turns on logging.
	Verbose bool

	pace      time.Duration
	couplings []Coupling
}

// NewSim makes a Sim with the given configuration, which can be nil.
func NewSim(conf *Conf) (*Sim, error) {
	if conf == nil {
		conf = DefaultConf()
	}
	pace, err := conf.PaceDuration()
	if err != nil {
		return nil, err
	}
	timeout, err := conf.HookTimeoutDuration()
	if err != nil {
		return nil, err
	}

	s := &Sim{
		Conf:        conf,
		Clock:       core.NewClock(conf.Tick),
		Crew:        crew.NewCrew(conf.Id),
		Interpreter: goja.NewInterpreter(),
		Verbose:     conf.Verbose,
		pace:        pace,
	}
	s.Crew.Verbose = conf.Verbose
	s.Dispatcher = dispatch.NewDispatcher(s.Now, s.Crew)
	s.Dispatcher.Verbose = conf.Verbose
	s.Dispatcher.SetMaxPending(conf.MaxPending)
	s.Interpreter.Timeout = timeout

	return s, nil
}

// Now returns the current time of the sim's current clock.
func (s *Sim) Now() core.Time {
	return s.Clock.Now()
}

// Logf logs if s.Verbose.
func (s *Sim) Logf(format string, args ...interface{}) {
	util.Vlogf(s.Verbose, "", format, args...)
}

// Trace adds a tracer to the dispatcher.
func (s *Sim) Trace(t dispatch.Tracer) {
	s.Dispatcher.Tracers = append(s.Dispatcher.Tracers, t)
}

// Couple adds a Coupling, which Open will start and Close will stop.
func (s *Sim) Couple(c Coupling) {
	s.couplings = append(s.couplings, c)
	s.Trace(c)
}

// Open starts the couplings in the order they were added.  If one
// fails, the ones already started are stopped.
func (s *Sim) Open(ctx context.Context) error {
	for i, c := range s.couplings {
		if err := c.Start(ctx); err != nil {
			for j := i - 1; 0 <= j; j-- {
				if err := s.couplings[j].Stop(ctx); err != nil {
					log.Printf("coupling stop error %s", err)
				}
			}
			return err
		}
	}
	return nil
}

// Close stops the couplings in reverse order.  The first error is
// returned, but every coupling gets stopped.
func (s *Sim) Close(ctx context.Context) error {
	var first error
	for i := len(s.couplings) - 1; 0 <= i; i-- {
		if err := s.couplings[i].Stop(ctx); err != nil {
			log.Printf("coupling stop error %s", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Start starts every entity's state machine.  Call Start once, after
// the initial population is registered.
func (s *Sim) Start() (int, error) {
	n, err := s.Crew.StartAll()
	if err != nil {
		return 0, err
	}
	s.Logf("Sim %s started %d machines", s.Conf.Id, n)
	return n, nil
}

// Step runs one tick.  The result is the number of delayed telegrams
// delivered.
func (s *Sim) Step() int {
	now := s.Clock.Advance()
	s.Crew.UpdateAll()
	n := s.Dispatcher.FlushDue()
	for _, f := range s.OnTick {
		f(s)
	}
	s.Logf("Sim %s tick %d delivered %d pending %d", s.Conf.Id, now, n, s.Dispatcher.Pending())
	return n
}

// Run calls Step n times, or forever when n isn't positive, stopping
// early when ctx is done.
func (s *Sim) Run(ctx context.Context, n int) error {
	s.Logf("Sim.Run %s starting", s.Conf.Id)

	var pace <-chan time.Time
	if 0 < s.pace {
		ticker := time.NewTicker(s.pace)
		defer ticker.Stop()
		pace = ticker.C
	}

LOOP:
	for i := 0; n <= 0 || i < n; i++ {
		select {
		case <-ctx.Done():
			s.Logf("Sim.Run %s shutting down (ctx.Done)", s.Conf.Id)
			break LOOP
		default:
		}
		if pace != nil && 0 < i {
			select {
			case <-ctx.Done():
				s.Logf("Sim.Run %s shutting down (ctx.Done)", s.Conf.Id)
				break LOOP
			case <-pace:
			}
		}
		s.Step()
	}

	s.Logf("Sim.Run %s done at %d", s.Conf.Id, s.Clock.Now())
	return ctx.Err()
}
