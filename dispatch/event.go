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

package dispatch

import (
	"github.com/Comcast/telegraph/core"
)

type EventKind string

const (
	Posted     EventKind = "posted"
	Queued     EventKind = "queued"
	Discharged EventKind = "discharged"
	Dropped    EventKind = "dropped"
)

// Event is something that happened to a telegram.
type Event struct {
	Kind     EventKind      `json:"event"`
	At       core.Time      `json:"at"`
	Telegram *core.Telegram `json:"telegram"`

	// Handled is only meaningful for Discharged events.
	Handled bool `json:"handled,omitempty"`

	// Reason says why a telegram was dropped.
	Reason string `json:"reason,omitempty"`
}

// Tracer observes dispatcher events.
//
// Trace is called synchronously from the simulation, so it should
// be quick.  It must not hold on to the Event after returning unless
// it copies it.
type Tracer interface {
	Trace(e *Event)
}

// TracerFunc is a function that's a Tracer.
type TracerFunc func(e *Event)

func (f TracerFunc) Trace(e *Event) {
	f(e)
}

// Tracers fans out to several tracers.
type Tracers []Tracer

func (ts Tracers) Trace(e *Event) {
	for _, t := range ts {
		t.Trace(e)
	}
}
