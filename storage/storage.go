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

// Package storage records simulation runs: the telegram traffic and
// the latest description of each agent.
//
// A record is for looking at later.  Nothing here is ever read back
// into a running simulation.
package storage

import (
	"context"
	"encoding/json"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/dispatch"
)

// Storage is a persistence interface that's suitable for run
// records.
type Storage interface {
	Open(ctx context.Context) error

	Close(ctx context.Context) error

	MakeRun(ctx context.Context, run string) error

	RemRun(ctx context.Context, run string) error

	// WriteState records the given machines, replacing earlier
	// records with the same ids.
	WriteState(ctx context.Context, run string, ms []*crew.Machine) error

	// GetState returns the recorded machines ordered by id.
	GetState(ctx context.Context, run string) ([]*crew.Machine, error)

	// AppendEvent adds an event to the run's journal.
	AppendEvent(ctx context.Context, run string, e *Event) error

	// Events returns the run's journal in order.
	Events(ctx context.Context, run string) ([]*Event, error)
}

// Event is the recorded form of a dispatch.Event.
type Event struct {
	Kind     dispatch.EventKind `json:"event"`
	At       core.Time          `json:"at"`
	Telegram json.RawMessage    `json:"telegram"`
	Handled  bool               `json:"handled,omitempty"`
	Reason   string             `json:"reason,omitempty"`
}

// AsEvent makes the recorded form of the given event.
func AsEvent(e *dispatch.Event) (*Event, error) {
	js, err := json.Marshal(e.Telegram)
	if err != nil {
		return nil, err
	}
	return &Event{
		Kind:     e.Kind,
		At:       e.At,
		Telegram: js,
		Handled:  e.Handled,
		Reason:   e.Reason,
	}, nil
}
