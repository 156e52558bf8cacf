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

// Package dispatch delivers telegrams between the entities of a crew.
//
// A telegram with no delay is delivered right away, before Post
// returns.  Others wait in a queue ordered by delivery time until
// FlushDue finds them due.  Telegrams due at the same time are
// delivered in the order they were posted.
//
// Receivers are looked up by ID twice: when the telegram is posted
// and again when it's delivered.  A receiver that's missing either
// time just means the telegram is dropped.  That's not an error,
// since entities often refer to each other before all of them exist.
package dispatch

import (
	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/timers"
	"github.com/Comcast/telegraph/util"
)

// Directory resolves receivers.  A crew.Crew is a Directory.
type Directory interface {
	Lookup(id core.ID) core.Entity
}

// Dispatcher is the post office.
type Dispatcher struct {
	Verbose bool

	// Tracers see every Event.  Set them up before the first Post.
	Tracers []Tracer

	now   func() core.Time
	dir   Directory
	queue *timers.Timers
}

// NewDispatcher makes a Dispatcher that reads the time from now and
// finds receivers in dir.  Usually now is a core.Clock's Now.
func NewDispatcher(now func() core.Time, dir Directory) *Dispatcher {
	return &Dispatcher{
		now:   now,
		dir:   dir,
		queue: timers.NewTimers(0),
	}
}

// SetMaxPending bounds the number of queued telegrams.  Zero or less
// means no bound.  A telegram that doesn't fit is dropped.
func (d *Dispatcher) SetMaxPending(max int) {
	d.queue.Lock()
	d.queue.Max = max
	d.queue.Unlock()
}

// Logf logs when the dispatcher is verbose.
func (d *Dispatcher) Logf(format string, args ...interface{}) {
	util.Vlogf(d.Verbose, "dispatch ", format, args...)
}

// Post sends a telegram.
//
// When delay isn't positive, the receiver gets the telegram before
// Post returns.  Otherwise the telegram is delivered by the first
// FlushDue at or after now+delay.
func (d *Dispatcher) Post(delay core.Time, sender, receiver core.ID, typ core.MsgType, payload interface{}) {
	now := d.now()
	t := core.NewTelegram(now, delay, sender, receiver, typ, payload)
	d.trace(Posted, now, t, "")

	r := d.dir.Lookup(receiver)
	if r == nil {
		d.drop(now, t, "no receiver")
		return
	}

	if t.Immediate() {
		d.discharge(now, r, t)
		return
	}

	if _, err := d.queue.Add(t.Due(), t); err != nil {
		d.drop(now, t, err.Error())
		return
	}
	d.trace(Queued, now, t, "")
}

// FlushDue delivers every queued telegram that's due.  The result is
// the number of telegrams that reached a receiver.
//
// Call FlushDue once per tick, after the crew's UpdateAll.
func (d *Dispatcher) FlushDue() int {
	now := d.now()
	n := 0
	for {
		x := d.queue.PopDue(now)
		if x == nil {
			break
		}
		r := d.dir.Lookup(x.Msg.Receiver())
		if r == nil {
			d.drop(now, x.Msg, "receiver gone")
			continue
		}
		d.discharge(now, r, x.Msg)
		n++
	}
	return n
}

// Pending returns the number of queued telegrams.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Peek returns the earliest delivery time of the queued telegrams.
// The second value is false when nothing is queued.
func (d *Dispatcher) Peek() (core.Time, bool) {
	return d.queue.Next()
}

// Queued returns the queued telegrams in delivery order.
func (d *Dispatcher) Queued() []*core.Telegram {
	ts := d.queue.List()
	acc := make([]*core.Telegram, len(ts))
	for i, t := range ts {
		acc[i] = t.Msg
	}
	return acc
}

// Cancel removes a queued telegram without delivering it.  The
// telegram is traced as dropped.  The error is timers.NotFound when
// the telegram isn't queued.
func (d *Dispatcher) Cancel(t *core.Telegram) error {
	for _, x := range d.queue.List() {
		if x.Msg != t {
			continue
		}
		if err := d.queue.Rem(x.Id); err != nil {
			return err
		}
		d.drop(d.now(), t, "canceled")
		return nil
	}
	return timers.NotFound
}

func (d *Dispatcher) discharge(now core.Time, r core.Entity, t *core.Telegram) {
	handled := r.Receive(t)
	if !handled {
		d.Logf("%s not handled", t)
	}
	for _, tr := range d.Tracers {
		tr.Trace(&Event{
			Kind:     Discharged,
			At:       now,
			Telegram: t,
			Handled:  handled,
		})
	}
}

func (d *Dispatcher) drop(now core.Time, t *core.Telegram, why string) {
	d.Logf("dropped %s: %s", t, why)
	d.trace(Dropped, now, t, why)
}

func (d *Dispatcher) trace(kind EventKind, now core.Time, t *core.Telegram, why string) {
	for _, tr := range d.Tracers {
		tr.Trace(&Event{
			Kind:     kind,
			At:       now,
			Telegram: t,
			Reason:   why,
		})
	}
}
