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

// Package timers keeps telegrams that are waiting for their delivery
// time.
//
// The design is relatively simple.  Pending timers live in a backlog
// ordered by ascending delivery time.  A new timer is inserted after
// every timer with the same delivery time, so timers that are due at
// the same tick come out in the order they were added.  Insertion is
// a binary search plus a copy, which is fine for the few hundred
// pending telegrams a simulation typically has.  Don't expect much
// when you have many thousands.
//
// Nothing here runs on its own.  The owner calls PopDue each tick.
package timers

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/Comcast/telegraph/core"
)

var (
	NotFound = errors.New("not found")
	TooMany  = errors.New("too many")
)

// Timer is a telegram waiting for its delivery time.
type Timer struct {
	// Id is unique across all timers of a given Timers instance.
	// Ids increase in the order timers are added.
	Id uint64 `json:"id"`

	// At is the absolute delivery time.
	At core.Time `json:"at"`

	Msg *core.Telegram `json:"msg"`
}

// Timers is a time-ordered set of Timer instances.
type Timers struct {
	// Max is the maximum number of pending timers.  Zero or less
	// means no limit.
	Max   int  `json:"max"`
	Debug bool `json:"-"`

	sync.Mutex
	backlog []*Timer
	seq     uint64
}

// NewTimers makes a new instance with the given maximum number of
// pending timers.
func NewTimers(max int) *Timers {
	// Let's bring in some magic numbers.
	initial := max / 4
	if initial < 8 {
		initial = 8
	}
	return &Timers{
		Max:     max,
		backlog: make([]*Timer, 0, initial),
	}
}

// Add schedules the given telegram for delivery at the given time.
func (ts *Timers) Add(at core.Time, msg *core.Telegram) (*Timer, error) {
	ts.Lock()
	defer ts.Unlock()

	n := len(ts.backlog)
	if 0 < ts.Max && n >= ts.Max {
		return nil, TooMany
	}

	ts.seq++
	t := &Timer{
		Id:  ts.seq,
		At:  at,
		Msg: msg,
	}

	i := sort.Search(n, func(i int) bool {
		return ts.backlog[i].At > t.At
	})

	ts.debugf("add %d at %d (%d/%d)", t.Id, t.At, i, n)

	// Try to avoid leaks ...
	switch i {
	case n:
		ts.backlog = append(ts.backlog, t)
	default:
		ts.backlog = append(ts.backlog, nil)
		copy(ts.backlog[i+1:], ts.backlog[i:])
		ts.backlog[i] = t
	}

	return t, nil
}

// Rem removes the timer with the given id.
func (ts *Timers) Rem(id uint64) error {
	ts.Lock()
	defer ts.Unlock()

	for i, t := range ts.backlog {
		if t.Id == id {
			ts.debugf("rem %d at %d", id, i)
			copy(ts.backlog[i:], ts.backlog[i+1:])
			// Try to avoid leaks.
			ts.backlog[len(ts.backlog)-1] = nil
			ts.backlog = ts.backlog[:len(ts.backlog)-1]
			return nil
		}
	}

	return NotFound
}

// Next returns the earliest delivery time.  The second value is
// false when nothing is pending.
func (ts *Timers) Next() (core.Time, bool) {
	ts.Lock()
	defer ts.Unlock()
	if len(ts.backlog) == 0 {
		return 0, false
	}
	return ts.backlog[0].At, true
}

// PopDue removes and returns the earliest timer if it's due at or
// before now.  Otherwise PopDue returns nil.
func (ts *Timers) PopDue(now core.Time) *Timer {
	ts.Lock()
	defer ts.Unlock()

	if len(ts.backlog) == 0 || now < ts.backlog[0].At {
		return nil
	}

	t := ts.backlog[0]
	ts.backlog[0] = nil
	ts.backlog = ts.backlog[1:]
	if len(ts.backlog) == 0 {
		// Start over so the array doesn't creep.
		ts.backlog = ts.backlog[:0:0]
	}

	ts.debugf("pop %d due %d now %d", t.Id, t.At, now)

	return t
}

// Len returns the number of pending timers.
func (ts *Timers) Len() int {
	ts.Lock()
	defer ts.Unlock()
	return len(ts.backlog)
}

// List returns a copy of the backlog in delivery order.
func (ts *Timers) List() []*Timer {
	ts.Lock()
	defer ts.Unlock()
	acc := make([]*Timer, len(ts.backlog))
	copy(acc, ts.backlog)
	return acc
}

func (ts *Timers) debugf(format string, args ...interface{}) {
	if ts.Debug {
		log.Printf("debug timers "+format, args...)
	}
}
