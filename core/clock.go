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

package core

import "math"

// Time is simulation time measured in ticks.
type Time int64

// DefaultTick is the tick size used when a Clock is given a
// non-positive one.
const DefaultTick Time = 1

// MaxTime is the latest representable time.
const MaxTime Time = math.MaxInt64

// Clock is a monotonic tick counter.
//
// The zero Clock is not ready to use.  Call NewClock.
type Clock struct {
	now  Time
	tick Time
}

// NewClock makes a Clock at time zero that advances by the given tick
// size.  A non-positive tick becomes DefaultTick.
func NewClock(tick Time) *Clock {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Clock{
		tick: tick,
	}
}

// Now returns the current time.
func (c *Clock) Now() Time {
	return c.now
}

// Tick returns the size of one step.
func (c *Clock) Tick() Time {
	return c.tick
}

// Advance moves time forward by one tick and returns the new time.
func (c *Clock) Advance() Time {
	c.now += c.tick
	return c.now
}

// Since returns Now() - t, which is negative when t is in the future.
func (c *Clock) Since(t Time) Time {
	return c.now - t
}
