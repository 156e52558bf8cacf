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
	"fmt"
	"io/ioutil"
	"time"

	"github.com/Comcast/telegraph/core"

	"github.com/jsccast/yaml"
)

// Conf provides some basic simulation parameters.
type Conf struct {
	// Id names the simulation's crew.
	Id string `json:"id" yaml:"id"`

	// Tick is the amount of time each step advances the clock.
	Tick core.Time `json:"tick" yaml:"tick"`

	// MaxPending bounds the dispatcher's queue.  Zero means no
	// bound.
	MaxPending int `json:"maxPending,omitempty" yaml:"maxPending,omitempty"`

	// Pace is an optional wall-clock pause between steps (Go
	// duration syntax) so that people can watch.
	Pace string `json:"pace,omitempty" yaml:"pace,omitempty"`

	// HookTimeout optionally bounds each scripted hook (Go
	// duration syntax).
	HookTimeout string `json:"hookTimeout,omitempty" yaml:"hookTimeout,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// DefaultConf returns a Conf with a tick of one and nothing else.
func DefaultConf() *Conf {
	return &Conf{
		Id:   "sim",
		Tick: core.DefaultTick,
	}
}

// LoadConf reads a YAML (or JSON) Conf.  Missing properties get
// DefaultConf's values.
func LoadConf(filename string) (*Conf, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	conf := DefaultConf()
	if err = yaml.Unmarshal(bs, conf); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if _, err = conf.PaceDuration(); err != nil {
		return nil, err
	}
	if _, err = conf.HookTimeoutDuration(); err != nil {
		return nil, err
	}
	return conf, nil
}

// PaceDuration parses Pace.
func (c *Conf) PaceDuration() (time.Duration, error) {
	return duration("pace", c.Pace)
}

// HookTimeoutDuration parses HookTimeout.
func (c *Conf) HookTimeoutDuration() (time.Duration, error) {
	return duration("hookTimeout", c.HookTimeout)
}

func duration(what, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", what, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("bad %s %q: negative", what, s)
	}
	return d, nil
}
