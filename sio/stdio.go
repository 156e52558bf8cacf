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
	"io"
	"os"
	"sync"
	"time"

	"github.com/Comcast/telegraph/dispatch"
)

// JSONTracer is a fairly simple Tracer that writes one line of JSON
// per event.
type JSONTracer struct {
	// Out receives the lines.
	Out io.Writer

	// Timestamps prepends a (wall-clock) timestamp to each line.
	Timestamps bool

	// Tags prefixes each line with the kind of event ("posted",
	// "queued", "discharged", "dropped").
	Tags bool

	// PadTags adds some padding to tags.
	PadTags bool

	// Only, when not empty, limits output to these kinds of events.
	Only map[dispatch.EventKind]bool

	sync.Mutex
}

// NewJSONTracer creates a new JSONTracer that writes to the given
// writer or, if that's nil, os.Stdout.
func NewJSONTracer(out io.Writer) *JSONTracer {
	if out == nil {
		out = os.Stdout
	}
	return &JSONTracer{
		Out:  out,
		Tags: true,
	}
}

func (s *JSONTracer) printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 10s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
		format = ts + " " + format
	}

	fmt.Fprintf(s.Out, format, args...)
}

func (s *JSONTracer) Trace(e *dispatch.Event) {
	if 0 < len(s.Only) && !s.Only[e.Kind] {
		return
	}
	s.Lock()
	s.printf(string(e.Kind), "%s\n", JS(e))
	s.Unlock()
}
