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

package tools

import (
	"io"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"

	"gopkg.in/yaml.v2"
)

// Snapshot is a crew's state at some point in simulated time.
type Snapshot struct {
	Crew     string          `yaml:"crew"`
	At       core.Time       `yaml:"at"`
	Machines []*crew.Machine `yaml:"machines"`
}

// WriteSnapshot writes the crew's machines as a YAML document.
//
// Each call writes a complete document starting with "---", so
// repeated calls to the same writer produce a YAML stream.
func WriteSnapshot(w io.Writer, c *crew.Crew, at core.Time) error {
	bs, err := yaml.Marshal(&Snapshot{
		Crew:     c.Id,
		At:       at,
		Machines: c.Snapshot(),
	})
	if err != nil {
		return err
	}
	if _, err = io.WriteString(w, "---\n"); err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}

// ReadSnapshots parses a stream written by WriteSnapshot.
func ReadSnapshots(r io.Reader) ([]*Snapshot, error) {
	var acc []*Snapshot
	d := yaml.NewDecoder(r)
	for {
		var s Snapshot
		if err := d.Decode(&s); err != nil {
			if err == io.EOF {
				return acc, nil
			}
			return nil, err
		}
		acc = append(acc, &s)
	}
}
