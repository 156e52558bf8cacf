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
	"encoding/json"
	"io/ioutil"

	"github.com/Comcast/telegraph/crew"
)

// JSONStore is a primitive facility to write a crew's description as
// JSON to a file.
//
// Not glamorous or efficient.
type JSONStore struct {
	// StateOutputFilename, if not empty, will be the filename
	// for writing state as JSON.
	StateOutputFilename string
}

func NewJSONStore(filename string) *JSONStore {
	return &JSONStore{
		StateOutputFilename: filename,
	}
}

// WriteState writes the entire crew as JSON.
func (s *JSONStore) WriteState(c *crew.Crew) error {
	if s.StateOutputFilename == "" {
		return nil
	}
	js, err := json.MarshalIndent(c.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(s.StateOutputFilename, js, 0644)
}

// ReadState reads what WriteState wrote.
func (s *JSONStore) ReadState() ([]*crew.Machine, error) {
	js, err := ioutil.ReadFile(s.StateOutputFilename)
	if err != nil {
		return nil, err
	}
	var ms []*crew.Machine
	if err = json.Unmarshal(js, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}
