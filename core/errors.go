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

import (
	"errors"
	"strconv"
)

// ErrIDBelowMinimum occurs when an entity is constructed with an id
// that's less than the next valid id.  Ids are never reused.
var ErrIDBelowMinimum = errors.New("id below minimum")

// IDError reports an identity violation for a specific id.
type IDError struct {
	ID ID

	// Min is the smallest id that would have been accepted.
	Min ID

	Err error
}

func (e *IDError) Error() string {
	return `id ` + strconv.Itoa(int(e.ID)) + `: ` + e.Err.Error() +
		` (next valid id is ` + strconv.Itoa(int(e.Min)) + `)`
}

func (e *IDError) Unwrap() error {
	return e.Err
}
