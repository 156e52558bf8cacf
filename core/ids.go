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
	"sync"
)

// ID identifies an entity for the lifetime of the process.
type ID int

// MinID is the smallest valid entity id.
const MinID ID = 1

// IDs hands out entity ids.
//
// Ids increase monotonically and are never reused, even after an
// entity is removed from its registry.  That way a telegram still in
// flight for a departed entity can't reach some other entity that
// happened to get the same id.
//
// The zero value is ready to use.
type IDs struct {
	sync.Mutex
	next ID
}

// NewIDs makes an allocator whose first id is MinID.
func NewIDs() *IDs {
	return &IDs{
		next: MinID,
	}
}

func (ids *IDs) floor() ID {
	if ids.next < MinID {
		return MinID
	}
	return ids.next
}

// Next allocates the next valid id.
func (ids *IDs) Next() ID {
	ids.Lock()
	id := ids.floor()
	ids.next = id + 1
	ids.Unlock()
	return id
}

// Claim takes the given id, which must not be less than the next
// valid id.  Later allocations continue above it.
func (ids *IDs) Claim(id ID) error {
	ids.Lock()
	defer ids.Unlock()
	min := ids.floor()
	if id < min {
		return &IDError{
			ID:  id,
			Min: min,
			Err: ErrIDBelowMinimum,
		}
	}
	ids.next = id + 1
	return nil
}

// Peek returns the id that Next would allocate.
func (ids *IDs) Peek() ID {
	ids.Lock()
	defer ids.Unlock()
	return ids.floor()
}
