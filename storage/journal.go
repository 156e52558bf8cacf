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

package storage

import (
	"context"
	"log"
	"sync"

	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/dispatch"

	"github.com/google/uuid"
)

// Journal writes a simulation's dispatcher events and crew snapshots
// to a Storage under one run id.
//
// Add a Journal to a dispatcher's tracers.  Write errors are logged
// and counted.  They don't stop the simulation.
type Journal struct {
	Storage Storage
	Run     string

	ctx context.Context

	sync.Mutex
	errs int
}

// NewJournal makes a Journal for a new run with a random id.
func NewJournal(s Storage) *Journal {
	return &Journal{
		Storage: s,
		Run:     uuid.New().String(),
	}
}

// Start opens the storage and makes the run.
func (j *Journal) Start(ctx context.Context) error {
	if err := j.Storage.Open(ctx); err != nil {
		return err
	}
	if err := j.Storage.MakeRun(ctx, j.Run); err != nil {
		j.Storage.Close(ctx)
		return err
	}
	j.ctx = ctx
	return nil
}

// Stop closes the storage.
func (j *Journal) Stop(ctx context.Context) error {
	return j.Storage.Close(ctx)
}

func (j *Journal) Trace(e *dispatch.Event) {
	r, err := AsEvent(e)
	if err == nil {
		err = j.Storage.AppendEvent(j.context(), j.Run, r)
	}
	if err != nil {
		j.failed("journal event", err)
	}
}

// Snapshot records the crew's current description.
func (j *Journal) Snapshot(c *crew.Crew) {
	if err := j.Storage.WriteState(j.context(), j.Run, c.Snapshot()); err != nil {
		j.failed("journal snapshot", err)
	}
}

// Errors returns the number of failed writes.
func (j *Journal) Errors() int {
	j.Lock()
	defer j.Unlock()
	return j.errs
}

func (j *Journal) failed(what string, err error) {
	j.Lock()
	j.errs++
	j.Unlock()
	log.Printf("%s %s: %s", what, j.Run, err)
}

func (j *Journal) context() context.Context {
	if j.ctx == nil {
		return context.Background()
	}
	return j.ctx
}
