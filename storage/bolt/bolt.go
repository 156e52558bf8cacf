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

package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/storage"

	bolt "go.etcd.io/bbolt"
)

var (
	NotFound = errors.New("not found")

	machinesBucket = []byte("machines")
	eventsBucket   = []byte("events")
)

func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}

// Storage keeps each run in its own bucket.  A run's bucket has a
// "machines" bucket keyed by agent id and an "events" bucket keyed by
// sequence number.
type Storage struct {
	Debug bool

	// NoSync skips the fsync after each write.  Much faster, but a
	// crash can lose the end of the journal.
	NoSync bool

	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	db.NoSync = s.NoSync
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func (s *Storage) MakeRun(ctx context.Context, run string) error {
	s.logf("MakeRun %s", run)
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucket([]byte(run))
		if err != nil {
			return err
		}
		if _, err = b.CreateBucket(machinesBucket); err != nil {
			return err
		}
		_, err = b.CreateBucket(eventsBucket)
		return err
	})
}

func (s *Storage) RemRun(ctx context.Context, run string) error {
	s.logf("RemRun %s", run)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.DeleteBucket([]byte(run))
	})
}

// sub finds a run's sub-bucket.
func sub(tx *bolt.Tx, run string, name []byte) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(run))
	if b == nil {
		return nil, fmt.Errorf("run %s: %w", run, NotFound)
	}
	if b = b.Bucket(name); b == nil {
		return nil, fmt.Errorf("run %s %s: %w", run, name, NotFound)
	}
	return b, nil
}

// itob gives a key that sorts the way the integer does.
func itob(n uint64) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, n)
	return bs
}

func (s *Storage) WriteState(ctx context.Context, run string, ms []*crew.Machine) error {
	s.logf("WriteState %s %s", run, JS(ms))

	if 0 == len(ms) {
		return nil
	}

	vals := make(map[uint64][]byte, len(ms))
	for _, m := range ms {
		js, err := json.Marshal(m)
		if err != nil {
			return err
		}
		vals[uint64(m.Id)] = js
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := sub(tx, run, machinesBucket)
		if err != nil {
			return err
		}
		for id, js := range vals {
			if err := b.Put(itob(id), js); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) GetState(ctx context.Context, run string) ([]*crew.Machine, error) {
	s.logf("GetState %s", run)
	ms := make([]*crew.Machine, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := sub(tx, run, machinesBucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(_, js []byte) error {
			var m crew.Machine
			if err := json.Unmarshal(js, &m); err != nil {
				return err
			}
			ms = append(ms, &m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logf("GetState %s found %d machines", run, len(ms))

	return ms, nil
}

func (s *Storage) AppendEvent(ctx context.Context, run string, e *storage.Event) error {
	js, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := sub(tx, run, eventsBucket)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), js)
	})
}

func (s *Storage) Events(ctx context.Context, run string) ([]*storage.Event, error) {
	es := make([]*storage.Event, 0, 64)
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := sub(tx, run, eventsBucket)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, js := c.First(); k != nil; k, js = c.Next() {
			var e storage.Event
			if err := json.Unmarshal(js, &e); err != nil {
				return err
			}
			es = append(es, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return es, nil
}
