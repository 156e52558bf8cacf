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

	"github.com/Comcast/telegraph/crew"
)

// NoopStorage remembers nothing.
type NoopStorage struct {
}

func (s *NoopStorage) MakeRun(ctx context.Context, run string) error {
	return nil
}

func (s *NoopStorage) RemRun(ctx context.Context, run string) error {
	return nil
}

func (s *NoopStorage) WriteState(ctx context.Context, run string, ms []*crew.Machine) error {
	return nil
}

func (s *NoopStorage) GetState(ctx context.Context, run string) ([]*crew.Machine, error) {
	return nil, nil
}

func (s *NoopStorage) AppendEvent(ctx context.Context, run string, e *Event) error {
	return nil
}

func (s *NoopStorage) Events(ctx context.Context, run string) ([]*Event, error) {
	return nil, nil
}

func (s *NoopStorage) Open(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Close(ctx context.Context) error {
	return nil
}
