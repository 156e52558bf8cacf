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

// Package core provides the kernel of a small discrete-event
// simulation: a tick Clock, uniquely identified Entities, shared
// States, a per-entity state Machine, and the Telegrams that entities
// post to each other.
//
// A Machine has three slots: the current state, an optional global
// state that runs every tick before the current one, and the previous
// state, which makes a one-level revert possible.  States hold no
// entity data.  One State value can serve every entity of a kind, and
// anything a State needs to remember across calls lives on the
// entity.
//
// Hooks run to completion one at a time.  A hook may change the
// machine's state, post telegrams, or revert, and these calls take
// effect immediately.
//
// The registry that owns entities is in package crew, and the post
// office that delivers telegrams is in package dispatch.  Package sio
// ties them together into a tick loop:
//
//	clock.Advance()
//	crew.UpdateAll()
//	dispatcher.FlushDue()
package core
