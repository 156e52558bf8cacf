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
	"context"

	"github.com/Comcast/telegraph/dispatch"
)

// Coupling is a dispatch.Tracer that needs to be started and
// stopped.
//
// For example, an implementation could couple a simulation to an
// MQTT broker or to websocket viewers.
type Coupling interface {
	dispatch.Tracer

	// Start initializes the Coupling.
	Start(context.Context) error

	// Stop shuts down the Coupling.
	Stop(context.Context) error
}
