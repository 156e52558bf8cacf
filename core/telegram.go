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
	"encoding/json"
	"strconv"
)

// MsgType tags a Telegram with what it's about.
type MsgType string

// Telegram is an immutable message envelope.
//
// Use NewTelegram.  A Telegram isn't changed after construction, so
// the same pointer can be handed to any number of handlers.
type Telegram struct {
	delay    Time
	sender   ID
	receiver ID
	typ      MsgType
	payload  interface{}

	// sent is the time the telegram was posted.
	sent Time
}

// NewTelegram makes a Telegram that was posted at the given time.
func NewTelegram(sent, delay Time, sender, receiver ID, typ MsgType, payload interface{}) *Telegram {
	return &Telegram{
		delay:    delay,
		sender:   sender,
		receiver: receiver,
		typ:      typ,
		payload:  payload,
		sent:     sent,
	}
}

// Delay is the requested delay.  Zero or less means immediate.
func (t *Telegram) Delay() Time { return t.delay }

// Sender is the id of the entity that posted the telegram.
func (t *Telegram) Sender() ID { return t.sender }

// Receiver is the id of the intended recipient.
func (t *Telegram) Receiver() ID { return t.receiver }

// Type is the message-type tag.
func (t *Telegram) Type() MsgType { return t.typ }

// Payload is the optional opaque payload, which might be nil.
func (t *Telegram) Payload() interface{} { return t.payload }

// Sent is the time the telegram was posted.
func (t *Telegram) Sent() Time { return t.sent }

// Immediate reports whether the telegram skips the delayed queue.
func (t *Telegram) Immediate() bool { return t.delay <= 0 }

// Due is the absolute delivery time.  For an immediate telegram,
// that's just the time it was sent.  A delay that would run past
// MaxTime is due at MaxTime.
func (t *Telegram) Due() Time {
	if t.Immediate() {
		return t.sent
	}
	if 0 < t.sent && MaxTime-t.sent < t.delay {
		return MaxTime
	}
	return t.sent + t.delay
}

func (t *Telegram) String() string {
	return string(t.typ) + " " + strconv.Itoa(int(t.sender)) + "->" +
		strconv.Itoa(int(t.receiver)) + " @" + strconv.FormatInt(int64(t.Due()), 10)
}

type telegramJSON struct {
	Delay    Time        `json:"delay"`
	Sender   ID          `json:"from"`
	Receiver ID          `json:"to"`
	Type     MsgType     `json:"type"`
	Payload  interface{} `json:"payload,omitempty"`
	Sent     Time        `json:"sent"`
	Due      Time        `json:"due"`
}

// MarshalJSON renders the telegram for traces and journals.
func (t *Telegram) MarshalJSON() ([]byte, error) {
	return json.Marshal(&telegramJSON{
		Delay:    t.delay,
		Sender:   t.sender,
		Receiver: t.receiver,
		Type:     t.typ,
		Payload:  t.payload,
		Sent:     t.sent,
		Due:      t.Due(),
	})
}
