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
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Comcast/telegraph/dispatch"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTTracer publishes dispatcher events as JSON to an MQTT topic.
//
// Nothing is ever received from the broker.
type MQTTTracer struct {
	Client mqtt.Client

	// Topic is the topic for every event.  A "%s" in the topic is
	// replaced by the event's kind.
	Topic string

	QoS byte

	// Timeout bounds the wait for each publish.  Zero means don't
	// wait.
	Timeout time.Duration

	// Quiesce is the number of milliseconds to wait for pending
	// work when disconnecting.
	Quiesce uint
}

// NewMQTTTracer makes a tracer with a new client for the given
// broker ("tcp://localhost:1883").
func NewMQTTTracer(broker, clientId, topic string) *MQTTTracer {
	mqtt.ERROR = log.New(os.Stderr, "mqtt.error ", 0)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientId)
	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.AutoReconnect = true
	opts.CleanSession = true
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTTTracer connection lost: %s", err)
	}

	return &MQTTTracer{
		Client:  mqtt.NewClient(opts),
		Topic:   topic,
		Timeout: time.Second,
		Quiesce: 100,
	}
}

func (m *MQTTTracer) Start(ctx context.Context) error {
	if token := m.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("Connected to broker")
	return nil
}

func (m *MQTTTracer) Stop(ctx context.Context) error {
	m.Client.Disconnect(m.Quiesce)
	return nil
}

func (m *MQTTTracer) topic(e *dispatch.Event) string {
	return strings.Replace(m.Topic, "%s", string(e.Kind), -1)
}

func (m *MQTTTracer) Trace(e *dispatch.Event) {
	js, err := json.Marshal(e)
	if err != nil {
		log.Printf("MQTTTracer Marshal error %v on %#v", err, e)
		return
	}
	topic := m.topic(e)
	token := m.Client.Publish(topic, m.QoS, false, js)
	if m.Timeout <= 0 {
		return
	}
	if !token.WaitTimeout(m.Timeout) {
		log.Printf("MQTTTracer publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("MQTTTracer publish error: %s", err)
	}
}
