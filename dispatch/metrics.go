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

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a Tracer that counts events for Prometheus.
type Metrics struct {
	Telegrams *prometheus.CounterVec
	Pending   prometheus.GaugeFunc
}

// NewMetrics makes the collectors for the given dispatcher and
// registers them.  Add the result to the dispatcher's Tracers.
func NewMetrics(reg prometheus.Registerer, d *Dispatcher) (*Metrics, error) {
	m := &Metrics{
		Telegrams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telegraph",
			Name:      "telegrams_total",
			Help:      "Telegrams by dispatcher event",
		}, []string{"event"}),

		Pending: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "telegraph",
			Name:      "telegrams_pending",
			Help:      "Telegrams waiting for their delivery time",
		}, func() float64 {
			return float64(d.Pending())
		}),
	}

	if err := reg.Register(m.Telegrams); err != nil {
		return nil, err
	}
	if err := reg.Register(m.Pending); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) Trace(e *Event) {
	m.Telegrams.WithLabelValues(string(e.Kind)).Inc()
}
