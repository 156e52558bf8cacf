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
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Comcast/telegraph/dispatch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves a dispatcher's Prometheus metrics over HTTP.
//
// It's a Coupling, so it sees every event.
type MetricsServer struct {
	// Addr is the listen address (":9090").
	Addr string

	// Path defaults to "/metrics".
	Path string

	Registry *prometheus.Registry
	Metrics  *dispatch.Metrics

	listener net.Listener
	server   *http.Server
}

// NewMetricsServer registers the dispatcher's metrics, along with the
// Go runtime collectors, with a new registry.
func NewMetricsServer(addr string, d *dispatch.Dispatcher) (*MetricsServer, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	m, err := dispatch.NewMetrics(reg, d)
	if err != nil {
		return nil, err
	}
	return &MetricsServer{
		Addr:     addr,
		Path:     "/metrics",
		Registry: reg,
		Metrics:  m,
	}, nil
}

func (s *MetricsServer) Trace(e *dispatch.Event) {
	s.Metrics.Trace(e)
}

// Start listens and serves in the background.
func (s *MetricsServer) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener = l

	mux := http.NewServeMux()
	mux.Handle(s.Path, promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(l); err != nil && err != http.ErrServerClosed {
			log.Printf("MetricsServer serve error %s", err)
		}
	}()

	log.Printf("MetricsServer listening at %s%s", l.Addr(), s.Path)

	return nil
}

// ListenAddr returns the actual listen address.
func (s *MetricsServer) ListenAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *MetricsServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
