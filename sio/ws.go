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
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Comcast/telegraph/dispatch"

	"github.com/gorilla/websocket"
	"golang.org/x/net/netutil"
)

// WSTracer serves a firehose of dispatcher events to websocket
// clients at /ws.
//
// Clients only listen.  Anything they send is ignored.  A slow client
// misses events rather than slowing down the simulation.
type WSTracer struct {
	// Addr is the listen address (":8080").
	Addr string

	// MaxConns caps the number of simultaneous connections.
	MaxConns int

	// Buffer is the number of events queued for each client.
	Buffer int

	upgrader websocket.Upgrader
	firehose chan []byte
	conns    sync.Map
	listener net.Listener
	server   *http.Server
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewWSTracer(addr string) *WSTracer {
	return &WSTracer{
		Addr:     addr,
		MaxConns: 16,
		Buffer:   64,
	}
}

// Start listens and serves in the background.
func (w *WSTracer) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", w.Addr)
	if err != nil {
		return err
	}
	if 0 < w.MaxConns {
		l = netutil.LimitListener(l, w.MaxConns)
	}
	w.listener = l
	w.firehose = make(chan []byte, 1024)
	w.done = make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", w.serve)
	w.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.done:
				return
			case js := <-w.firehose:
				w.conns.Range(func(k, v interface{}) bool {
					c := v.(chan []byte)
					select {
					case c <- js:
					default:
						log.Printf("%v firehose blocked", k)
					}
					return true
				})
			}
		}
	}()

	go func() {
		if err := w.server.Serve(l); err != nil && err != http.ErrServerClosed {
			log.Printf("WSTracer serve error %s", err)
		}
	}()

	log.Printf("WSTracer listening at %s", l.Addr())

	return nil
}

// ListenAddr returns the actual listen address, which is useful when
// Addr has port zero.
func (w *WSTracer) ListenAddr() string {
	if w.listener == nil {
		return ""
	}
	return w.listener.Addr().String()
}

func (w *WSTracer) Trace(e *dispatch.Event) {
	if w.firehose == nil {
		return
	}
	js, err := json.Marshal(e)
	if err != nil {
		log.Printf("WSTracer Marshal error %v on %#v", err, e)
		return
	}
	select {
	case w.firehose <- js:
	default:
		log.Printf("WSTracer firehose blocked")
	}
}

func (w *WSTracer) serve(rw http.ResponseWriter, r *http.Request) {
	c, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		log.Println("upgrade error", err)
		return
	}
	defer c.Close()

	firehose := make(chan []byte, w.Buffer)
	id := c.RemoteAddr().String()
	w.conns.Store(id, firehose)
	defer w.conns.Delete(id)

	// Reading is the only way to notice that the client left.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-w.done:
			c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case js := <-firehose:
			if err := c.WriteMessage(websocket.TextMessage, js); err != nil {
				log.Println("WSTracer write:", err)
				return
			}
		}
	}
}

// Stop closes the connections and shuts down the server.
func (w *WSTracer) Stop(ctx context.Context) error {
	if w.server == nil {
		return nil
	}
	close(w.done)
	w.wg.Wait()
	return w.server.Shutdown(ctx)
}
