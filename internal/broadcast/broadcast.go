// Package broadcast fans progress events out to local WebSocket
// subscribers. It stands in for the Tauri shell's window.emit("progress",
// ...) calls now that there is no embedded webview to emit into. It uses
// nhooyr.io/websocket, deliberately a second, distinct library from
// gorilla/websocket (which the cdp package uses for the CDP transport) so
// the two connection roles (protocol client vs. local event server)
// aren't sharing one abstraction that fits neither well.
package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Event mirrors the shape of the original's progress payloads: a stage
// name plus a free-form message, with optional step/action detail.
type Event struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Step    int    `json:"step,omitempty"`
	Action  string `json:"action,omitempty"`
}

type Server struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
	srv  *http.Server
}

type subscriber struct {
	ch chan Event
}

func NewServer(addr string) *Server {
	s := &Server{subs: make(map[*subscriber]struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/progress", s.handle)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) Start() error {
	ln := s.srv
	go func() {
		if err := ln.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("progress broadcast server: %v", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	sub := &subscriber{ch: make(chan Event, 16)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case ev := <-sub.ch:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		}
	}
}

// Emit pushes an event to every connected subscriber, dropping it for any
// subscriber whose channel is full rather than blocking the caller.
func (s *Server) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// MarshalForLog renders an event as a single JSON line for logging. Emit
// does not call it: an event with no subscriber is dropped.
func MarshalForLog(ev Event) string {
	raw, _ := json.Marshal(ev)
	return string(raw)
}
