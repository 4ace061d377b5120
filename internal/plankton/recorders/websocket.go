package recorders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/planktosim/planktosim/internal/plankton"
)

// WebSocketRecorder streams snapshots to connected WebSocket clients,
// one JSON message per step. Visualization front-ends attach to it to
// watch the populations live.
type WebSocketRecorder struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	upgrader   websocket.Upgrader
	broadcast  chan plankton.Snapshot
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewWebSocketRecorder creates a new WebSocket recorder
func NewWebSocketRecorder(id string) *WebSocketRecorder {
	rec := &WebSocketRecorder{
		id:         id,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan plankton.Snapshot, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	// Start the broadcaster goroutine
	rec.wg.Add(1)
	go rec.run()

	return rec
}

// ID returns the recorder ID
func (r *WebSocketRecorder) ID() string {
	return r.id
}

// Type returns the recorder type
func (r *WebSocketRecorder) Type() string {
	return "websocket"
}

// RegisterClient registers a new WebSocket client connection
func (r *WebSocketRecorder) RegisterClient(conn *websocket.Conn) {
	select {
	case r.register <- conn:
	case <-r.done:
		// Recorder is closing, ignore
	}
}

// UnregisterClient unregisters a WebSocket client connection
func (r *WebSocketRecorder) UnregisterClient(conn *websocket.Conn) {
	select {
	case r.unregister <- conn:
	case <-r.done:
		// Recorder is closing, ignore
	}
}

// Record queues the snapshot for broadcast to all connected clients
func (r *WebSocketRecorder) Record(ctx context.Context, snap plankton.Snapshot) error {
	select {
	case r.broadcast <- snap:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
		return fmt.Errorf("broadcast queue full")
	}
}

// run handles client registration/unregistration and snapshot broadcasting
func (r *WebSocketRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return

		case conn := <-r.register:
			if conn == nil {
				continue
			}
			r.mu.Lock()
			r.clients[conn] = true
			r.mu.Unlock()

		case conn := <-r.unregister:
			if conn == nil {
				continue
			}
			r.mu.Lock()
			if _, ok := r.clients[conn]; ok {
				delete(r.clients, conn)
				conn.Close()
			}
			r.mu.Unlock()

		case snap, ok := <-r.broadcast:
			if !ok {
				return
			}
			jsonData, err := plankton.EncodeSnapshotJSON(snap)
			if err != nil {
				continue
			}

			// Collect connections first so the write happens outside
			// the lock.
			r.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(r.clients))
			for conn := range r.clients {
				conns = append(conns, conn)
			}
			r.mu.RUnlock()

			var toRemove []*websocket.Conn
			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
					toRemove = append(toRemove, conn)
					conn.Close()
				}
			}

			if len(toRemove) > 0 {
				r.mu.Lock()
				for _, conn := range toRemove {
					delete(r.clients, conn)
				}
				r.mu.Unlock()
			}
		}
	}
}

// Close closes all WebSocket connections and stops the goroutine
func (r *WebSocketRecorder) Close() error {
	close(r.done)

	r.mu.Lock()
	for conn := range r.clients {
		conn.Close()
		delete(r.clients, conn)
	}
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

// Upgrader returns the WebSocket upgrader for HTTP handlers
func (r *WebSocketRecorder) Upgrader() websocket.Upgrader {
	return r.upgrader
}
