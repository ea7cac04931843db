package devtools

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/vmodel/pkg/model"
)

// FrameType identifies a WebSocket frame.
type FrameType string

const (
	// FrameSnapshot is the first frame on every connection.
	FrameSnapshot FrameType = "snapshot"

	// FrameChange carries the state after one or more changes.
	FrameChange FrameType = "change"

	// FrameError reports a state that could not be encoded.
	FrameError FrameType = "error"
)

// Frame is sent to WebSocket clients watching a model.
type Frame struct {
	Type    FrameType       `json:"type"`
	Model   string          `json:"model"`
	Version uint64          `json:"version"`
	State   json.RawMessage `json:"state,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type client struct {
	conn   *websocket.Conn
	model  model.Inspectable
	notify chan struct{}
	done   chan struct{}
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "model", m.Name(), "error", err)
		return
	}

	c := &client{
		conn:   conn,
		model:  m,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.clients.Store(c, m.Name())
	s.logger.Debug("client connected", "model", m.Name(), "clients", s.clients.Size())

	// Subscriber callbacks run inside the store's delivery round, so they
	// only flag the writer.
	unwatch := m.Watch(func(uint64) {
		select {
		case c.notify <- struct{}{}:
		default:
		}
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(c)
	}()

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	unwatch()
	close(c.done)
	<-writerDone
	s.clients.Delete(c)
	conn.Close()
	s.logger.Debug("client disconnected", "model", m.Name())
}

func (s *Server) writeLoop(c *client) {
	if err := s.send(c, FrameSnapshot); err != nil {
		c.conn.Close()
		return
	}
	for {
		select {
		case <-c.done:
			return
		case <-c.notify:
			if err := s.send(c, FrameChange); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (s *Server) send(c *client, typ FrameType) error {
	frame := Frame{
		Type:    typ,
		Model:   c.model.Name(),
		Version: c.model.Version(),
	}
	state, err := c.model.Snapshot()
	if err != nil {
		frame.Type = FrameError
		frame.Error = err.Error()
	} else {
		frame.State = state
	}

	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}

	c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("websocket write failed", "model", frame.Model, "error", err)
		return err
	}
	return nil
}
