/*
Package ws is the realtime transport: it frames named events over WebSocket
connections and delivers them to single connections or to notification groups.

This file defines the Client, one live WebSocket connection with its read and write pumps.
*/
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10
)

// Envelope is the frame exchanged in both directions: {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound is the encoding side of Envelope.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EventSink receives the lifecycle and inbound events of every connection.
type EventSink interface {
	Connect(connID string) bool
	HandleEvent(connID, name string, data json.RawMessage) *errs.CustomError
	Disconnect(connID string) bool
}

// Client is a single WebSocket connection registered with a Hub.
type Client struct {
	// ID is the connection identity handed to the event sink.
	ID string

	conn *websocket.Conn

	// send queues encoded frames for the write pump. It is never closed.
	send chan []byte

	// groups the client belongs to; guarded by the hub's mutex.
	groups map[string]struct{}

	// done is closed once to stop the write pump.
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

func newClient(id string, conn *websocket.Conn, sendBuffer int) *Client {
	return &Client{
		ID:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		groups: make(map[string]struct{}),
		done:   make(chan struct{}),
		logger: logx.Component("ws").With().Str("conn_id", id).Logger(),
	}
}

// trySend queues frame without blocking. A full queue means the peer is not keeping up:
// the frame is dropped and the connection is closed.
func (c *Client) trySend(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, closing slow connection.")
		c.abort()
		return false
	}
}

// close stops the write pump, which closes the underlying connection.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// abort stops the client without a close handshake. Closing the connection
// unblocks a write pump stuck on a stalled peer and ends the read pump.
func (c *Client) abort() {
	c.close()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error in abort")
	}
}

// readPump decodes inbound frames and forwards them to sink until the connection fails.
func (c *Client) readPump(sink EventSink, maxMessageSize int64) {
	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(frame, &envelope); err != nil || envelope.Event == "" {
			c.logger.Warn().Bytes("frame", frame).Msg("Client sent an invalid frame")
			continue
		}

		if customErr := sink.HandleEvent(c.ID, envelope.Event, envelope.Data); customErr != nil {
			if errs.Is(customErr, errs.ErrCoordinatorStopped) {
				return
			}
			c.logger.Warn().
				Str("event", envelope.Event).
				Int("code", customErr.Code).
				Str("reason", customErr.Message).
				Msg("Inbound event rejected")
		}
	}
}

// writePump drains the send queue to the connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.close()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in writePump")
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing to connection")
		return false
	}

	return true
}
