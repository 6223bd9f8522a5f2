/*
Package ws is the realtime transport: it frames named events over WebSocket
connections and delivers them to single connections or to notification groups.

This file defines the Hub, the registry of live connections and of the named groups
they are subscribed to. It satisfies the session coordinator's transport boundary.
*/
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/randx"
)

const (
	// DefaultSendBuffer is the per-connection outbound queue length.
	DefaultSendBuffer = 256

	// DefaultMaxMessageSize is the largest inbound frame accepted, in bytes.
	DefaultMaxMessageSize = 8192
)

// Options tunes a Hub. Zero values select the defaults.
type Options struct {
	SendBuffer     int
	MaxMessageSize int64
}

// Hub tracks live connections and group membership.
type Hub struct {
	mu sync.RWMutex

	// clients maps connection id to client.
	clients map[string]*Client

	// groups maps group name to the set of member connection ids.
	groups map[string]map[string]struct{}

	closed bool

	sendBuffer     int
	maxMessageSize int64

	logger zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}

	return &Hub{
		clients:        make(map[string]*Client),
		groups:         make(map[string]map[string]struct{}),
		sendBuffer:     opts.SendBuffer,
		maxMessageSize: opts.MaxMessageSize,
		logger:         logx.Component("Hub"),
	}
}

// Serve runs the lifecycle of an upgraded connection and blocks until it ends.
// The sink sees Connect, then the inbound events, then Disconnect once the
// connection has been removed from every group.
func (h *Hub) Serve(conn *websocket.Conn, sink EventSink) {
	client := newClient(randx.ConnectionID(), conn, h.sendBuffer)

	if !h.register(client) {
		h.logger.Warn().Msg("Hub is closed. Rejecting connection.")
		_ = conn.Close()
		return
	}

	go client.writePump()

	defer func() {
		h.unregister(client)
		client.close()
		sink.Disconnect(client.ID)
	}()

	if !sink.Connect(client.ID) {
		return
	}

	client.readPump(sink, h.maxMessageSize)
}

func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[client.ID] = client
	h.logger.Debug().Str("conn_id", client.ID).Int("connections", len(h.clients)).Msg("Client registered.")
	return true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for group := range client.groups {
		h.removeFromGroup(client.ID, group)
	}
	delete(h.clients, client.ID)

	h.logger.Debug().Str("conn_id", client.ID).Int("connections", len(h.clients)).Msg("Client unregistered.")
}

// removeFromGroup must be called with h.mu held.
func (h *Hub) removeFromGroup(connID, group string) {
	members, ok := h.groups[group]
	if !ok {
		return
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}

	if client, ok := h.clients[connID]; ok {
		delete(client.groups, group)
	}
}

// JoinGroup subscribes a live connection to group. Unknown connections are ignored.
func (h *Hub) JoinGroup(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}

	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[connID] = struct{}{}
	client.groups[group] = struct{}{}
}

// LeaveGroup unsubscribes a connection from group.
func (h *Hub) LeaveGroup(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromGroup(connID, group)
}

// Emit sends an event to one connection. Connections that are already gone are skipped.
func (h *Hub) Emit(connID, event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	client, found := h.clients[connID]
	h.mu.RUnlock()

	if found {
		client.trySend(frame)
	}
}

// EmitToGroup sends an event to every member of group except exceptConnID.
func (h *Hub) EmitToGroup(group, exceptConnID, event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.groups[group]))
	for connID := range h.groups[group] {
		if connID == exceptConnID {
			continue
		}
		if client, found := h.clients[connID]; found {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.trySend(frame)
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	frame, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Error marshaling outbound event.")
		return nil, false
	}
	return frame, true
}

// GroupMembers returns the number of connections subscribed to group.
func (h *Hub) GroupMembers(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.groups[group])
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Close stops accepting connections and closes every live one.
// Each Serve call then reports its disconnect to its sink.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	h.logger.Info().Int("connections", len(clients)).Msg("Closing all connections.")

	for _, client := range clients {
		client.close()
	}
}
