/*
Package session implements the session coordinator: the connection lifecycle state
machine that turns realtime events into room store mutations and outbound notifications.

This file defines the Coordinator. A single goroutine owns the room store; every
realtime event and every HTTP query goes through one FIFO queue, so each handler runs
to completion before the next one starts and message history follows arrival order.
*/
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"roomrelay/internal/app/room"
	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/randx"
)

// DefaultQueueSize is the inbox capacity used when a non-positive size is given.
const DefaultQueueSize = 1024

type eventKind int

const (
	kindConnect eventKind = iota
	kindJoin
	kindMessage
	kindDisconnect
	kindSnapshot
	kindEnsureRoom
	kindStats
)

func (k eventKind) String() string {
	switch k {
	case kindConnect:
		return "connect"
	case kindJoin:
		return "join"
	case kindMessage:
		return "message"
	case kindDisconnect:
		return "disconnect"
	case kindSnapshot:
		return "snapshot"
	case kindEnsureRoom:
		return "ensure_room"
	case kindStats:
		return "stats"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// event is one unit of work for the loop. Queries carry a reply channel.
type event struct {
	kind    eventKind
	connID  string
	roomID  string
	join    JoinPayload
	message MessagePayload
	reply   chan reply
}

type reply struct {
	snapshot room.Snapshot
	stats    Stats
	err      *errs.CustomError
}

// Stats summarizes the coordinator state.
type Stats struct {
	Rooms        int `json:"rooms"`
	Participants int `json:"participants"`
	Connections  int `json:"connections"`
}

// Coordinator consumes connection lifecycle events, mutates the room store and
// decides which connections receive which notifications.
type Coordinator struct {
	// store is only touched from the run goroutine.
	store *room.Store

	transport Transport

	// inbox is the single ordered queue of events and queries.
	inbox chan event

	// connected holds the ids of connections in the Connected state.
	connected map[string]struct{}

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewCoordinator builds a Coordinator around store that delivers notifications through transport.
func NewCoordinator(store *room.Store, transport Transport, queueSize int) *Coordinator {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Coordinator{
		store:     store,
		transport: transport,
		inbox:     make(chan event, queueSize),
		connected: make(map[string]struct{}),
		stopChan:  make(chan struct{}),
		logger:    logx.Component("SessionCoordinator"),
	}
}

// Start launches the event loop.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.run()
}

// Shutdown stops the event loop and waits for it to exit.
// Events still queued are discarded; later calls are rejected.
func (c *Coordinator) Shutdown() {
	c.stopOnce.Do(func() {
		c.logger.Info().Msg("Stopping session coordinator.")
		close(c.stopChan)
	})
	c.wg.Wait()
}

func (c *Coordinator) run() {
	defer c.wg.Done()

	c.logger.Info().Msg("Event loop started.")

	for {
		select {
		case ev := <-c.inbox:
			c.dispatch(ev)
		case <-c.stopChan:
			c.logger.Info().Int("pending", len(c.inbox)).Msg("Event loop stopped.")
			return
		}
	}
}

// dispatch runs one handler. A panicking handler is logged and the loop keeps going.
func (c *Coordinator) dispatch(ev event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("event", ev.kind.String()).
				Str("conn_id", ev.connID).
				Interface("panic", r).
				Msg("Recovered from panic in event handler.")

			if ev.reply != nil {
				select {
				case ev.reply <- reply{err: errs.NewError(errs.ErrUnknown)}:
				default:
				}
			}
		}
	}()

	switch ev.kind {
	case kindConnect:
		c.handleConnect(ev.connID)
	case kindJoin:
		c.handleJoin(ev.connID, ev.join)
	case kindMessage:
		c.handleMessage(ev.connID, ev.message)
	case kindDisconnect:
		c.handleDisconnect(ev.connID)
	case kindSnapshot:
		ev.reply <- reply{snapshot: c.store.Snapshot(ev.roomID)}
	case kindEnsureRoom:
		if c.store.EnsureRoom(ev.roomID) {
			c.logger.Info().Str("room_id", ev.roomID).Msg("Room registered.")
		}
		ev.reply <- reply{}
	case kindStats:
		ev.reply <- reply{stats: c.collectStats()}
	}
}

// enqueue hands ev to the loop. It returns false once the coordinator is stopped.
func (c *Coordinator) enqueue(ev event) bool {
	select {
	case <-c.stopChan:
		return false
	default:
	}

	select {
	case c.inbox <- ev:
		return true
	case <-c.stopChan:
		return false
	}
}

// ask enqueues a query and waits for its reply.
func (c *Coordinator) ask(ctx context.Context, ev event) (reply, *errs.CustomError) {
	ev.reply = make(chan reply, 1)

	select {
	case <-c.stopChan:
		return reply{}, errs.NewError(errs.ErrCoordinatorStopped)
	default:
	}

	select {
	case c.inbox <- ev:
	case <-c.stopChan:
		return reply{}, errs.NewError(errs.ErrCoordinatorStopped)
	case <-ctx.Done():
		return reply{}, errs.NewError(errs.ErrUnknown, ctx.Err())
	}

	select {
	case r := <-ev.reply:
		return r, r.err
	case <-c.stopChan:
		return reply{}, errs.NewError(errs.ErrCoordinatorStopped)
	case <-ctx.Done():
		return reply{}, errs.NewError(errs.ErrUnknown, ctx.Err())
	}
}

// Connect records a new transport connection.
func (c *Coordinator) Connect(connID string) bool {
	return c.enqueue(event{kind: kindConnect, connID: connID})
}

// Join queues a JOIN request from connID.
func (c *Coordinator) Join(connID string, payload JoinPayload) bool {
	return c.enqueue(event{kind: kindJoin, connID: connID, join: payload})
}

// SendMessage queues a NEW_MESSAGE request from connID.
func (c *Coordinator) SendMessage(connID string, payload MessagePayload) bool {
	return c.enqueue(event{kind: kindMessage, connID: connID, message: payload})
}

// Disconnect queues the end of connID's lifecycle.
func (c *Coordinator) Disconnect(connID string) bool {
	return c.enqueue(event{kind: kindDisconnect, connID: connID})
}

// Snapshot returns the room's participants and history; unknown rooms are empty.
func (c *Coordinator) Snapshot(ctx context.Context, roomID string) (room.Snapshot, *errs.CustomError) {
	r, customErr := c.ask(ctx, event{kind: kindSnapshot, roomID: roomID})
	if customErr != nil {
		return room.Snapshot{}, customErr
	}
	return r.snapshot, nil
}

// EnsureRoom registers roomID if it does not exist yet.
func (c *Coordinator) EnsureRoom(ctx context.Context, roomID string) *errs.CustomError {
	if !randx.IsValidRoomID(roomID) {
		return errs.NewError(errs.ErrInvalidParams)
	}

	_, customErr := c.ask(ctx, event{kind: kindEnsureRoom, roomID: roomID})
	return customErr
}

// Stats reports room, participant and connection counts.
func (c *Coordinator) Stats(ctx context.Context) (Stats, *errs.CustomError) {
	r, customErr := c.ask(ctx, event{kind: kindStats})
	if customErr != nil {
		return Stats{}, customErr
	}
	return r.stats, nil
}

func (c *Coordinator) handleConnect(connID string) {
	if _, ok := c.connected[connID]; ok {
		c.logger.Warn().Str("conn_id", connID).Msg("Duplicate connect ignored.")
		return
	}

	c.connected[connID] = struct{}{}
	c.logger.Debug().Str("conn_id", connID).Int("connections", len(c.connected)).Msg("Connection registered.")
}

func (c *Coordinator) handleJoin(connID string, payload JoinPayload) {
	logger := c.logger.With().Str("conn_id", connID).Str("room_id", payload.RoomID).Logger()

	if customErr := c.requireConnected(connID); customErr != nil {
		logger.Warn().Err(customErr).Msg("JOIN rejected.")
		return
	}

	if !randx.IsValidRoomID(payload.RoomID) || !randx.IsValidDisplayName(payload.DisplayName) {
		logger.Warn().Err(errs.NewError(errs.ErrInvalidParams)).Msg("JOIN rejected: invalid roomId or displayName.")
		return
	}

	if c.store.EnsureRoom(payload.RoomID) {
		logger.Info().Msg("Room created on first join.")
	}

	c.transport.JoinGroup(connID, payload.RoomID)

	if customErr := c.store.AddParticipant(payload.RoomID, connID, payload.DisplayName); customErr != nil {
		c.transport.LeaveGroup(connID, payload.RoomID)
		logger.Warn().Err(customErr).Msg("JOIN failed.")
		return
	}

	snapshot := c.store.Snapshot(payload.RoomID)

	c.transport.Emit(connID, EventJoined, snapshot)
	c.transport.EmitToGroup(payload.RoomID, connID, EventSetUsers, snapshot.Users)

	logger.Info().
		Str("display_name", payload.DisplayName).
		Int("participants", len(snapshot.Users)).
		Msg("Participant joined room.")
}

func (c *Coordinator) handleMessage(connID string, payload MessagePayload) {
	logger := c.logger.With().Str("conn_id", connID).Str("room_id", payload.RoomID).Logger()

	if customErr := c.requireConnected(connID); customErr != nil {
		logger.Warn().Err(customErr).Msg("NEW_MESSAGE rejected.")
		return
	}

	if !randx.IsValidRoomID(payload.RoomID) || !randx.IsValidDisplayName(payload.DisplayName) || payload.Text == nil {
		logger.Warn().Err(errs.NewError(errs.ErrInvalidParams)).Msg("NEW_MESSAGE rejected: invalid roomId, displayName or text.")
		return
	}

	msg := room.Message{SenderName: payload.DisplayName, Text: *payload.Text}

	if customErr := c.store.AppendMessage(payload.RoomID, msg); customErr != nil {
		logger.Warn().Err(customErr).Msg("NEW_MESSAGE dropped.")
		return
	}

	c.transport.EmitToGroup(payload.RoomID, connID, EventNewMessage, msg)
}

func (c *Coordinator) handleDisconnect(connID string) {
	if _, ok := c.connected[connID]; !ok {
		c.logger.Debug().Str("conn_id", connID).Msg("Disconnect for unknown connection.")
	}
	delete(c.connected, connID)

	for _, roomID := range c.store.RemoveConnection(connID) {
		c.transport.LeaveGroup(connID, roomID)

		names := c.store.ParticipantNames(roomID)
		c.transport.EmitToGroup(roomID, connID, EventSetUsers, names)

		c.logger.Info().
			Str("conn_id", connID).
			Str("room_id", roomID).
			Int("participants", len(names)).
			Msg("Participant left room.")
	}
}

func (c *Coordinator) requireConnected(connID string) *errs.CustomError {
	if _, ok := c.connected[connID]; !ok {
		return errs.NewError(errs.ErrNotConnected, connID)
	}
	return nil
}

func (c *Coordinator) collectStats() Stats {
	stats := Stats{Connections: len(c.connected)}

	c.store.ForEachRoom(func(r *room.Room) bool {
		stats.Rooms++
		stats.Participants += r.ParticipantCount()
		return true
	})

	return stats
}
