/*
Package session implements the session coordinator: the connection lifecycle state
machine that turns realtime events into room store mutations and outbound notifications.

This file defines the realtime event names, their payloads and the transport boundary.
*/
package session

import (
	"encoding/json"

	"roomrelay/internal/pkg/errs"
)

// Inbound event names.
const (
	EventJoin       = "JOIN"
	EventNewMessage = "NEW_MESSAGE"
)

// Outbound event names. NEW_MESSAGE is used in both directions.
const (
	EventJoined   = "JOINED"
	EventSetUsers = "SET_USERS"
)

// JoinPayload is the body of a JOIN event.
type JoinPayload struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

// MessagePayload is the body of an inbound NEW_MESSAGE event.
// Text is a pointer so a missing field can be told apart from an empty message.
type MessagePayload struct {
	RoomID      string  `json:"roomId"`
	DisplayName string  `json:"displayName"`
	Text        *string `json:"text"`
}

// Transport delivers named events to connections and manages notification groups.
// Implementations must not block: the coordinator calls them from its event loop.
type Transport interface {
	// Emit sends an event to a single connection.
	Emit(connID, event string, payload any)

	// EmitToGroup sends an event to every connection in group except exceptConnID
	// (pass "" to include everyone).
	EmitToGroup(group, exceptConnID, event string, payload any)

	// JoinGroup subscribes a live connection to group.
	JoinGroup(connID, group string)

	// LeaveGroup unsubscribes a connection from group.
	LeaveGroup(connID, group string)
}

// HandleEvent decodes a raw inbound event and queues it for the event loop.
// Decoding problems are reported synchronously; validation happens in the loop.
func (c *Coordinator) HandleEvent(connID, name string, data json.RawMessage) *errs.CustomError {
	switch name {
	case EventJoin:
		var payload JoinPayload
		if customErr := decodePayload(data, &payload); customErr != nil {
			return customErr
		}
		if !c.Join(connID, payload) {
			return errs.NewError(errs.ErrCoordinatorStopped)
		}

	case EventNewMessage:
		var payload MessagePayload
		if customErr := decodePayload(data, &payload); customErr != nil {
			return customErr
		}
		if !c.SendMessage(connID, payload) {
			return errs.NewError(errs.ErrCoordinatorStopped)
		}

	default:
		return errs.NewError(errs.ErrUnsupportedEvent, name)
	}

	return nil
}

func decodePayload(data json.RawMessage, dst any) *errs.CustomError {
	if len(data) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}
