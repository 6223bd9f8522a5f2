/*
Package room holds the authoritative in-memory registry of chat rooms, their
participants and their message history.

This file defines the Room type. A room keeps participants in first-join order so
participant lists read the same way every time they are broadcast.
*/
package room

// Message is a single chat line. It is never modified after it is appended.
type Message struct {
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
}

// Snapshot is the state of a room at one instant.
type Snapshot struct {
	Users    []string  `json:"users"`
	Messages []Message `json:"messages"`
}

// EmptySnapshot is what an unknown room looks like from the outside.
func EmptySnapshot() Snapshot {
	return Snapshot{Users: []string{}, Messages: []Message{}}
}

// Room is a named namespace of participants and message history.
// Outside this package it is only reachable read-only, through ForEachRoom.
type Room struct {
	// id is the client-chosen room key.
	id string

	// order lists connection ids by first join; an overwrite keeps the original slot.
	order []string

	// participants maps connection id to display name.
	participants map[string]string

	// history is append-only, oldest first.
	history []Message
}

func newRoom(id string) *Room {
	return &Room{
		id:           id,
		order:        make([]string, 0),
		participants: make(map[string]string),
		history:      make([]Message, 0),
	}
}

// ID returns the room key.
func (r *Room) ID() string { return r.id }

// ParticipantCount returns the number of participants.
func (r *Room) ParticipantCount() int { return len(r.participants) }

// MessageCount returns the number of messages kept in history.
func (r *Room) MessageCount() int { return len(r.history) }

// HasParticipant reports whether connID is in the room.
func (r *Room) HasParticipant(connID string) bool {
	_, ok := r.participants[connID]
	return ok
}

// ConnectionIDs returns a copy of the participant connection ids in join order.
func (r *Room) ConnectionIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func (r *Room) put(connID, displayName string) {
	if _, ok := r.participants[connID]; !ok {
		r.order = append(r.order, connID)
	}
	r.participants[connID] = displayName
}

func (r *Room) remove(connID string) bool {
	if _, ok := r.participants[connID]; !ok {
		return false
	}

	delete(r.participants, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return true
}

func (r *Room) names() []string {
	names := make([]string, 0, len(r.order))
	for _, id := range r.order {
		names = append(names, r.participants[id])
	}
	return names
}

// appendMessage adds msg and drops the oldest entries beyond limit (0 means no limit).
func (r *Room) appendMessage(msg Message, limit int) {
	r.history = append(r.history, msg)
	if limit > 0 && len(r.history) > limit {
		trimmed := make([]Message, limit)
		copy(trimmed, r.history[len(r.history)-limit:])
		r.history = trimmed
	}
}

func (r *Room) snapshot() Snapshot {
	messages := make([]Message, len(r.history))
	copy(messages, r.history)

	return Snapshot{
		Users:    r.names(),
		Messages: messages,
	}
}
