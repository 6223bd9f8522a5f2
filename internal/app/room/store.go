/*
Package room holds the authoritative in-memory registry of chat rooms, their
participants and their message history.

This file defines the Store. It performs no I/O and no locking: it is owned by a
single session coordinator which serializes every call.
*/
package room

import (
	"slices"

	"roomrelay/internal/pkg/errs"
)

// Store maps room ids to rooms and keeps a reverse index from connection id to
// the rooms that connection has joined.
type Store struct {
	rooms map[string]*Room

	// memberships is the reverse index connection id -> set of room ids.
	memberships map[string]map[string]struct{}

	// historyLimit caps each room's history; 0 keeps every message.
	historyLimit int
}

// NewStore creates an empty Store. A positive historyLimit keeps only the newest
// historyLimit messages per room.
func NewStore(historyLimit int) *Store {
	if historyLimit < 0 {
		historyLimit = 0
	}

	return &Store{
		rooms:        make(map[string]*Room),
		memberships:  make(map[string]map[string]struct{}),
		historyLimit: historyLimit,
	}
}

// EnsureRoom creates the room if it is absent and reports whether it did.
// An existing room keeps its participants and history.
func (s *Store) EnsureRoom(roomID string) bool {
	if _, ok := s.rooms[roomID]; ok {
		return false
	}

	s.rooms[roomID] = newRoom(roomID)
	return true
}

// Exists reports whether the room has been created.
func (s *Store) Exists(roomID string) bool {
	_, ok := s.rooms[roomID]
	return ok
}

// Snapshot returns copies of the room's participant names and history.
// An unknown room yields an empty snapshot.
func (s *Store) Snapshot(roomID string) Snapshot {
	r, ok := s.rooms[roomID]
	if !ok {
		return EmptySnapshot()
	}
	return r.snapshot()
}

// AddParticipant inserts or overwrites the participant keyed by connID.
func (s *Store) AddParticipant(roomID, connID, displayName string) *errs.CustomError {
	r, ok := s.rooms[roomID]
	if !ok {
		return errs.NewError(errs.ErrRoomNotFound, roomID)
	}

	r.put(connID, displayName)

	joined, ok := s.memberships[connID]
	if !ok {
		joined = make(map[string]struct{})
		s.memberships[connID] = joined
	}
	joined[roomID] = struct{}{}

	return nil
}

// RemoveParticipant removes connID from the room and reports whether it was present.
func (s *Store) RemoveParticipant(roomID, connID string) bool {
	r, ok := s.rooms[roomID]
	if !ok || !r.remove(connID) {
		return false
	}

	if joined, ok := s.memberships[connID]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(s.memberships, connID)
		}
	}

	return true
}

// AppendMessage adds msg to the end of the room's history.
func (s *Store) AppendMessage(roomID string, msg Message) *errs.CustomError {
	r, ok := s.rooms[roomID]
	if !ok {
		return errs.NewError(errs.ErrRoomNotFound, roomID)
	}

	r.appendMessage(msg, s.historyLimit)
	return nil
}

// ParticipantNames returns the display names in the room, in first-join order.
// Unknown rooms have no participants.
func (s *Store) ParticipantNames(roomID string) []string {
	r, ok := s.rooms[roomID]
	if !ok {
		return []string{}
	}
	return r.names()
}

// ForEachRoom calls fn for every room until fn returns false.
// fn sees the room read-only and must not call back into the store.
// Iteration order is unspecified.
func (s *Store) ForEachRoom(fn func(r *Room) bool) {
	for _, r := range s.rooms {
		if !fn(r) {
			return
		}
	}
}

// RoomCount returns the number of rooms ever created.
func (s *Store) RoomCount() int {
	return len(s.rooms)
}

// RoomsOf returns the sorted ids of every room connID currently belongs to.
func (s *Store) RoomsOf(connID string) []string {
	joined := s.memberships[connID]

	ids := make([]string, 0, len(joined))
	for id := range joined {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

// RemoveConnection removes connID from every room it belongs to and returns
// those room ids, sorted. Rooms themselves are kept.
func (s *Store) RemoveConnection(connID string) []string {
	ids := s.RoomsOf(connID)

	removed := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.RemoveParticipant(id, connID) {
			removed = append(removed, id)
		}
	}

	return removed
}
