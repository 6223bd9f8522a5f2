/*
Package randx generates connection identities and validates the client-chosen
identifiers that arrive with realtime events and HTTP requests.
*/
package randx

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxRoomIDLength is the maximum length in bytes of a room id.
	MaxRoomIDLength = 128

	// MaxDisplayNameLength is the maximum length in bytes of a participant display name.
	MaxDisplayNameLength = 64
)

// ConnectionID returns a new process-unique connection identity (UUID v4).
func ConnectionID() string {
	return uuid.NewString()
}

// IsValidRoomID reports whether id can be used as a room key.
// Room ids are opaque; they only need to be non-blank, bounded and free of control characters.
func IsValidRoomID(id string) bool {
	return isPrintableToken(id, MaxRoomIDLength)
}

// IsValidDisplayName reports whether name can be shown as a participant name.
// Names are not required to be unique.
func IsValidDisplayName(name string) bool {
	return isPrintableToken(name, MaxDisplayNameLength)
}

func isPrintableToken(s string, maxLen int) bool {
	if strings.TrimSpace(s) == "" || len(s) > maxLen || !utf8.ValidString(s) {
		return false
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}

	return true
}
