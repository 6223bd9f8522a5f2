/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific request, room and session failures both inside
the coordinator and at the HTTP boundary.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006
)

// 2xxx: Room Errors
const (
	// ErrRoomNotFound indicates that the referenced room does not exist.
	ErrRoomNotFound = 2103
)

// 3xxx: Session Errors
const (
	// ErrNotConnected indicates an event arrived for a connection the coordinator does not know.
	ErrNotConnected = 3101

	// ErrUnsupportedEvent indicates that a realtime event name is not part of the protocol.
	ErrUnsupportedEvent = 3102

	// ErrCoordinatorStopped indicates the session coordinator no longer accepts work.
	ErrCoordinatorStopped = 3103
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
