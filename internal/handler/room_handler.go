/*
Package handler provides HTTP handler functions for room registration and room state queries.
*/
package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/req"
	"roomrelay/internal/pkg/resp"
)

type EnsureRoomInput struct {
	RoomID *string `json:"roomId"`
}

// HandleEnsureRoom registers a room so that clients can send messages to it.
// Registering an existing room leaves it untouched.
func HandleEnsureRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input EnsureRoomInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.RoomID == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := deps.Coordinator.EnsureRoom(r.Context(), *input.RoomID); customErr != nil {
			logx.Warn("Room registration rejected.", "room_id", *input.RoomID, "code", customErr.Code)
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondEmpty(w)
	}
}

// HandleGetRoom returns the participant names and message history of a room.
// Unknown rooms answer with empty lists.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := roomIDParam(r)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		snapshot, customErr := deps.Coordinator.Snapshot(r.Context(), roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondData(w, r, snapshot)
	}
}

// roomIDParam returns the decoded {roomId} path segment.
// chi matches against the raw path when the request has one, so ids containing
// an escaped "/" arrive still encoded.
func roomIDParam(r *http.Request) (string, error) {
	roomID := chi.URLParam(r, "roomId")
	if r.URL.RawPath == "" {
		return roomID, nil
	}
	return url.PathUnescape(roomID)
}
