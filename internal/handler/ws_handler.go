/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"roomrelay/internal/pkg/logx"
)

// HandleWebSocket upgrades the request and hands the connection to the hub.
// It blocks for the lifetime of the connection.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		requestID := middleware.GetReqID(r.Context())
		logx.Debug("WebSocket connection established.", "request_id", requestID)

		deps.Hub.Serve(conn, deps.Coordinator)

		logx.Debug("WebSocket connection ended.", "request_id", requestID)
	}
}
