package handler

import (
	"roomrelay/internal/app/session"
	"roomrelay/internal/configs"
	"roomrelay/internal/transport/ws"
)

type AppDeps struct {
	Coordinator *session.Coordinator
	Hub         *ws.Hub
	Config      *configs.AppConfig
}
