package controllers

import (
	"wemind/assistant"
	"wemind/broker"
	"wemind/config"
)

var cfg config.Configuration
var hub *broker.Hub
var aiSvc *assistant.Service

// Setup injeta as dependências compartilhadas dos handlers (chamado uma vez
// no boot, antes de registrar rotas).
func Setup(configuration config.Configuration, h *broker.Hub, svc *assistant.Service) {
	cfg = configuration
	hub = h
	aiSvc = svc
}
