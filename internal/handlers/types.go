package handlers

import (
	"tutorbot/internal/config"
	"tutorbot/internal/moderation"
	"tutorbot/internal/referral"
	"tutorbot/internal/registration"
	"tutorbot/internal/session"
	"tutorbot/internal/withdrawal"
)

// HandlerDependencies contains everything the router dispatches to.
type HandlerDependencies struct {
	Config         *config.Config
	SessionManager *session.SessionManager
	Registration   *registration.Workflow
	Moderation     *moderation.Service
	Withdrawals    *withdrawal.Workflow
	Referrals      *referral.Engine
}

// BotHandler is the event router. It holds no per-user state of its own;
// every record change goes through the workflows' transactions.
type BotHandler struct {
	Deps HandlerDependencies
}

// NewBotHandler creates a BotHandler.
func NewBotHandler(deps HandlerDependencies) *BotHandler {
	if deps.Config == nil || deps.SessionManager == nil || deps.Registration == nil ||
		deps.Moderation == nil || deps.Withdrawals == nil || deps.Referrals == nil {
		panic("handlers: not all BotHandler dependencies were provided")
	}
	return &BotHandler{Deps: deps}
}
