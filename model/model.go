package model

import (
	"stockchat/config"

	"github.com/google/uuid"
)

// Model holds the core application data for one chat session.
type Model struct {
	Config       *config.Config
	Provider     Provider
	Conversation *Conversation

	// SessionID tags exports and log lines for this run.
	SessionID string

	// Busy is set while an interaction is in flight. Submits are ignored
	// until it clears.
	Busy     bool
	Quitting bool

	Version string
}

func NewModel(cfg *config.Config, provider Provider, version string) *Model {
	m := &Model{
		Config:       cfg,
		Provider:     provider,
		Conversation: NewConversation(),
		SessionID:    uuid.New().String(),
		Version:      version,
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] NewModel: session=%s provider=%s model=%s",
			m.SessionID, cfg.Provider, provider.GetModel())
	}

	return m
}
