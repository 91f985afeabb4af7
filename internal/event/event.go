package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAppLoaded        Type = "app.loaded"
	TypeTabVisible       Type = "tab.visible"
	TypeSessionLoggedIn  Type = "session.logged_in"
	TypeSessionLoggedOut Type = "session.logged_out"
	TypeOwnerLoggedIn    Type = "session.owner_logged_in"
	TypeOwnerLoggedOut   Type = "session.owner_logged_out"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	SessionID string `json:"session_id"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

func New(t Type, sessionID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
