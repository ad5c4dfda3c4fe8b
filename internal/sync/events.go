package sync

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	EventWelcome        = "welcome"
	EventCartUpdated    = "cart.updated"
	EventCatalogUpdated = "catalog.updated"
	EventSubscribed     = "subscribed"
)

const (
	CartActionAdded        = "added"
	CartActionRemoved      = "removed"
	CartActionUpdated      = "updated"
	CartActionCleared      = "cleared"
	CartActionProgrammatic = "programmatic"
)

// CartEvent is broadcast whenever a stored cart changes.
type CartEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Action    string    `json:"action"`
	ItemCount int       `json:"item_count"`
	Lines     int       `json:"lines"`
	At        time.Time `json:"at"`
}

func (e CartEvent) Session() string { return e.SessionID }

// CatalogEvent is broadcast after the CMS replaces the product list.
type CatalogEvent struct {
	Type     string    `json:"type"`
	Products int       `json:"products"`
	Source   string    `json:"source"`
	At       time.Time `json:"at"`
}

type WelcomeEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Transport string `json:"transport"`
	SessionID string `json:"session_id,omitempty"`
	Clients   int    `json:"clients"`
}

// SubscribeMessage is sent by a client to follow one cart session.
// An empty session id follows every session again.
type SubscribeMessage struct {
	Type      string `json:"type"` // "subscribe"
	SessionID string `json:"session_id"`
}

// parseSubscribe reports the session a client line asks to follow.
func parseSubscribe(line []byte) (string, bool) {
	var m SubscribeMessage
	if err := json.Unmarshal(line, &m); err != nil || m.Type != "subscribe" {
		return "", false
	}
	return strings.TrimSpace(m.SessionID), true
}

func subscribedAck(session string) []byte {
	b, _ := json.Marshal(map[string]string{"type": EventSubscribed, "session_id": session})
	return append(b, '\n')
}
