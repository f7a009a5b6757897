// Package events defines the lifecycle messages exchanged over the queue
// between the user service (producer) and the notify service (consumer).
package events

import (
	"encoding/json"
	"time"
)

// Operations announced on the queue.
const (
	OpCreate = "CREATE"
	OpUpdate = "UPDATE"
)

// UserEvent is the wire payload. PerformedBy is only set for UPDATE and names
// the authenticated account that made the change.
type UserEvent struct {
	Username    string `json:"username"`
	Operation   string `json:"operation"`
	Timestamp   string `json:"timestamp"`
	PerformedBy string `json:"performedBy,omitempty"`
}

func NewCreated(username string) UserEvent {
	return UserEvent{
		Username:  username,
		Operation: OpCreate,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func NewUpdated(username, performedBy string) UserEvent {
	return UserEvent{
		Username:    username,
		Operation:   OpUpdate,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		PerformedBy: performedBy,
	}
}

func (e UserEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func Unmarshal(body []byte) (UserEvent, error) {
	var e UserEvent
	err := json.Unmarshal(body, &e)
	return e, err
}
