package domain

import "time"

// Notification is one consumed queue message as the notify service stores it.
// Raw keeps the exact payload; the parsed fields are for querying.
type Notification struct {
	Id          string
	Username    string
	Operation   string
	Timestamp   string
	PerformedBy string
	Raw         string
	ReceivedAt  time.Time
}
