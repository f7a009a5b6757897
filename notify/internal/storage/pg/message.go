package pg

import (
	"fmt"

	"github.com/compass-ms/usernotify/shared/domain"
)

// SaveMessage stores one consumed notification. Re-deliveries get fresh ids,
// so duplicates are kept rather than silently dropped; consumers downstream
// can dedupe on (username, operation, event_timestamp) if they care.
func (s *Storage) SaveMessage(n domain.Notification) error {
	_, err := s.db.Exec(`
        INSERT INTO messages(id, username, operation, event_timestamp, performed_by, raw, received_at)
        VALUES($1, $2, $3, $4, $5, $6, $7)`,
		n.Id, n.Username, n.Operation, n.Timestamp, n.PerformedBy, n.Raw, n.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Messages lists stored notifications, newest first.
func (s *Storage) Messages() ([]domain.Notification, error) {
	rows, err := s.db.Query(`
        SELECT id, username, operation, event_timestamp, performed_by, raw, received_at
        FROM messages ORDER BY received_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.Id, &n.Username, &n.Operation, &n.Timestamp, &n.PerformedBy, &n.Raw, &n.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, n)
	}
	return messages, rows.Err()
}
