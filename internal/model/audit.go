package model

import "time"

// AuditEntry is one row of the append-only auth trail.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	UserUUID   string    `json:"user_uuid"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
