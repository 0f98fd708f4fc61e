package repository

import (
	"context"
	"fmt"

	"go-auth-service/internal/model"
)

type AuditRepository struct {
	db Querier
}

func NewAuditRepository(db Querier) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_audit (id, action, user_uuid, username, email, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Action, entry.UserUUID, entry.Username, entry.Email, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}
