package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo writes to audit_events. The table rejects UPDATE and DELETE.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, type, actor_user_id, actor_staff, ip_address, family, verb, target_id, reason, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, string(e.Type), nullInt(e.ActorUserID), e.ActorStaff, nullString(e.IPAddress),
		e.Family, e.Verb, nullInt(e.TargetID), nullString(e.Reason), nullString(e.Message), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
