package repository

import (
	"context"
	"time"

	"github.com/itops/support-portal/internal/domain"
)

// AuditRepository stores the append-only ticket ledger. Append fails
// only on storage failure; rows are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error)
	CountTicketsChanged(ctx context.Context, from, to time.Time) (int64, error)
}

type auditRepository struct {
	db Querier
}

// NewAuditRepository builds the repository over a pool or tx.
func NewAuditRepository(db Querier) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_entries (ticket_id, actor_id, actor_role, field, old_value, new_value, note)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.ActorID,
		entry.ActorRole,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListByTicket returns entries ordered by timestamp ascending; the
// serial id breaks ties in insertion order.
func (r *auditRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error) {
	const query = `
        SELECT id, ticket_id, actor_id, actor_role, field, old_value, new_value, note, created_at
        FROM audit_entries WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// CountTicketsChanged counts distinct tickets with at least one ledger
// entry inside the window.
func (r *auditRepository) CountTicketsChanged(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `
        SELECT COUNT(DISTINCT ticket_id) FROM audit_entries
        WHERE created_at >= $1 AND created_at <= $2`
	var count int64
	err := r.db.QueryRow(ctx, query, from, to).Scan(&count)
	return count, err
}
