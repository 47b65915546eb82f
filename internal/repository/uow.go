package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRepos bundles the repositories that take part in an atomic
// transition: the ticket mutation and its audit appends commit or roll
// back together.
type TxRepos struct {
	Tickets     TicketRepository
	Audit       AuditRepository
	Attachments AttachmentRepository
}

// UnitOfWork runs a function with transaction-bound repositories.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(TxRepos) error) error
}

type pgxUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork builds a pgx-backed unit of work.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgxUnitOfWork{pool: pool}
}

func (u *pgxUnitOfWork) Do(ctx context.Context, fn func(TxRepos) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	repos := TxRepos{
		Tickets:     NewTicketRepository(tx),
		Audit:       NewAuditRepository(tx),
		Attachments: NewAttachmentRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
