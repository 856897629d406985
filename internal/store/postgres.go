package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/logger"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

// PostgresStore keeps the snapshot as a single JSONB row. The whole
// document is replaced in one statement, which gives the same
// all-or-nothing commit as the file backend's rename.
type PostgresStore struct {
	pool *pgxpool.Pool
	lg   *logger.Logger
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, lg: logger.New("queue-store")}
}

// EnsureSchema creates the snapshot and archive tables if missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS queue_state (
    id         smallint PRIMARY KEY CHECK (id = 1),
    snapshot   jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS queue_archive (
    id          bigserial PRIMARY KEY,
    archived_on date NOT NULL,
    order_id    text NOT NULL,
    ticket      text NOT NULL,
    payload     jsonb NOT NULL,
    archived_at timestamptz NOT NULL DEFAULT now()
);`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure queue schema: %w", err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context) (domain.QueueState, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT snapshot FROM queue_state WHERE id = 1`).Scan(&raw)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.lg.Error("queue_row_unreadable", err, nil)
		}
		return Fresh(), nil
	}
	var st domain.QueueState
	if err := json.Unmarshal(raw, &st); err != nil {
		p.lg.Error("queue_row_corrupt", err, nil)
		return Fresh(), nil
	}
	if st.Orders == nil {
		st.Orders = []domain.Order{}
	}
	return st, nil
}

func (p *PostgresStore) Save(ctx context.Context, st domain.QueueState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal queue state: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO queue_state (id, snapshot, updated_at) VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`, raw)
	if err != nil {
		return fmt.Errorf("commit queue state: %w", err)
	}
	return nil
}

func (p *PostgresStore) Archive(ctx context.Context, date string, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, o := range orders {
		payload, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal archived order %s: %w", o.ID, err)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO queue_archive (archived_on, order_id, ticket, payload) VALUES ($1, $2, $3, $4)`,
			date, o.ID, o.Ticket, payload); err != nil {
			return fmt.Errorf("archive order %s: %w", o.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}
