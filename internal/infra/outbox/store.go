// Package outbox keeps transaction writes the finance API could not confirm,
// so they can be replayed later instead of being reported as saved.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed outbox.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open creates (if needed) and migrates the outbox database at dbPath.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create outbox directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open outbox database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping outbox database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by /readyz.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Enqueue stores tx for later delivery and returns the entry id. The entry is
// due immediately.
func (s *Store) Enqueue(ctx context.Context, kind domain.TransactionKind, tx *domain.NewTransaction) (string, error) {
	payload, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("encode pending transaction: %w", err)
	}

	id := uuid.NewString()
	now := s.now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_transactions (id, user_id, kind, payload, created_at, next_attempt_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, tx.UsuarioID, string(kind), string(payload), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert pending transaction: %w", err)
	}

	s.logger.Info("transaction queued in outbox",
		zap.String("id", id),
		zap.String("kind", string(kind)),
		zap.Int64("usuario_id", tx.UsuarioID),
	)
	return id, nil
}

// Due returns up to limit entries whose next attempt time has passed, oldest first.
func (s *Store) Due(ctx context.Context, limit int) ([]domain.PendingTransaction, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, payload, attempts, last_error
		   FROM pending_transactions
		  WHERE next_attempt_at <= ?
		  ORDER BY created_at, id
		  LIMIT ?`,
		s.now().UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due transactions: %w", err)
	}
	defer rows.Close()

	var due []domain.PendingTransaction
	for rows.Next() {
		var (
			p       domain.PendingTransaction
			kind    string
			payload string
		)
		if err := rows.Scan(&p.ID, &kind, &payload, &p.Attempts, &p.LastError); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &p.Payload); err != nil {
			s.logger.Error("corrupt outbox entry", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		p.Kind = domain.TransactionKind(kind)
		due = append(due, p)
	}
	return due, rows.Err()
}

// MarkSent removes a delivered entry.
func (s *Store) MarkSent(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// Discard removes an entry that will never be accepted.
func (s *Store) Discard(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

func (s *Store) delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "pending_transaction", ID: id}
	}
	return nil
}

// MarkFailed records a failed delivery attempt and schedules the next one.
func (s *Store) MarkFailed(ctx context.Context, id string, cause string, nextAttempt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_transactions
		    SET attempts = attempts + 1, last_error = ?, next_attempt_at = ?
		  WHERE id = ?`,
		cause, nextAttempt.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update pending transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "pending_transaction", ID: id}
	}
	return nil
}

// PendingCount returns the number of entries for userID. A userID of 0
// counts every entry.
func (s *Store) PendingCount(ctx context.Context, userID int64) (int, error) {
	var (
		n   int
		err error
	)
	if userID == 0 {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_transactions`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pending_transactions WHERE user_id = ?`, userID,
		).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count pending transactions: %w", err)
	}
	return n, nil
}
