// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the finance API client, the outbox and the cache backends.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
)

// Authenticator checks credentials against the finance API.
type Authenticator interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
}

// CategoryFetcher retrieves one category list.
type CategoryFetcher interface {
	GetCategories(ctx context.Context, kind domain.TransactionKind) ([]domain.Category, error)
}

// SummaryFetcher retrieves the month summary.
type SummaryFetcher interface {
	GetSummary(ctx context.Context, view domain.ViewState) (*domain.Summary, error)
}

// TransactionsFetcher retrieves a month-scoped transaction list.
type TransactionsFetcher interface {
	ListTransactions(ctx context.Context, kind domain.TransactionKind, view domain.ViewState, limit int) ([]domain.Transaction, error)
}

// TransactionWriter posts a new transaction.
type TransactionWriter interface {
	CreateTransaction(ctx context.Context, kind domain.TransactionKind, tx *domain.NewTransaction) (*domain.WriteResponse, error)
}

// FinanceAPI is the full finance API surface.
type FinanceAPI interface {
	Authenticator
	CategoryFetcher
	SummaryFetcher
	TransactionsFetcher
	TransactionWriter
}

// Outbox stores writes the API could not confirm.
type Outbox interface {
	Enqueue(ctx context.Context, kind domain.TransactionKind, tx *domain.NewTransaction) (string, error)
	Due(ctx context.Context, limit int) ([]domain.PendingTransaction, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause string, nextAttempt time.Time) error
	Discard(ctx context.Context, id string) error
	PendingCount(ctx context.Context, userID int64) (int, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
