package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
)

// --- Fakes ---

type fakeAPI struct {
	mu sync.Mutex

	categories    map[domain.TransactionKind][]domain.Category
	categoriesErr map[domain.TransactionKind]error
	categoryCalls int

	summary    *domain.Summary
	summaryErr error
	lists      map[domain.TransactionKind][]domain.Transaction
	listErr    map[domain.TransactionKind]error
	gotLimit   int
	gotView    domain.ViewState

	writeResp *domain.WriteResponse
	writeErr  error
	written   []*domain.NewTransaction
	loginResp *domain.LoginResponse
	loginErr  error
	panicOn   string
}

func (f *fakeAPI) GetCategories(_ context.Context, kind domain.TransactionKind) ([]domain.Category, error) {
	f.mu.Lock()
	f.categoryCalls++
	f.mu.Unlock()
	if err := f.categoriesErr[kind]; err != nil {
		return nil, err
	}
	return f.categories[kind], nil
}

func (f *fakeAPI) GetSummary(_ context.Context, view domain.ViewState) (*domain.Summary, error) {
	if f.panicOn == "resumen" {
		panic("boom")
	}
	f.mu.Lock()
	f.gotView = view
	f.mu.Unlock()
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeAPI) ListTransactions(_ context.Context, kind domain.TransactionKind, _ domain.ViewState, limit int) ([]domain.Transaction, error) {
	f.mu.Lock()
	f.gotLimit = limit
	f.mu.Unlock()
	if err := f.listErr[kind]; err != nil {
		return nil, err
	}
	return f.lists[kind], nil
}

func (f *fakeAPI) CreateTransaction(_ context.Context, _ domain.TransactionKind, tx *domain.NewTransaction) (*domain.WriteResponse, error) {
	f.mu.Lock()
	f.written = append(f.written, tx)
	f.mu.Unlock()
	return f.writeResp, f.writeErr
}

func (f *fakeAPI) Login(_ context.Context, _ *domain.LoginRequest) (*domain.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

type fakeOutbox struct {
	mu      sync.Mutex
	queued  []*domain.NewTransaction
	err     error
	pending int
}

func (o *fakeOutbox) Enqueue(_ context.Context, _ domain.TransactionKind, tx *domain.NewTransaction) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queued = append(o.queued, tx)
	return "id-1", nil
}

func (o *fakeOutbox) Due(context.Context, int) ([]domain.PendingTransaction, error) { return nil, nil }
func (o *fakeOutbox) MarkSent(context.Context, string) error                        { return nil }
func (o *fakeOutbox) MarkFailed(context.Context, string, string, time.Time) error   { return nil }
func (o *fakeOutbox) Discard(context.Context, string) error                         { return nil }
func (o *fakeOutbox) PendingCount(context.Context, int64) (int, error)              { return o.pending, o.err }

var errDown = errors.New("connection refused")
