// Package service holds the dashboard use cases: category loading, the
// month-scoped data loader, transaction submission and login.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// DashboardReader is what the loader needs from the finance API.
type DashboardReader interface {
	port.SummaryFetcher
	port.TransactionsFetcher
}

// Loader fetches the summary and both transaction lists for a month.
type Loader struct {
	api       DashboardReader
	listLimit int
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewLoader creates a dashboard loader. listLimit is sent as "limite"; now
// dates the sample rows and defaults to time.Now.
func NewLoader(api DashboardReader, listLimit int, now func() time.Time, metrics *observability.Metrics, logger *zap.Logger) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{api: api, listLimit: listLimit, metrics: metrics, logger: logger, now: now}
}

// Load never fails: each part that cannot be fetched is replaced by its
// fallback, and if nothing could be fetched (or the load panicked) the whole
// result becomes the sample scenario with its banner.
func (l *Loader) Load(ctx context.Context, view domain.ViewState) (data domain.DashboardData) {
	ctx, span := tracer.Start(ctx, "Loader.Load")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("usuario.id", view.UserID),
		attribute.Int("view.month", view.Month),
		attribute.Int("view.year", view.Year),
	)

	start := time.Now()
	defer func() {
		l.metrics.RecordRequestDuration("dashboard_load", time.Since(start))
	}()

	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dashboard load panicked", zap.Any("panic", r))
			data = l.sampleScenario(view)
		}
	}()

	data = domain.DashboardData{
		View: view,
		Sources: domain.Sources{
			Summary:  domain.SourceAPI,
			Incomes:  domain.SourceAPI,
			Expenses: domain.SourceAPI,
		},
	}
	today := l.now()

	var panicked atomic.Bool
	guard := func(part string, fn func()) func() error {
		return func() error {
			defer func() {
				if r := recover(); r != nil {
					panicked.Store(true)
					l.logger.Error("dashboard part panicked", zap.String("part", part), zap.Any("panic", r))
				}
			}()
			fn()
			return nil
		}
	}

	// Parts are independent: a failure never cancels the others.
	var g errgroup.Group
	g.Go(guard("resumen", func() {
		s, err := l.api.GetSummary(ctx, view)
		if err != nil {
			l.fallback("resumen", view, err)
			data.Summary = domain.Summary{}
			data.Sources.Summary = domain.SourceFallback
			return
		}
		data.Summary = *s
	}))
	g.Go(guard("ingresos", func() {
		data.Incomes, data.Sources.Incomes = l.list(ctx, domain.KindIncome, view, today)
	}))
	g.Go(guard("gastos", func() {
		data.Expenses, data.Sources.Expenses = l.list(ctx, domain.KindExpense, view, today)
	}))
	_ = g.Wait()

	if panicked.Load() {
		return l.sampleScenario(view)
	}
	if data.Sources.AllFallback() {
		l.logger.Warn("every dashboard read failed, showing sample data",
			zap.Int64("usuario_id", view.UserID),
		)
		return l.sampleScenario(view)
	}
	return data
}

func (l *Loader) list(ctx context.Context, kind domain.TransactionKind, view domain.ViewState, today time.Time) ([]domain.Transaction, domain.Source) {
	list, err := l.api.ListTransactions(ctx, kind, view, l.listLimit)
	if err != nil {
		l.fallback(string(kind), view, err)
		return domain.SampleTransactions(kind, today), domain.SourceFallback
	}
	return list, domain.SourceAPI
}

func (l *Loader) fallback(resource string, view domain.ViewState, err error) {
	l.logger.Warn("dashboard read failed, using fallback",
		zap.String("resource", resource),
		zap.Int64("usuario_id", view.UserID),
		zap.Error(err),
	)
	l.metrics.IncrUpstreamError(resource)
	l.metrics.IncrFallback(resource)
}

func (l *Loader) sampleScenario(view domain.ViewState) domain.DashboardData {
	l.metrics.IncrFallback("sample_scenario")
	today := l.now()
	return domain.DashboardData{
		View:     view,
		Summary:  domain.SampleSummary(),
		Incomes:  domain.SampleTransactions(domain.KindIncome, today),
		Expenses: domain.SampleTransactions(domain.KindExpense, today),
		Sources: domain.Sources{
			Summary:  domain.SourceFallback,
			Incomes:  domain.SourceFallback,
			Expenses: domain.SourceFallback,
		},
		SampleData: true,
		Banner:     domain.SampleDataBanner,
	}
}

// Overview is everything the dashboard page shows for one month.
type Overview struct {
	Data       domain.DashboardData
	Categories domain.CategorySet
	// Pending is the user's outbox backlog.
	Pending int
}

// Dashboard runs the page bootstrap: categories and the loader in parallel.
type Dashboard struct {
	categories *CategoryProvider
	loader     *Loader
	outbox     port.Outbox
	logger     *zap.Logger
}

// NewDashboard wires the bootstrap. outbox may be nil when disabled.
func NewDashboard(categories *CategoryProvider, loader *Loader, outbox port.Outbox, logger *zap.Logger) *Dashboard {
	return &Dashboard{categories: categories, loader: loader, outbox: outbox, logger: logger}
}

// Categories returns the category lists alone.
func (d *Dashboard) Categories(ctx context.Context) domain.CategorySet {
	return d.categories.FetchCategories(ctx)
}

// Overview loads categories, month data and the outbox backlog concurrently.
func (d *Dashboard) Overview(ctx context.Context, view domain.ViewState) *Overview {
	ctx, span := tracer.Start(ctx, "Dashboard.Overview")
	defer span.End()

	var out Overview
	var g errgroup.Group
	g.Go(func() error {
		out.Categories = d.categories.FetchCategories(ctx)
		return nil
	})
	g.Go(func() error {
		out.Data = d.loader.Load(ctx, view)
		return nil
	})
	g.Go(func() error {
		n, err := d.pending(ctx, view.UserID)
		if err != nil {
			d.logger.Warn("failed to count pending transactions", zap.Error(err))
			return nil
		}
		out.Pending = n
		return nil
	})
	_ = g.Wait()
	return &out
}

func (d *Dashboard) pending(ctx context.Context, userID int64) (int, error) {
	if d.outbox == nil {
		return 0, nil
	}
	n, err := d.outbox.PendingCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count outbox: %w", err)
	}
	return n, nil
}
