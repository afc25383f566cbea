package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const categoriesCacheKey = "categorias"

// CategoryProvider loads both category lists, substituting the hard-coded
// defaults when the API cannot provide them.
type CategoryProvider struct {
	api     port.CategoryFetcher
	cache   port.Cache[domain.CategorySet]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCategoryProvider creates a category provider.
func NewCategoryProvider(api port.CategoryFetcher, cache port.Cache[domain.CategorySet], metrics *observability.Metrics, logger *zap.Logger) *CategoryProvider {
	return &CategoryProvider{api: api, cache: cache, metrics: metrics, logger: logger}
}

// FetchCategories returns both lists. If either request fails, BOTH lists
// are replaced by the defaults and Fallback is set. Only API results are
// cached.
func (p *CategoryProvider) FetchCategories(ctx context.Context) domain.CategorySet {
	ctx, span := tracer.Start(ctx, "CategoryProvider.FetchCategories")
	defer span.End()

	if cached, ok := p.cache.Get(categoriesCacheKey); ok {
		p.metrics.IncrCacheHit("categorias")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached
	}
	p.metrics.IncrCacheMiss("categorias")

	var set domain.CategorySet

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := p.api.GetCategories(gCtx, domain.KindIncome)
		if err != nil {
			return fmt.Errorf("income categories: %w", err)
		}
		set.Ingresos = list
		return nil
	})
	g.Go(func() error {
		list, err := p.api.GetCategories(gCtx, domain.KindExpense)
		if err != nil {
			return fmt.Errorf("expense categories: %w", err)
		}
		set.Gastos = list
		return nil
	})

	if err := g.Wait(); err != nil {
		p.logger.Warn("using default categories", zap.Error(err))
		p.metrics.IncrUpstreamError("categorias")
		p.metrics.IncrFallback("categorias")
		span.SetAttributes(attribute.Bool("categories.fallback", true))
		return DefaultCategories()
	}

	if set.Ingresos == nil {
		set.Ingresos = []domain.Category{}
	}
	if set.Gastos == nil {
		set.Gastos = []domain.Category{}
	}
	p.cache.Set(categoriesCacheKey, set)
	return set
}

// DefaultCategories is the fallback category set.
func DefaultCategories() domain.CategorySet {
	return domain.CategorySet{
		Ingresos: domain.DefaultIncomeCategories(),
		Gastos:   domain.DefaultExpenseCategories(),
		Fallback: true,
	}
}
