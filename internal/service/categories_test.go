package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/cache"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/service"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func apiCategories() map[domain.TransactionKind][]domain.Category {
	return map[domain.TransactionKind][]domain.Category{
		domain.KindIncome:  {{ID: "10", Nombre: "Sueldo"}},
		domain.KindExpense: {{ID: "20", Nombre: "Comida"}},
	}
}

func TestFetchCategories_FromAPIAndCached(t *testing.T) {
	api := &fakeAPI{categories: apiCategories()}
	metrics := observability.NewMetrics()
	p := service.NewCategoryProvider(api, cache.New[domain.CategorySet](time.Minute), metrics, zap.NewNop())

	set := p.FetchCategories(context.Background())
	assert.False(t, set.Fallback)
	assert.Equal(t, "Sueldo", set.Ingresos[0].Nombre)
	assert.Equal(t, "Comida", set.Gastos[0].Nombre)
	assert.Equal(t, 2, api.categoryCalls)

	again := p.FetchCategories(context.Background())
	assert.Equal(t, set, again)
	assert.Equal(t, 2, api.categoryCalls, "second call is served from cache")
	assert.Equal(t, 0.5, metrics.Snapshot().CacheHitRate)
}

func TestFetchCategories_FallbackIsAllOrNothing(t *testing.T) {
	api := &fakeAPI{
		categories:    apiCategories(),
		categoriesErr: map[domain.TransactionKind]error{domain.KindExpense: &domain.ErrUpstreamStatus{Status: 500}},
	}
	metrics := observability.NewMetrics()
	p := service.NewCategoryProvider(api, cache.New[domain.CategorySet](time.Minute), metrics, zap.NewNop())

	set := p.FetchCategories(context.Background())
	assert.True(t, set.Fallback)
	assert.Equal(t, domain.DefaultIncomeCategories(), set.Ingresos, "income list is replaced too")
	assert.Equal(t, domain.DefaultExpenseCategories(), set.Gastos)
	assert.Len(t, set.Ingresos, 5)
	assert.Len(t, set.Gastos, 7)
	assert.Equal(t, float64(1), metrics.Snapshot().Fallbacks["categorias"])

	// Fallbacks are not cached: the API is asked again.
	calls := api.categoryCalls
	p.FetchCategories(context.Background())
	assert.Greater(t, api.categoryCalls, calls)
}

func TestFetchCategories_SchemaErrorFallsBack(t *testing.T) {
	api := &fakeAPI{
		categories:    apiCategories(),
		categoriesErr: map[domain.TransactionKind]error{domain.KindIncome: &domain.ErrSchema{Resource: "categorias"}},
	}
	p := service.NewCategoryProvider(api, cache.New[domain.CategorySet](0), observability.NewMetrics(), zap.NewNop())

	assert.True(t, p.FetchCategories(context.Background()).Fallback)
}
