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
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var march = domain.ViewState{UserID: 7, Month: 3, Year: 2025}

var loaderNow = time.Date(2025, time.March, 15, 9, 0, 0, 0, time.Local)

func newLoader(api *fakeAPI, metrics *observability.Metrics) *service.Loader {
	return service.NewLoader(api, 5, func() time.Time { return loaderNow }, metrics, zap.NewNop())
}

func TestLoad_AllFromAPI(t *testing.T) {
	api := &fakeAPI{
		summary: &domain.Summary{TotalIngresos: 100, TotalGastos: 40, Saldo: 60, PorcentajeAhorro: 60},
		lists: map[domain.TransactionKind][]domain.Transaction{
			domain.KindIncome:  {{ID: 1, Concepto: "Sueldo", Monto: 100}},
			domain.KindExpense: {},
		},
	}

	data := newLoader(api, observability.NewMetrics()).Load(context.Background(), march)

	assert.Equal(t, march, data.View)
	assert.Equal(t, march, api.gotView)
	assert.Equal(t, 5, api.gotLimit)
	assert.Equal(t, 60.0, data.Summary.Saldo)
	assert.Len(t, data.Incomes, 1)
	assert.Empty(t, data.Expenses)
	assert.Equal(t, domain.Sources{Summary: "api", Incomes: "api", Expenses: "api"}, data.Sources)
	assert.False(t, data.SampleData)
	assert.Empty(t, data.Banner)
}

func TestLoad_PartsFallBackIndependently(t *testing.T) {
	api := &fakeAPI{
		summaryErr: &domain.ErrUpstreamStatus{Status: 500},
		lists: map[domain.TransactionKind][]domain.Transaction{
			domain.KindExpense: {{ID: 9, Concepto: "Cine", Monto: 20}},
		},
		listErr: map[domain.TransactionKind]error{domain.KindIncome: errDown},
	}
	metrics := observability.NewMetrics()

	data := newLoader(api, metrics).Load(context.Background(), march)

	assert.Equal(t, domain.Summary{}, data.Summary, "summary falls back to zeros")
	require.Len(t, data.Incomes, 2)
	assert.Equal(t, "Salario mensual", data.Incomes[0].Concepto)
	assert.Equal(t, domain.Amount(2500000), data.Incomes[0].Monto)
	assert.Equal(t, "2025-03-15", data.Incomes[0].Fecha, "sample rows are dated by the loader clock")
	require.Len(t, data.Expenses, 1)
	assert.Equal(t, "Cine", data.Expenses[0].Concepto)
	assert.Equal(t, domain.Sources{Summary: "fallback", Incomes: "fallback", Expenses: "api"}, data.Sources)
	assert.False(t, data.SampleData)

	snap := metrics.Snapshot()
	assert.Equal(t, float64(1), snap.Fallbacks["resumen"])
	assert.Equal(t, float64(1), snap.Fallbacks["ingresos"])
	assert.Equal(t, float64(0), snap.Fallbacks["gastos"])
}

func TestLoad_EverythingFailsShowsSampleScenario(t *testing.T) {
	api := &fakeAPI{
		summaryErr: errDown,
		listErr: map[domain.TransactionKind]error{
			domain.KindIncome:  errDown,
			domain.KindExpense: &domain.ErrCircuitOpen{Service: "finance-api"},
		},
	}
	metrics := observability.NewMetrics()

	data := newLoader(api, metrics).Load(context.Background(), march)

	assert.True(t, data.SampleData)
	assert.Equal(t, domain.SampleDataBanner, data.Banner)
	assert.Equal(t, domain.SampleSummary(), data.Summary)
	assert.Len(t, data.Incomes, 2)
	require.Len(t, data.Expenses, 2)
	require.NotNil(t, data.Expenses[0].Esencial)
	assert.True(t, bool(*data.Expenses[0].Esencial))
	assert.Equal(t, float64(1), metrics.Snapshot().Fallbacks["sample_scenario"])
}

func TestLoad_SampleRowsUseInjectedClock(t *testing.T) {
	api := &fakeAPI{
		summaryErr: errDown,
		listErr:    map[domain.TransactionKind]error{domain.KindIncome: errDown, domain.KindExpense: errDown},
	}
	frozen := time.Date(2024, time.February, 29, 23, 30, 0, 0, time.Local)
	loader := service.NewLoader(api, 5, func() time.Time { return frozen }, observability.NewMetrics(), zap.NewNop())

	data := loader.Load(context.Background(), march)

	require.True(t, data.SampleData)
	for _, tx := range append(data.Incomes, data.Expenses...) {
		assert.Equal(t, "2024-02-29", tx.Fecha, tx.Concepto)
	}
}

func TestNewLoader_NilClockDefaultsToNow(t *testing.T) {
	api := &fakeAPI{
		summaryErr: errDown,
		listErr:    map[domain.TransactionKind]error{domain.KindIncome: errDown, domain.KindExpense: errDown},
	}
	loader := service.NewLoader(api, 5, nil, observability.NewMetrics(), zap.NewNop())

	before := time.Now().Format(domain.DateLayout)
	data := loader.Load(context.Background(), march)
	after := time.Now().Format(domain.DateLayout)

	require.NotEmpty(t, data.Incomes)
	assert.Contains(t, []string{before, after}, data.Incomes[0].Fecha)
}

func TestLoad_PanicShowsSampleScenario(t *testing.T) {
	api := &fakeAPI{panicOn: "resumen"}

	data := newLoader(api, observability.NewMetrics()).Load(context.Background(), march)

	assert.True(t, data.SampleData)
	assert.Equal(t, domain.SampleDataBanner, data.Banner)
}

func TestOverview_RunsBootstrapTogether(t *testing.T) {
	api := &fakeAPI{
		categories: apiCategories(),
		summary:    &domain.Summary{Saldo: 1},
		lists:      map[domain.TransactionKind][]domain.Transaction{},
	}
	metrics := observability.NewMetrics()
	d := service.NewDashboard(
		service.NewCategoryProvider(api, cache.New[domain.CategorySet](time.Minute), metrics, zap.NewNop()),
		newLoader(api, metrics),
		&fakeOutbox{pending: 3},
		zap.NewNop(),
	)

	o := d.Overview(context.Background(), march)
	assert.False(t, o.Categories.Fallback)
	assert.Equal(t, 1.0, o.Data.Summary.Saldo)
	assert.Equal(t, 3, o.Pending)
}

func TestOverview_NoOutbox(t *testing.T) {
	api := &fakeAPI{summary: &domain.Summary{}}
	metrics := observability.NewMetrics()
	d := service.NewDashboard(
		service.NewCategoryProvider(api, cache.New[domain.CategorySet](0), metrics, zap.NewNop()),
		newLoader(api, metrics),
		nil,
		zap.NewNop(),
	)

	assert.Equal(t, 0, d.Overview(context.Background(), march).Pending)
}
