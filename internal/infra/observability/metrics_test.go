package observability_test

import (
	"testing"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Empty(t *testing.T) {
	snap := observability.NewMetrics().Snapshot()

	require.Len(t, snap.Fallbacks, len(observability.FallbackResources))
	for _, res := range observability.FallbackResources {
		assert.Zero(t, snap.Fallbacks[res], res)
	}
	assert.Zero(t, snap.CacheHitRate)
	assert.Zero(t, snap.OutboxPending)
}

func TestSnapshot_Counts(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrFallback("resumen")
	m.IncrFallback("resumen")
	m.IncrFallback("sample_scenario")
	m.IncrSubmission(domain.KindExpense, domain.OutcomeQueued)
	m.IncrCacheHit("categorias")
	m.IncrCacheHit("categorias")
	m.IncrCacheHit("categorias")
	m.IncrCacheMiss("categorias")
	m.IncrSupersededLoad()
	m.SetOutboxPending(4)
	m.RecordRequestDuration("dashboard", 20*time.Millisecond)

	snap := m.Snapshot()

	assert.Equal(t, 2.0, snap.Fallbacks["resumen"])
	assert.Equal(t, 1.0, snap.Fallbacks["sample_scenario"])
	assert.Equal(t, 1.0, snap.Submissions["gastos/queued"])
	assert.Equal(t, 0.0, snap.Submissions["ingresos/confirmed"])
	assert.Equal(t, 0.75, snap.CacheHitRate)
	assert.Equal(t, 1.0, snap.SupersededLoad)
	assert.Equal(t, 4.0, snap.OutboxPending)
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.IncrFallback("gastos")

	assert.Equal(t, 1.0, a.Snapshot().Fallbacks["gastos"])
	assert.Zero(t, b.Snapshot().Fallbacks["gastos"])
}
