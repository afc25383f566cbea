package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newCache[T any](t *testing.T, ttl time.Duration) (*InMemory[T], *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New[T](ttl)
	c.now = clk.now
	t.Cleanup(c.Close)
	return c, clk
}

func TestInMemory_SetAndGet(t *testing.T) {
	c, _ := newCache[string](t, 5*time.Minute)

	c.Set("key1", "value1")

	val, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", val)

	_, ok = c.Get("nonexistent")
	assert.False(t, ok)
}

func TestInMemory_Expiration(t *testing.T) {
	c, clk := newCache[string](t, time.Minute)
	c.Set("key1", "value1")

	clk.advance(59 * time.Second)
	_, ok := c.Get("key1")
	assert.True(t, ok)

	clk.advance(time.Second)
	_, ok = c.Get("key1")
	assert.False(t, ok)
}

func TestInMemory_EvictExpired(t *testing.T) {
	c, clk := newCache[int](t, time.Minute)
	c.Set("old", 1)
	clk.advance(30 * time.Second)
	c.Set("new", 2)

	clk.advance(45 * time.Second)
	c.evictExpired()

	assert.Equal(t, 1, c.Len())
	v, ok := c.Get("new")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInMemory_Delete(t *testing.T) {
	c, _ := newCache[string](t, 5*time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestInMemory_ZeroTTLDisablesStorage(t *testing.T) {
	c, _ := newCache[string](t, 0)

	c.Set("key1", "value1")

	_, ok := c.Get("key1")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestInMemory_CategorySet(t *testing.T) {
	c, _ := newCache[domain.CategorySet](t, time.Minute)
	set := domain.CategorySet{
		Ingresos: []domain.Category{{ID: "1", Nombre: "Salario"}},
		Gastos:   []domain.Category{{ID: "4", Nombre: "Vivienda"}},
	}

	c.Set("categorias", set)

	got, ok := c.Get("categorias")
	require.True(t, ok)
	assert.Equal(t, set, got)
}

func TestInMemory_CloseTwice(t *testing.T) {
	c := New[string](time.Minute)
	c.Close()
	assert.NotPanics(t, c.Close)

	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.True(t, ok)
}
