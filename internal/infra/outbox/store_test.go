package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "outbox.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func expense(user int64, concepto string) *domain.NewTransaction {
	essential := true
	return &domain.NewTransaction{
		Concepto: concepto, Monto: 1000, CategoriaID: 3, Fecha: "2025-03-01", UsuarioID: user, Esencial: &essential,
	}
}

func TestStore_EnqueueAndDue(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Enqueue(ctx, domain.KindExpense, expense(7, "Alquiler"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	due, err := s.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)
	assert.Equal(t, domain.KindExpense, due[0].Kind)
	assert.Equal(t, "Alquiler", due[0].Payload.Concepto)
	require.NotNil(t, due[0].Payload.Esencial)
	assert.True(t, *due[0].Payload.Esencial)
	assert.Equal(t, 0, due[0].Attempts)
}

func TestStore_MarkFailedDefersEntry(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	id, err := s.Enqueue(ctx, domain.KindIncome, expense(7, "Salario"))
	require.NoError(t, err)

	require.NoError(t, s.MarkFailed(ctx, id, "status 503", base.Add(time.Minute)))

	due, err := s.Due(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	due, err = s.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)
	assert.Equal(t, "status 503", due[0].LastError)
}

func TestStore_MarkSentAndCount(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a, err := s.Enqueue(ctx, domain.KindExpense, expense(7, "a"))
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, domain.KindExpense, expense(7, "b"))
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, domain.KindExpense, expense(9, "c"))
	require.NoError(t, err)

	n, err := s.PendingCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.MarkSent(ctx, a))

	n, err = s.PendingCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.PendingCount(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_UnknownIDIsNotFound(t *testing.T) {
	s := openStore(t)

	var nf *domain.ErrNotFound
	assert.True(t, errors.As(s.Discard(context.Background(), "missing"), &nf))
	assert.True(t, errors.As(s.MarkFailed(context.Background(), "missing", "x", time.Now()), &nf))
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	_, err = s.Enqueue(context.Background(), domain.KindIncome, expense(1, "x"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	n, err := s.PendingCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
