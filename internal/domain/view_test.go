package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewState_Period(t *testing.T) {
	tests := []struct {
		name      string
		month     int
		year      int
		wantFirst string
		wantLast  string
	}{
		{name: "thirty one days", month: 3, year: 2025, wantFirst: "2025-03-01", wantLast: "2025-03-31"},
		{name: "leap february", month: 2, year: 2024, wantFirst: "2024-02-01", wantLast: "2024-02-29"},
		{name: "plain february", month: 2, year: 2025, wantFirst: "2025-02-01", wantLast: "2025-02-28"},
		{name: "december", month: 12, year: 2025, wantFirst: "2025-12-01", wantLast: "2025-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := domain.NewViewState(7, tt.month, tt.year)
			require.NoError(t, err)

			first, last := v.Period()

			assert.Equal(t, tt.wantFirst, first.Format(domain.DateLayout))
			assert.Equal(t, tt.wantLast, last.Format(domain.DateLayout))
			assert.Equal(t, 0, first.Hour())
			assert.Equal(t, 23, last.Hour())
			assert.True(t, last.Add(time.Nanosecond).Equal(first.AddDate(0, 1, 0)))
		})
	}
}

func TestParseViewState(t *testing.T) {
	ref := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.Local)

	v, err := domain.ParseViewState(7, "", "", ref)
	require.NoError(t, err)
	assert.Equal(t, domain.ViewState{UserID: 7, Month: 3, Year: 2025}, v)

	v, err = domain.ParseViewState(7, "11", "", ref)
	require.NoError(t, err)
	assert.Equal(t, domain.ViewState{UserID: 7, Month: 11, Year: 2025}, v)

	_, err = domain.ParseViewState(7, "13", "2025", ref)
	var verr *domain.ErrValidation
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "mes", verr.Field)

	_, err = domain.ParseViewState(7, "3", "abc", ref)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "anio", verr.Field)
}

func TestViewState_Title(t *testing.T) {
	assert.Equal(t, "- Enero 2025", domain.ViewState{Month: 1, Year: 2025}.Title())
	assert.Equal(t, "Mes desconocido", domain.ViewState{Month: 0}.MonthName())
}
