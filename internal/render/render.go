// Package render turns dashboard data into display strings and HTML pages.
package render

import (
	"github.com/boddenberg/presupuesto-bff/internal/domain"
)

// SummaryView holds the four formatted summary figures.
type SummaryView struct {
	TotalIngresos    string `json:"total_ingresos"`
	TotalGastos      string `json:"total_gastos"`
	Saldo            string `json:"saldo"`
	PorcentajeAhorro string `json:"porcentaje_ahorro"`
}

// ItemView is one rendered transaction.
type ItemView struct {
	Concepto string `json:"concepto"`
	Meta     string `json:"meta"`
	Monto    string `json:"monto"`
}

// ListView is a rendered transaction list. When Empty is set, Placeholder is
// the only thing to show.
type ListView struct {
	Kind        domain.TransactionKind `json:"kind"`
	Empty       bool                   `json:"empty"`
	Placeholder string                 `json:"placeholder,omitempty"`
	Items       []ItemView             `json:"items"`
}

// DashboardView is the display model of a dashboard.
type DashboardView struct {
	Summary  SummaryView `json:"resumen"`
	Incomes  ListView    `json:"ingresos"`
	Expenses ListView    `json:"gastos"`
}

// Render formats a summary and both lists. It has no side effects.
func Render(summary domain.Summary, incomes, expenses []domain.Transaction) DashboardView {
	return DashboardView{
		Summary: SummaryView{
			TotalIngresos:    Currency(summary.TotalIngresos),
			TotalGastos:      Currency(summary.TotalGastos),
			Saldo:            Currency(summary.Saldo),
			PorcentajeAhorro: Percent(summary.PorcentajeAhorro),
		},
		Incomes:  renderList(domain.KindIncome, incomes),
		Expenses: renderList(domain.KindExpense, expenses),
	}
}

// Placeholder is the text shown for an empty list.
func Placeholder(kind domain.TransactionKind) string {
	return "No hay " + string(kind) + " registrados"
}

func renderList(kind domain.TransactionKind, list []domain.Transaction) ListView {
	if len(list) == 0 {
		return ListView{Kind: kind, Empty: true, Placeholder: Placeholder(kind), Items: []ItemView{}}
	}
	items := make([]ItemView, 0, len(list))
	for _, tx := range list {
		items = append(items, renderItem(tx))
	}
	return ListView{Kind: kind, Items: items}
}

func renderItem(tx domain.Transaction) ItemView {
	concepto := tx.Concepto
	if concepto == "" {
		concepto = "Sin concepto"
	}
	categoria := tx.CategoriaNombre
	if categoria == "" {
		categoria = "Sin categoría"
	}

	meta := categoria + " • " + Date(tx.Fecha)
	if tx.Esencial != nil {
		if *tx.Esencial {
			meta += " • 🟢 Esencial"
		} else {
			meta += " • 🟡 No esencial"
		}
	}

	return ItemView{
		Concepto: concepto,
		Meta:     meta,
		Monto:    Currency(float64(tx.Monto)),
	}
}
