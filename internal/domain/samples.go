package domain

import "time"

// Placeholder data shown when the finance API is unreachable. None of it
// represents real user data.

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// SampleDataBanner is shown when every dashboard read failed.
const SampleDataBanner = "Error cargando datos. Mostrando información de ejemplo."

// DefaultIncomeCategories is the income fallback list (ids 1..5).
func DefaultIncomeCategories() []Category {
	return []Category{
		{ID: "1", Nombre: "Salario"},
		{ID: "2", Nombre: "Freelance"},
		{ID: "3", Nombre: "Inversiones"},
		{ID: "4", Nombre: "Regalos"},
		{ID: "5", Nombre: "Otros"},
	}
}

// DefaultExpenseCategories is the expense fallback list (ids 1..7).
func DefaultExpenseCategories() []Category {
	return []Category{
		{ID: "1", Nombre: "Alimentación"},
		{ID: "2", Nombre: "Transporte"},
		{ID: "3", Nombre: "Vivienda"},
		{ID: "4", Nombre: "Entretenimiento"},
		{ID: "5", Nombre: "Salud"},
		{ID: "6", Nombre: "Educación"},
		{ID: "7", Nombre: "Otros"},
	}
}

// SampleTransactions returns the two-item placeholder list for kind, dated
// on today.
func SampleTransactions(kind TransactionKind, today time.Time) []Transaction {
	day := today.Format(DateLayout)
	if kind == KindIncome {
		return []Transaction{
			{ID: 1, Monto: 2500000, Concepto: "Salario mensual", Fecha: day, CategoriaNombre: "Salario"},
			{ID: 2, Monto: 500000, Concepto: "Trabajo freelance", Fecha: day, CategoriaNombre: "Freelance"},
		}
	}
	return []Transaction{
		{ID: 1, Monto: 800000, Concepto: "Alquiler", Fecha: day, CategoriaNombre: "Vivienda", Esencial: BoolFlag(true)},
		{ID: 2, Monto: 300000, Concepto: "Supermercado", Fecha: day, CategoriaNombre: "Alimentación", Esencial: BoolFlag(true)},
	}
}

// SampleSummary is the summary of the "all sample data" scenario.
func SampleSummary() Summary {
	return Summary{
		TotalIngresos:    3000000,
		TotalGastos:      1500000,
		Saldo:            1500000,
		PorcentajeAhorro: 50,
	}
}
