package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jinzhu/now"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// ViewState is the explicit per-request dashboard scope: whose data and
// which month.
type ViewState struct {
	UserID int64 `json:"usuario_id"`
	Month  int   `json:"mes"`
	Year   int   `json:"anio"`
}

// NewViewState validates month (1-12) and year.
func NewViewState(userID int64, month, year int) (ViewState, error) {
	if month < 1 || month > 12 {
		return ViewState{}, &ErrValidation{Field: "mes", Message: "el mes debe estar entre 1 y 12"}
	}
	if year < 1900 || year > 9999 {
		return ViewState{}, &ErrValidation{Field: "anio", Message: "año inválido"}
	}
	return ViewState{UserID: userID, Month: month, Year: year}, nil
}

// ParseViewState builds a view from raw query values. Both values empty means
// the month containing t.
func ParseViewState(userID int64, month, year string, t time.Time) (ViewState, error) {
	if month == "" && year == "" {
		return CurrentView(userID, t), nil
	}
	cur := CurrentView(userID, t)
	m, y := cur.Month, cur.Year
	var err error
	if month != "" {
		if m, err = strconv.Atoi(month); err != nil {
			return ViewState{}, &ErrValidation{Field: "mes", Message: "el mes debe ser numérico"}
		}
	}
	if year != "" {
		if y, err = strconv.Atoi(year); err != nil {
			return ViewState{}, &ErrValidation{Field: "anio", Message: "el año debe ser numérico"}
		}
	}
	return NewViewState(userID, m, y)
}

// CurrentView is the view for the month containing t.
func CurrentView(userID int64, t time.Time) ViewState {
	return ViewState{UserID: userID, Month: int(t.Month()), Year: t.Year()}
}

// Period returns the first and last instant of the month.
func (v ViewState) Period() (time.Time, time.Time) {
	first := time.Date(v.Year, time.Month(v.Month), 1, 0, 0, 0, 0, time.Local)
	n := now.With(first)
	return n.BeginningOfMonth(), n.EndOfMonth()
}

// MonthName is the Spanish month name.
func (v ViewState) MonthName() string {
	if v.Month < 1 || v.Month > 12 {
		return "Mes desconocido"
	}
	return monthNames[v.Month-1]
}

// Title is the dashboard heading suffix, e.g. "- Enero 2025".
func (v ViewState) Title() string {
	return fmt.Sprintf("- %s %d", v.MonthName(), v.Year)
}

// Source tells where a dashboard part came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceFallback Source = "fallback"
)

// Sources records the origin of each loader part.
type Sources struct {
	Summary  Source `json:"resumen"`
	Incomes  Source `json:"ingresos"`
	Expenses Source `json:"gastos"`
}

// AllFallback reports whether every part fell back.
func (s Sources) AllFallback() bool {
	return s.Summary == SourceFallback && s.Incomes == SourceFallback && s.Expenses == SourceFallback
}

// DashboardData is what the loader produces: always renderable.
type DashboardData struct {
	View       ViewState     `json:"view"`
	Summary    Summary       `json:"resumen"`
	Incomes    []Transaction `json:"ingresos"`
	Expenses   []Transaction `json:"gastos"`
	Sources    Sources       `json:"sources"`
	SampleData bool          `json:"sampleData"`
	Banner     string        `json:"banner,omitempty"`
}
