package render

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strconv"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
)

// LoginPage is the data behind the login form.
type LoginPage struct {
	Email   string
	Message string
}

// FormState is what a transaction form shows after a request.
type FormState struct {
	Concepto  string
	Monto     string
	Categoria string
	Fecha     string
	Esencial  bool
	// Focus names the input that gets autofocus ("concepto", "monto", ...).
	Focus string
}

// Flash is a one-shot message shown above the dashboard.
type Flash struct {
	Level   string // success, warning, error
	Message string
}

// Option is a <select> entry.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// DashboardPage is the data behind the dashboard template.
type DashboardPage struct {
	Greeting    string
	Title       string
	View        domain.ViewState
	Months      []Option
	Years       []Option
	Dashboard   DashboardView
	Banner      string
	Categories  domain.CategorySet
	IncomeForm  FormState
	ExpenseForm FormState
	Flash       *Flash
	PendingText string
}

// Pages renders the HTML templates.
type Pages struct {
	tmpl *template.Template
}

// NewPages parses templates/*.html from fsys.
func NewPages(fsys fs.FS) (*Pages, error) {
	t, err := template.New("pages").Funcs(template.FuncMap{
		"categoryOptions": categoryOptions,
	}).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: t}, nil
}

// Login renders the login page.
func (p *Pages) Login(w io.Writer, data LoginPage) error {
	return p.execute(w, "login.html", data)
}

// Dashboard renders the dashboard page.
func (p *Pages) Dashboard(w io.Writer, data DashboardPage) error {
	return p.execute(w, "dashboard.html", data)
}

func (p *Pages) execute(w io.Writer, name string, data any) error {
	if err := p.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// MonthOptions lists the twelve months with the view's month selected.
func MonthOptions(view domain.ViewState) []Option {
	opts := make([]Option, 0, 12)
	for m := 1; m <= 12; m++ {
		v := domain.ViewState{Month: m}
		opts = append(opts, Option{Value: strconv.Itoa(m), Label: v.MonthName(), Selected: m == view.Month})
	}
	return opts
}

// YearOptions lists a few years around currentYear, always including the
// view's year.
func YearOptions(view domain.ViewState, currentYear int) []Option {
	first, last := currentYear-3, currentYear+1
	if view.Year < first {
		first = view.Year
	}
	if view.Year > last {
		last = view.Year
	}
	opts := make([]Option, 0, last-first+1)
	for y := last; y >= first; y-- {
		opts = append(opts, Option{Value: strconv.Itoa(y), Label: strconv.Itoa(y), Selected: y == view.Year})
	}
	return opts
}

// PendingText describes the outbox backlog, or "" when there is none.
func PendingText(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d transacción(es) pendiente(s) de sincronizar", n)
}

func categoryOptions(list []domain.Category, selected string) []Option {
	opts := make([]Option, 0, len(list))
	for _, c := range list {
		opts = append(opts, Option{Value: c.ID, Label: c.Nombre, Selected: c.ID == selected})
	}
	return opts
}
