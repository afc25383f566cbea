package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/render"

	"go.uber.org/zap"
)

// ============================================================
// Login / logout
// ============================================================

func loginPageHandler(d Deps, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := d.Sessions.Load(w, r); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		renderLogin(w, d, http.StatusOK, render.LoginPage{}, logger)
	}
}

func loginHandler(d Deps, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /login")
		defer span.End()

		if err := r.ParseForm(); err != nil {
			renderLogin(w, d, http.StatusBadRequest, render.LoginPage{Message: "❌ Formulario inválido"}, logger)
			return
		}
		email := r.PostFormValue("email")

		user, err := d.Auth.Login(ctx, email, r.PostFormValue("password"))
		if err != nil {
			d.Sessions.Clear(w)

			var validation *domain.ErrValidation
			var rejected *domain.ErrLoginRejected
			page := render.LoginPage{Email: email}
			var status int
			switch {
			case errors.As(err, &validation):
				page.Message = validation.Message
				status = http.StatusBadRequest
			case errors.As(err, &rejected):
				page.Message = "❌ " + rejected.Error()
				status = http.StatusUnauthorized
			default:
				page.Message = "❌ Error de conexión: " + err.Error()
				status = http.StatusBadGateway
			}
			renderLogin(w, d, status, page, logger)
			return
		}

		if err := d.Sessions.Save(w, user); err != nil {
			logger.Error("failed to save session", zap.Error(err))
			renderLogin(w, d, http.StatusInternalServerError, render.LoginPage{Email: email, Message: "❌ Error desconocido"}, logger)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

func logoutHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Sessions.Clear(w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// ============================================================
// Dashboard
// ============================================================

func dashboardPageHandler(d Deps, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		view := viewOrCurrent(r, user.ID, d)

		page := dashboardPage(r, d, user, view)
		page.IncomeForm = emptyForm(domain.KindIncome, "", d)
		page.ExpenseForm = emptyForm(domain.KindExpense, "", d)
		renderDashboard(w, d, http.StatusOK, page, logger)
	}
}

func submitPageHandler(d Deps, kind domain.TransactionKind, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /"+string(kind))
		defer span.End()

		user := UserFromContext(ctx)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		view := viewOrCurrent(r, user.ID, d)
		form := formFromRequest(r)

		var (
			flash *render.Flash
			state render.FormState
		)
		result, err := d.Submitter.Submit(ctx, kind, user.ID, form)
		if err != nil {
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				logger.Error("submission failed", zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			flash = &render.Flash{Level: "error", Message: validation.Message}
			state = keptForm(form)
			state.Focus = validation.Field
		} else {
			flash = &render.Flash{Level: flashLevel(result.Outcome), Message: result.Message}
			if result.ClearsForm() {
				state = emptyForm(kind, form.Categoria, d)
			} else {
				state = keptForm(form)
			}
		}

		page := dashboardPage(r.WithContext(ctx), d, user, view)
		page.Flash = flash
		page.IncomeForm = emptyForm(domain.KindIncome, "", d)
		page.ExpenseForm = emptyForm(domain.KindExpense, "", d)
		if kind == domain.KindIncome {
			page.IncomeForm = state
		} else {
			page.ExpenseForm = state
		}
		renderDashboard(w, d, http.StatusOK, page, logger)
	}
}

// dashboardPage runs the bootstrap for view and fills everything but the
// forms and the flash. A page is always rendered, so its load runs on the
// request context; the tracker only records whether a newer load overtook it.
func dashboardPage(r *http.Request, d Deps, user *domain.User, view domain.ViewState) render.DashboardPage {
	_, gen, done := d.Tracker.Begin(r.Context(), loadKey(user))
	defer done()

	o := d.Dashboard.Overview(r.Context(), view)
	if !d.Tracker.IsCurrent(loadKey(user), gen) {
		d.Metrics.IncrSupersededLoad()
	}

	return render.DashboardPage{
		Greeting:    user.Greeting(),
		Title:       view.Title(),
		View:        view,
		Months:      render.MonthOptions(view),
		Years:       render.YearOptions(view, d.Now().Year()),
		Dashboard:   render.Render(o.Data.Summary, o.Data.Incomes, o.Data.Expenses),
		Banner:      o.Data.Banner,
		Categories:  o.Categories,
		PendingText: render.PendingText(o.Pending),
	}
}

// viewOrCurrent reads mes/anio, falling back to the current month when they
// are missing or invalid.
func viewOrCurrent(r *http.Request, userID int64, d Deps) domain.ViewState {
	q := r.URL.Query()
	view, err := domain.ParseViewState(userID, q.Get("mes"), q.Get("anio"), d.Now())
	if err != nil {
		return domain.CurrentView(userID, d.Now())
	}
	return view
}

func formFromRequest(r *http.Request) domain.TransactionForm {
	_, present := r.PostForm["esencial_presente"]
	return domain.TransactionForm{
		Concepto:        r.PostFormValue("concepto"),
		Monto:           r.PostFormValue("monto"),
		Categoria:       r.PostFormValue("categoria"),
		Fecha:           r.PostFormValue("fecha"),
		Esencial:        r.PostFormValue("esencial") != "",
		EsencialPresent: present,
	}
}

// emptyForm is a fresh form: blank concept and amount, date today, the given
// category kept selected.
func emptyForm(kind domain.TransactionKind, categoria string, d Deps) render.FormState {
	return render.FormState{
		Categoria: categoria,
		Fecha:     d.Now().Format(domain.DateLayout),
		Esencial:  kind == domain.KindExpense,
	}
}

func keptForm(f domain.TransactionForm) render.FormState {
	return render.FormState{
		Concepto:  f.Concepto,
		Monto:     f.Monto,
		Categoria: f.Categoria,
		Fecha:     f.Fecha,
		Esencial:  f.Esencial || !f.EsencialPresent,
	}
}

func flashLevel(o domain.SubmitOutcome) string {
	switch o {
	case domain.OutcomeConfirmed, domain.OutcomeQueued:
		return "success"
	case domain.OutcomeUnconfirmed:
		return "warning"
	default:
		return "error"
	}
}

func loadKey(u *domain.User) string {
	return strconv.FormatInt(u.ID, 10)
}

func renderLogin(w http.ResponseWriter, d Deps, status int, page render.LoginPage, logger *zap.Logger) {
	var buf bytes.Buffer
	if err := d.Pages.Login(&buf, page); err != nil {
		logger.Error("failed to render login page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

func renderDashboard(w http.ResponseWriter, d Deps, status int, page render.DashboardPage, logger *zap.Logger) {
	var buf bytes.Buffer
	if err := d.Pages.Dashboard(&buf, page); err != nil {
		logger.Error("failed to render dashboard", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

// writeHTML sends a fully rendered page, so a template error never leaves a
// half-written response behind.
func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
