package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/render"

	"go.uber.org/zap"
)

// ============================================================
// JSON API
// ============================================================

type dashboardResponse struct {
	View        domain.ViewState     `json:"view"`
	Title       string               `json:"title"`
	Desde       string               `json:"desde"`
	Hasta       string               `json:"hasta"`
	Data        domain.DashboardData `json:"data"`
	Categorias  domain.CategorySet   `json:"categorias"`
	Rendered    render.DashboardView `json:"rendered"`
	Pending     int                  `json:"pending"`
	PendingText string               `json:"pendingText,omitempty"`
}

// transactionRequest accepts monto and categoria_id as either strings or
// numbers, the way the HTML form and script clients send them.
type transactionRequest struct {
	Concepto  string          `json:"concepto"`
	Monto     json.RawMessage `json:"monto"`
	Categoria json.RawMessage `json:"categoria_id"`
	Fecha     string          `json:"fecha"`
	Esencial  *bool           `json:"esencial"`
}

func (req transactionRequest) form() domain.TransactionForm {
	f := domain.TransactionForm{
		Concepto:  req.Concepto,
		Monto:     rawText(req.Monto),
		Categoria: rawText(req.Categoria),
		Fecha:     req.Fecha,
	}
	if req.Esencial != nil {
		f.Esencial = *req.Esencial
		f.EsencialPresent = true
	}
	return f
}

func apiDashboardHandler(d Deps, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dashboard")
		defer span.End()

		user := UserFromContext(ctx)
		q := r.URL.Query()
		view, err := domain.ParseViewState(user.ID, q.Get("mes"), q.Get("anio"), d.Now())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		ctx, gen, done := d.Tracker.Begin(ctx, loadKey(user))
		defer done()

		o := d.Dashboard.Overview(ctx, view)
		w.Header().Set("X-Load-Generation", strconv.FormatUint(gen, 10))
		if !d.Tracker.IsCurrent(loadKey(user), gen) {
			d.Metrics.IncrSupersededLoad()
			writeError(w, http.StatusConflict, "superseded")
			return
		}

		from, to := view.Period()
		writeJSON(w, http.StatusOK, dashboardResponse{
			View:        view,
			Title:       view.Title(),
			Desde:       from.Format(domain.DateLayout),
			Hasta:       to.Format(domain.DateLayout),
			Data:        o.Data,
			Categorias:  o.Categories,
			Rendered:    render.Render(o.Data.Summary, o.Data.Incomes, o.Data.Expenses),
			Pending:     o.Pending,
			PendingText: render.PendingText(o.Pending),
		})
	}
}

func apiCategoriesHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Dashboard.Categories(r.Context()))
	}
}

func apiSubmitHandler(d Deps, kind domain.TransactionKind, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/"+string(kind))
		defer span.End()

		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user := UserFromContext(ctx)
		result, err := d.Submitter.Submit(ctx, kind, user.ID, req.form())
		if err != nil {
			var validation *domain.ErrValidation
			if errors.As(err, &validation) {
				writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: validation.Message, Field: validation.Field})
				return
			}
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, submitStatus(result.Outcome), result)
	}
}

func submitStatus(o domain.SubmitOutcome) int {
	switch o {
	case domain.OutcomeConfirmed:
		return http.StatusCreated
	case domain.OutcomeQueued, domain.OutcomeUnconfirmed:
		return http.StatusAccepted
	default:
		return http.StatusUnprocessableEntity
	}
}
