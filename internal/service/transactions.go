package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Submission messages shown to the user.
const (
	msgQueued      = "✅ Transacción guardada localmente (pendiente de sincronizar)"
	msgUnconfirmed = "⚠️ No se pudo confirmar el guardado de la transacción"
)

// Submitter validates and sends new incomes and expenses.
type Submitter struct {
	api     port.TransactionWriter
	outbox  port.Outbox
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewSubmitter creates a submitter. outbox may be nil, in which case writes
// the API does not acknowledge end up unconfirmed.
func NewSubmitter(api port.TransactionWriter, outbox port.Outbox, metrics *observability.Metrics, logger *zap.Logger) *Submitter {
	return &Submitter{api: api, outbox: outbox, metrics: metrics, logger: logger, now: time.Now}
}

// Validate checks the form in field order and builds the API payload. The
// first failing check is returned as *domain.ErrValidation.
func Validate(kind domain.TransactionKind, form domain.TransactionForm, userID int64, today time.Time) (*domain.NewTransaction, error) {
	concepto := strings.TrimSpace(form.Concepto)
	if concepto == "" {
		return nil, &domain.ErrValidation{Field: "concepto", Message: "❌ Por favor ingresa un concepto"}
	}

	monto, err := strconv.ParseFloat(strings.TrimSpace(form.Monto), 64)
	if err != nil || math.IsNaN(monto) || math.IsInf(monto, 0) || monto <= 0 {
		return nil, &domain.ErrValidation{Field: "monto", Message: "❌ El monto debe ser mayor a 0"}
	}

	categoria, err := strconv.Atoi(strings.TrimSpace(form.Categoria))
	if err != nil {
		return nil, &domain.ErrValidation{Field: "categoria", Message: "❌ Por favor selecciona una categoría"}
	}

	fecha := strings.TrimSpace(form.Fecha)
	if fecha == "" {
		fecha = today.Format(domain.DateLayout)
	} else if _, err := time.Parse(domain.DateLayout, fecha); err != nil {
		return nil, &domain.ErrValidation{Field: "fecha", Message: "❌ La fecha debe tener el formato AAAA-MM-DD"}
	}

	tx := &domain.NewTransaction{
		Concepto:    concepto,
		Monto:       monto,
		CategoriaID: categoria,
		Fecha:       fecha,
		UsuarioID:   userID,
	}
	if kind == domain.KindExpense {
		esencial := form.Esencial || !form.EsencialPresent
		tx.Esencial = &esencial
	}
	return tx, nil
}

// Submit validates the form and posts it. Validation failures are returned
// as errors before any network call; everything after that is reported
// through the result's Outcome.
func (s *Submitter) Submit(ctx context.Context, kind domain.TransactionKind, userID int64, form domain.TransactionForm) (*domain.SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "Submitter.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.kind", string(kind)))

	if !kind.Valid() {
		return nil, &domain.ErrValidation{Field: "tipo", Message: "tipo de transacción desconocido"}
	}

	tx, err := Validate(kind, form, userID, s.now())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.api.CreateTransaction(ctx, kind, tx)
	s.metrics.RecordRequestDuration("submit_"+string(kind), time.Since(start))

	result := s.resolve(ctx, kind, tx, resp, err)
	result.Transaction = tx

	span.SetAttributes(attribute.String("submission.outcome", string(result.Outcome)))
	s.metrics.IncrSubmission(kind, result.Outcome)
	s.logger.Info("transaction submitted",
		zap.String("kind", string(kind)),
		zap.Int64("usuario_id", userID),
		zap.String("outcome", string(result.Outcome)),
		zap.Error(err),
	)
	return result, nil
}

func (s *Submitter) resolve(ctx context.Context, kind domain.TransactionKind, tx *domain.NewTransaction, resp *domain.WriteResponse, err error) *domain.SubmitResult {
	result := &domain.SubmitResult{Kind: kind}

	if err == nil {
		if resp != nil && resp.Success != nil && !*resp.Success {
			result.Outcome = domain.OutcomeRejected
			result.Message = rejectedMessage(resp.Error)
			return result
		}
		result.Outcome = domain.OutcomeConfirmed
		result.Message = "✅ " + kind.Label() + " agregado correctamente"
		return result
	}

	// The API answered but refused. Replaying would fail the same way.
	var status *domain.ErrUpstreamStatus
	if errors.As(err, &status) && status.Status >= 400 && status.Status < 500 {
		if resp != nil && resp.Success != nil && !*resp.Success {
			result.Outcome = domain.OutcomeRejected
			result.Message = rejectedMessage(resp.Error)
			return result
		}
		result.Outcome = domain.OutcomeUnconfirmed
		result.Message = msgUnconfirmed
		return result
	}

	s.metrics.IncrUpstreamError(string(kind))

	if s.outbox == nil {
		result.Outcome = domain.OutcomeUnconfirmed
		result.Message = msgUnconfirmed
		return result
	}
	if _, qErr := s.outbox.Enqueue(ctx, kind, tx); qErr != nil {
		s.logger.Error("failed to queue transaction", zap.Error(qErr))
		result.Outcome = domain.OutcomeUnconfirmed
		result.Message = msgUnconfirmed
		return result
	}
	result.Outcome = domain.OutcomeQueued
	result.Message = msgQueued
	return result
}

func rejectedMessage(apiError string) string {
	if apiError == "" {
		apiError = "Error desconocido"
	}
	return "❌ Error: " + apiError
}
