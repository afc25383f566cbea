package domain

// ============================================================
// Transaction submission
// ============================================================

// TransactionForm carries the raw form fields before validation.
// EsencialPresent is false when the form has no essential checkbox at all.
type TransactionForm struct {
	Concepto        string `json:"concepto"`
	Monto           string `json:"monto"`
	Categoria       string `json:"categoria"`
	Fecha           string `json:"fecha"`
	Esencial        bool   `json:"esencial"`
	EsencialPresent bool   `json:"esencialPresente"`
}

// SubmitOutcome says how far a submission got.
type SubmitOutcome string

const (
	// OutcomeConfirmed: the API acknowledged the write.
	OutcomeConfirmed SubmitOutcome = "confirmed"
	// OutcomeQueued: the API was unavailable; the write sits in the outbox.
	OutcomeQueued SubmitOutcome = "queued"
	// OutcomeUnconfirmed: the API was unavailable and nothing was queued.
	OutcomeUnconfirmed SubmitOutcome = "unconfirmed"
	// OutcomeRejected: the API answered success=false.
	OutcomeRejected SubmitOutcome = "rejected"
)

// SubmitResult is returned by the submission flow.
type SubmitResult struct {
	Kind        TransactionKind `json:"kind"`
	Outcome     SubmitOutcome   `json:"outcome"`
	Message     string          `json:"message"`
	Transaction *NewTransaction `json:"transaction,omitempty"`
}

// ClearsForm reports whether the concept/amount fields should be emptied.
func (r SubmitResult) ClearsForm() bool {
	return r.Outcome != OutcomeRejected
}

// PendingTransaction is an outbox entry awaiting delivery.
type PendingTransaction struct {
	ID        string
	Kind      TransactionKind
	Payload   NewTransaction
	Attempts  int
	LastError string
}
