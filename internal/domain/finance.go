package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// Finance API response shapes
// ============================================================

// Summary holds the month totals returned by GET /resumen. Values are
// trusted as given; saldo is never recomputed from the lists.
type Summary struct {
	TotalIngresos    float64 `json:"total_ingresos"`
	TotalGastos      float64 `json:"total_gastos"`
	Saldo            float64 `json:"saldo"`
	PorcentajeAhorro float64 `json:"porcentaje_ahorro"`
}

// TransactionKind distinguishes incomes from expenses. The value doubles as
// the API collection path segment.
type TransactionKind string

const (
	KindIncome  TransactionKind = "ingresos"
	KindExpense TransactionKind = "gastos"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Singular is used for form ids and the flash messages ("ingreso", "gasto").
func (k TransactionKind) Singular() string {
	if k == KindIncome {
		return "ingreso"
	}
	return "gasto"
}

// Label is the capitalized singular ("Ingreso", "Gasto").
func (k TransactionKind) Label() string {
	if k == KindIncome {
		return "Ingreso"
	}
	return "Gasto"
}

// Transaction is one income or expense row. Esencial is only present on
// expenses.
type Transaction struct {
	ID              int64  `json:"id"`
	Monto           Amount `json:"monto"`
	Concepto        string `json:"concepto"`
	Fecha           string `json:"fecha"`
	CategoriaNombre string `json:"categoria_nombre"`
	Esencial        *Flag  `json:"esencial,omitempty"`
}

// Amount is a money value that tolerates both JSON numbers and numeric
// strings (DECIMAL columns serialized as text).
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// Flag is a boolean that also accepts 0/1 (TINYINT columns).
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", `"0"`, `"false"`, "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean flag %s", b)
	}
	return nil
}

// BoolFlag returns a pointer suitable for Transaction.Esencial.
func BoolFlag(v bool) *Flag {
	f := Flag(v)
	return &f
}

// Category is an income or expense category. ID is kept as text because it
// is only ever echoed back as a form value.
type Category struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

// UnmarshalJSON accepts {id, nombre} objects with numeric or string ids, and
// bare strings (id and name are then the same).
func (c *Category) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		c.ID, c.Nombre = name, name
		return nil
	}
	var raw struct {
		ID     json.RawMessage `json:"id"`
		Nombre string          `json:"nombre"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Nombre = raw.Nombre
	c.ID = strings.Trim(string(bytes.TrimSpace(raw.ID)), `"`)
	if c.ID == "null" {
		c.ID = ""
	}
	if c.ID == "" {
		c.ID = c.Nombre
	}
	return nil
}

// CategorySet holds both category lists. Fallback is true when the
// hard-coded defaults were substituted.
type CategorySet struct {
	Ingresos []Category `json:"ingresos"`
	Gastos   []Category `json:"gastos"`
	Fallback bool       `json:"fallback"`
}

// ForKind returns the list matching k.
func (s CategorySet) ForKind(k TransactionKind) []Category {
	if k == KindIncome {
		return s.Ingresos
	}
	return s.Gastos
}

// ============================================================
// Finance API request shapes
// ============================================================

// NewTransaction is the body for POST /ingresos and POST /gastos.
type NewTransaction struct {
	Concepto    string  `json:"concepto"`
	Monto       float64 `json:"monto"`
	CategoriaID int     `json:"categoria_id"`
	Fecha       string  `json:"fecha"`
	UsuarioID   int64   `json:"usuario_id"`
	Esencial    *bool   `json:"esencial,omitempty"`
}

// WriteResponse is the body returned by the write endpoints. Success is a
// pointer so that a 2xx without the field can be told apart from false.
type WriteResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error,omitempty"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Success bool            `json:"success"`
	Usuario json.RawMessage `json:"usuario,omitempty"`
	Error   string          `json:"error,omitempty"`
}
