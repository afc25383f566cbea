package client

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
)

// decodeEnvelope is the single parse step for API reads. The API answers
// either with the payload itself or with the payload under a wrapper key
// ({"resumen": {...}}, {"ingresos": [...]}). Anything that does not decode
// into T is an *domain.ErrSchema.
func decodeEnvelope[T any](body []byte, key, resource string) (T, error) {
	var out T

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return out, &domain.ErrSchema{Resource: resource, Err: errors.New("empty body")}
	}

	payload := trimmed
	if trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return out, &domain.ErrSchema{Resource: resource, Err: err}
		}
		if inner, ok := obj[key]; ok && !bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
			payload = inner
		}
	}

	if err := json.Unmarshal(payload, &out); err != nil {
		return out, &domain.ErrSchema{Resource: resource, Err: err}
	}
	return out, nil
}
