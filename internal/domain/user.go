package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// User is the session record returned by the login endpoint. Only ID and
// Nombre are interpreted; Raw keeps the full record so it round-trips
// unchanged.
type User struct {
	ID     int64
	Nombre string
	Raw    json.RawMessage
}

// ParseUser decodes a serialized user record. Records without a positive id
// are rejected.
func ParseUser(raw []byte) (*User, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errors.New("user record is not a JSON object")
	}

	var fields struct {
		ID     json.RawMessage `json:"id"`
		Nombre string          `json:"nombre"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(strings.Trim(string(fields.ID), `"`), 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New("user record has no valid id")
	}

	return &User{
		ID:     id,
		Nombre: fields.Nombre,
		Raw:    append(json.RawMessage(nil), raw...),
	}, nil
}

// MarshalJSON emits the original record.
func (u User) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	return json.Marshal(struct {
		ID     int64  `json:"id"`
		Nombre string `json:"nombre"`
	}{u.ID, u.Nombre})
}

// Greeting is the header text shown on the dashboard.
func (u User) Greeting() string {
	return "Hola, " + u.Nombre
}
