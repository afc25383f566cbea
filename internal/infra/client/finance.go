package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
)

// Login posts credentials to /auth/login. The API answers rejected logins
// with a 4xx and a {success:false, error} body, so any decodable body is
// returned regardless of status.
func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	res, err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, req)
	if err != nil {
		return nil, err
	}

	var out domain.LoginResponse
	if err := json.Unmarshal(res.body, &out); err != nil {
		if !res.ok() {
			return nil, &domain.ErrUpstreamStatus{Endpoint: "POST /auth/login", Status: res.status}
		}
		return nil, &domain.ErrSchema{Resource: "login", Err: err}
	}
	return &out, nil
}

// GetCategories fetches GET /categorias/{ingresos|gastos}.
func (c *Client) GetCategories(ctx context.Context, kind domain.TransactionKind) ([]domain.Category, error) {
	body, err := c.get(ctx, "categorias", "/categorias/"+string(kind), nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]domain.Category](body, "categorias", "categorias")
}

// GetSummary fetches GET /resumen for the view's user and month.
func (c *Client) GetSummary(ctx context.Context, view domain.ViewState) (*domain.Summary, error) {
	body, err := c.get(ctx, "resumen", "/resumen", viewQuery(view))
	if err != nil {
		return nil, err
	}
	summary, err := decodeEnvelope[domain.Summary](body, "resumen", "resumen")
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListTransactions fetches GET /ingresos or GET /gastos limited to limit rows.
func (c *Client) ListTransactions(ctx context.Context, kind domain.TransactionKind, view domain.ViewState, limit int) ([]domain.Transaction, error) {
	q := viewQuery(view)
	if limit > 0 {
		q.Set("limite", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, string(kind), "/"+string(kind), q)
	if err != nil {
		return nil, err
	}
	list, err := decodeEnvelope[[]domain.Transaction](body, string(kind), string(kind))
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Transaction{}
	}
	return list, nil
}

// CreateTransaction posts to /ingresos or /gastos. A non-2xx answer returns
// *domain.ErrUpstreamStatus together with whatever WriteResponse the body
// carried; a 2xx with an undecodable body counts as acknowledged.
func (c *Client) CreateTransaction(ctx context.Context, kind domain.TransactionKind, tx *domain.NewTransaction) (*domain.WriteResponse, error) {
	res, err := c.do(ctx, string(kind), http.MethodPost, "/"+string(kind), nil, tx)
	if err != nil {
		return nil, err
	}

	var out domain.WriteResponse
	decodeErr := json.Unmarshal(res.body, &out)

	if !res.ok() {
		statusErr := &domain.ErrUpstreamStatus{Endpoint: "POST /" + string(kind), Status: res.status}
		if decodeErr != nil {
			return nil, statusErr
		}
		return &out, statusErr
	}
	if decodeErr != nil {
		c.logger.Debug("write acknowledged with undecodable body")
		return &domain.WriteResponse{}, nil
	}
	return &out, nil
}

func viewQuery(view domain.ViewState) url.Values {
	q := url.Values{}
	q.Set("usuario_id", strconv.FormatInt(view.UserID, 10))
	q.Set("mes", strconv.Itoa(view.Month))
	q.Set("año", strconv.Itoa(view.Year))
	return q
}
