// Package client is the adapter for the remote finance REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Client calls the finance API with retry, circuit breaker and tracing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// New creates a finance API client. baseURL is the API root, e.g.
// http://localhost:5000/api.
func New(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// response is a completed HTTP exchange with a status below 500.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do executes one API call. Transport errors and 5xx answers are counted by
// the breaker and, for GETs only, retried; any other status is handed back to
// the caller. Writes get a single attempt because a timed out POST may still
// have been applied upstream.
func (c *Client) do(ctx context.Context, resource, method, path string, query url.Values, payload any) (*response, error) {
	ctx, span := tracer.Start(ctx, "FinanceAPI "+method+" "+path)
	defer span.End()
	span.SetAttributes(
		attribute.String("finance.resource", resource),
		attribute.String("http.method", method),
	)

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", resource, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	cfg := c.cfg
	if method != http.MethodGet {
		cfg.MaxRetries = 0
	}

	result, err := c.cb.Execute(func() (any, error) {
		var res *response
		innerErr := resilience.RetryWithBackoff(ctx, cfg, func() error {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, target, reader)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				return err
			}
			if resp.StatusCode >= 500 {
				return &domain.ErrUpstreamStatus{Endpoint: method + " " + path, Status: resp.StatusCode}
			}
			res = &response{status: resp.StatusCode, body: raw}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return res, nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("finance api call failed",
			zap.String("resource", resource),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "finance-api"}
		}
		return nil, &domain.ErrExternalService{Service: resource, Err: err}
	}

	res := result.(*response)
	span.SetAttributes(attribute.Int("http.status_code", res.status))
	return res, nil
}

// get performs a GET that must answer 2xx.
func (c *Client) get(ctx context.Context, resource, path string, query url.Values) ([]byte, error) {
	res, err := c.do(ctx, resource, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, &domain.ErrUpstreamStatus{Endpoint: "GET " + path, Status: res.status}
	}
	return res.body, nil
}
