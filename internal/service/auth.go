package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/port"

	"go.uber.org/zap"
)

// MsgMissingCredentials is shown when the login form is incomplete.
const MsgMissingCredentials = "❌ Por favor completa todos los campos"

// AuthService checks credentials against the finance API.
type AuthService struct {
	api    port.Authenticator
	logger *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(api port.Authenticator, logger *zap.Logger) *AuthService {
	return &AuthService{api: api, logger: logger}
}

// Login returns the user record for valid credentials. Errors:
// *domain.ErrValidation for empty fields, *domain.ErrLoginRejected when the
// API refused, anything else is a connection problem.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: MsgMissingCredentials}
	}
	if password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: MsgMissingCredentials}
	}

	resp, err := s.api.Login(ctx, &domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.logger.Warn("login request failed", zap.Error(err))
		return nil, fmt.Errorf("login: %w", err)
	}

	if !resp.Success || len(resp.Usuario) == 0 || string(resp.Usuario) == "null" {
		s.logger.Info("login rejected", zap.String("error", resp.Error))
		return nil, &domain.ErrLoginRejected{Message: resp.Error}
	}

	user, err := domain.ParseUser(resp.Usuario)
	if err != nil {
		s.logger.Warn("login returned an unusable user record", zap.Error(err))
		return nil, &domain.ErrLoginRejected{Message: resp.Error}
	}

	s.logger.Info("user logged in", zap.Int64("usuario_id", user.ID))
	return user, nil
}
