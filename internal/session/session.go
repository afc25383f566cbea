// Package session keeps the logged-in user record in a signed cookie.
package session

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CookieName is the single well-known slot holding the user record.
const CookieName = "user_info"

const issuer = "presupuesto-bff"

// Claims is the signed cookie payload. Usuario is the user record exactly as
// the login endpoint returned it.
type Claims struct {
	Usuario json.RawMessage `json:"usuario"`
	jwt.RegisteredClaims
}

// Store reads and writes the session cookie.
type Store struct {
	secret []byte
	ttl    time.Duration
	secure bool
	logger *zap.Logger
	now    func() time.Time
}

// New creates a session store. An empty secret gets a random one, which
// invalidates every session on restart. A ttl of 0 means sessions never
// expire.
func New(secret string, ttl time.Duration, secure bool, logger *zap.Logger) *Store {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("session: generate secret: %v", err))
		}
		logger.Warn("SESSION_SECRET not set, using an ephemeral key")
	}
	return &Store{secret: key, ttl: ttl, secure: secure, logger: logger, now: time.Now}
}

// Save writes the user record, replacing any previous session.
func (s *Store) Save(w http.ResponseWriter, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user record: %w", err)
	}

	now := s.now()
	claims := Claims{
		Usuario: raw,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	cookie := s.cookie(token)
	if s.ttl > 0 {
		cookie.Expires = now.Add(s.ttl)
		cookie.MaxAge = int(s.ttl.Seconds())
	}
	http.SetCookie(w, cookie)
	return nil
}

// Load returns the session user. A missing cookie yields
// *domain.ErrUnauthenticated; an unusable one (tampered, expired, no id) is
// also cleared from the browser.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) (*domain.User, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, &domain.ErrUnauthenticated{Reason: "no session"}
	}

	user, err := s.parse(c.Value)
	if err != nil {
		s.logger.Warn("discarding invalid session cookie", zap.Error(err))
		s.Clear(w)
		return nil, &domain.ErrUnauthenticated{Reason: "invalid session"}
	}
	return user, nil
}

// Clear expires the session cookie.
func (s *Store) Clear(w http.ResponseWriter) {
	cookie := s.cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

func (s *Store) parse(value string) (*domain.User, error) {
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return domain.ParseUser(claims.Usuario)
}

func (s *Store) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
