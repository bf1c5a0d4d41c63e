// Package middleware contains HTTP middleware for the Gigwell API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler
// and are composed with Stack.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/gigwell/internal/auth"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/handler"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the bearer token payload. The subject is the user ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserLookup loads the account behind a token subject.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware authenticates API requests from an HS256 bearer token.
//
// Tokens are issued by the identity service; this middleware only verifies
// them and loads the actor.
type AuthMiddleware struct {
	secret      []byte
	users       UserLookup
	adminEmails map[string]bool
	logger      *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(secret string, users UserLookup, adminEmails []string, logger *slog.Logger) *AuthMiddleware {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &AuthMiddleware{
		secret:      []byte(secret),
		users:       users,
		adminEmails: admins,
		logger:      logger,
	}
}

// WithActor loads the actor from the Authorization header when present.
// Requests without a valid token continue anonymously.
func (m *AuthMiddleware) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := m.authenticate(r.Context(), raw)
		if err != nil {
			m.logger.Info("bearer token rejected", "error", err, "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetActor(r.Context(), actor)))
	})
}

// RequireActor responds 401 unless WithActor authenticated the request.
func (m *AuthMiddleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetActor(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin responds 403 unless the actor's email is in ADMIN_EMAILS.
// Use after RequireActor.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := auth.GetActor(r.Context())
		if actor == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		if !actor.Admin {
			m.logger.Warn("admin route denied", "user_id", actor.ID, "path", r.URL.Path)
			handler.ForbiddenResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate verifies the token and loads an active account.
func (m *AuthMiddleware) authenticate(ctx context.Context, raw string) (*auth.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject %q: %w", claims.Subject, err)
	}

	user, err := m.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if domain.UserStatus(user.Status) == domain.UserStatusDisabled {
		return nil, errors.New("account disabled")
	}

	email := strings.ToLower(user.Email)
	return &auth.Actor{
		ID:    user.ID,
		Email: email,
		Name:  strings.TrimSpace(user.FirstName + " " + user.LastName),
		Role:  domain.Role(user.Role),
		Admin: m.adminEmails[email],
	}, nil
}

// SignToken issues a bearer token for userID. The identity service and tests
// use it; the API never issues tokens itself.
func SignToken(secret string, userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes middleware so the first argument is the outermost.
//
//	stack := Stack(loggingMw.Handler, authMw.WithActor, authMw.RequireActor)
//	mux.Handle("GET /api/me/wallet", stack(walletHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithActor
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireActor
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireAdmin
)
