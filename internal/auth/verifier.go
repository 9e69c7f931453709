// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Request credential locations.
const (
	// BearerPrefix is the Authorization scheme prefix checked first.
	BearerPrefix = "Bearer "

	// SessionCookieName is the cookie fallback for browser clients.
	SessionCookieName = "user_token"
)

// Principal is the authenticated identity produced by the verifier, carried
// through the request for downstream authorization.
type Principal struct {
	UserID      int64
	Email       string
	Name        string
	SystemAdmin bool
}

type principalContextKey struct{}

// ContextWithPrincipal returns a context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the principal stored by the verifier
// middleware, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok
}

// Verifier is the per-request token gate. It performs no writes; each
// request is resolved exactly once, from credential extraction to an
// authenticated principal or a rejection.
type Verifier struct {
	tokens TokenStore
	users  UserDirectory
	clock  Clock
	logger *slog.Logger
}

// NewVerifier creates a new Verifier.
func NewVerifier(tokens TokenStore, users UserDirectory, clock Clock) (*Verifier, error) {
	return NewVerifierWithLogger(tokens, users, clock, slog.Default())
}

// NewVerifierWithLogger creates a new Verifier with an explicit logger.
func NewVerifierWithLogger(tokens TokenStore, users UserDirectory, clock Clock, logger *slog.Logger) (*Verifier, error) {
	if tokens == nil {
		return nil, oops.Code("VERIFIER_NIL_DEPENDENCY").Errorf("token store is required")
	}
	if users == nil {
		return nil, oops.Code("VERIFIER_NIL_DEPENDENCY").Errorf("user directory is required")
	}
	if clock == nil {
		return nil, oops.Code("VERIFIER_NIL_DEPENDENCY").Errorf("clock is required")
	}
	if logger == nil {
		return nil, oops.Code("VERIFIER_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &Verifier{tokens: tokens, users: users, clock: clock, logger: logger}, nil
}

// ExtractCredential pulls the candidate token value from a request: the
// Authorization bearer header wins, the session cookie is the fallback.
// ok is false when the request carries neither.
func ExtractCredential(r *http.Request) (value string, ok bool) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, BearerPrefix) {
		if v := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)); v != "" {
			return v, true
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// Verify resolves a token value to its authenticated principal. It returns
// ErrNoCredential for an empty value, and oops-coded rejections with the
// stable messages "Invalid token", "Token expired" and "User not found"
// otherwise. Store failures pass through as infrastructure errors.
func (v *Verifier) Verify(ctx context.Context, tokenValue string) (*Principal, error) {
	if tokenValue == "" {
		tokenVerificationsTotal.WithLabelValues(StatusMissing).Inc()
		return nil, ErrNoCredential
	}

	token, err := v.tokens.FindByValue(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			tokenVerificationsTotal.WithLabelValues(StatusRejected).Inc()
			return nil, oops.Code("VERIFY_INVALID_TOKEN").Errorf("Invalid token")
		}
		return nil, oops.Code("VERIFY_FAILED").
			With("operation", "find token by value").
			Wrap(err)
	}

	if !token.ValidAt(v.clock.Now()) {
		tokenVerificationsTotal.WithLabelValues(StatusExpired).Inc()
		return nil, oops.Code("VERIFY_TOKEN_EXPIRED").Errorf("Token expired")
	}

	user, err := v.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			tokenVerificationsTotal.WithLabelValues(StatusNotFound).Inc()
			return nil, oops.Code("VERIFY_USER_NOT_FOUND").Errorf("User not found")
		}
		return nil, oops.Code("VERIFY_FAILED").
			With("operation", "find token owner").
			With("user_id", token.UserID).
			Wrap(err)
	}

	tokenVerificationsTotal.WithLabelValues(StatusSuccess).Inc()

	return &Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		SystemAdmin: user.SystemAdmin,
	}, nil
}

// VerifyRequest extracts and verifies the request's credential in one pass.
func (v *Verifier) VerifyRequest(r *http.Request) (*Principal, error) {
	value, ok := ExtractCredential(r)
	if !ok {
		tokenVerificationsTotal.WithLabelValues(StatusMissing).Inc()
		return nil, ErrNoCredential
	}
	return v.Verify(r.Context(), value)
}

// Middleware wraps a handler so only authenticated requests pass through.
// The principal is stored in the request context. A request with no
// credential at all gets a bare 401 with no body, letting browser hosts
// mount their own redirect-to-login in front; a rejected credential gets
// 401 with the rejection message.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := v.VerifyRequest(r)
		if err != nil {
			if errors.Is(err, ErrNoCredential) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if oopsErr, ok := oops.AsOops(err); ok {
				switch oopsErr.Code() {
				case "VERIFY_INVALID_TOKEN", "VERIFY_TOKEN_EXPIRED", "VERIFY_USER_NOT_FOUND":
					http.Error(w, oopsErr.Error(), http.StatusUnauthorized)
					return
				}
			}
			v.logger.Error("token verification failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}
