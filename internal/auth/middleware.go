package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/bher20/ecoenergy/internal/storage"
)

type contextKey string

const (
	AccountContextKey contextKey = "account"
	TokenContextKey   contextKey = "token"
)

// AccountFrom returns the authenticated account stored by Middleware.
func AccountFrom(ctx context.Context) (*storage.Account, bool) {
	acc, ok := ctx.Value(AccountContextKey).(*storage.Account)
	return acc, ok && acc != nil
}

// BearerToken extracts the raw token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Middleware resolves a bearer token into an account. Requests without an
// Authorization header pass through unauthenticated.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := BearerToken(r)
		if !ok {
			http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
			return
		}

		token, err := s.ValidateToken(r.Context(), raw)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		acc, err := s.storage.GetAccount(r.Context(), token.Username)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if acc == nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TokenContextKey, token)
		ctx = context.WithValue(ctx, AccountContextKey, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TargetUser is the account a request operates on: the "user" query
// parameter when present, the caller otherwise.
func TargetUser(r *http.Request) string {
	if u := strings.TrimSpace(r.URL.Query().Get("user")); u != "" {
		return u
	}
	if acc, ok := AccountFrom(r.Context()); ok {
		return acc.Username
	}
	return ""
}

// RequirePermission rejects unauthenticated requests and requests whose
// caller may not perform act on obj of the target user.
func (s *Service) RequirePermission(obj, act string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, ok := AccountFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		allowed, err := s.Enforce(acc, TargetUser(r), obj, act)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
