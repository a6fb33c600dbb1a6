package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "chemviz/internal/errors"
)

type (
	userContextKey  struct{}
	tokenContextKey struct{}
)

// TokenValidator resolves an API token to a username.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// TokenAuth requires "Authorization: Token <key>" (or Bearer) on every request.
func TokenAuth(validator TokenValidator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := parseAuthorization(r.Header.Get("Authorization"))
			if !ok {
				logger.WarnContext(ctx, "missing or malformed authorization header",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
				return
			}

			username, err := validator.ValidateToken(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "authentication failed",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
				)
				errorHandler.HandleError(w, r, err)
				return
			}

			ctx = context.WithValue(ctx, userContextKey{}, username)
			ctx = context.WithValue(ctx, tokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated username, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userContextKey{}).(string)
	return user, ok
}

// TokenFromContext returns the token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	return token, ok
}

func parseAuthorization(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	if !strings.EqualFold(scheme, "token") && !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	return token, true
}
