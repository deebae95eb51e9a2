package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/pkg/jwt"
)

// TokenValidator defines the interface for token validation
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for the raw token the claims came from
	TokenKey contextKey = "token"
)

// Auth returns a middleware that requires a valid token. The token is read
// from the Authorization header, with or without a Bearer prefix, and
// otherwise from the named cookie.
func Auth(validator TokenValidator, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cookieName)
			if token == "" {
				model.NewUnauthorizedError("missing token").WriteJSON(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WithCode(model.ErrCodeTokenExpired).WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WithCode(model.ErrCodeTokenInvalid).WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WithCode(model.ErrCodeTokenInvalid).WriteJSON(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims, token)))
		})
	}
}

// OptionalAuth is like Auth but lets anonymous requests through.
// A valid token still populates the context.
func OptionalAuth(validator TokenValidator, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims, token)))
		})
	}
}

func extractToken(r *http.Request, cookieName string) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(rest)
		}
		return header
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func withClaims(ctx context.Context, claims *jwt.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.ID)
	ctx = context.WithValue(ctx, TokenKey, token)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// GetToken returns the raw token that authenticated the request
func GetToken(ctx context.Context) string {
	if token, ok := ctx.Value(TokenKey).(string); ok {
		return token
	}
	return ""
}
