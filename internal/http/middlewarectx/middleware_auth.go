// Package middlewarectx contains the HTTP middleware of the service:
// JWT session validation that puts the account identity into the request
// context, and the request rate limit.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-access/internal/http/response"
	"github.com/magabrotheeeer/premium-access/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-access/internal/lib/sl"
)

// Key is the type of the request context keys set by this package.
type Key string

const (
	// AccountUID is the context key of the authenticated account id.
	AccountUID Key = "account_uid"
	// PhoneNumber is the context key of the authenticated phone number.
	PhoneNumber Key = "phone_number"
)

// JWTMiddleware validates the Bearer token in the Authorization header.
//
// On success the account uid and phone number land in the request context;
// otherwise the request is rejected with 401.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), AccountUID, claims.AccountUID)
			ctx = context.WithValue(ctx, PhoneNumber, claims.PhoneNumber)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
