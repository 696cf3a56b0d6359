package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	pkgAuth "github.com/angelmondragon/shopconsole-backend/pkg/auth"
	"github.com/angelmondragon/shopconsole-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

// Auth validates the admin bearer token and seeds the context with its user id.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
