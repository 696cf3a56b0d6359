package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopConsole-Env", env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency concurrently and reports 503 if
// any of them fails.
func HealthReady(env string, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopConsole-Env", env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			g.Go(func() error {
				if err := dep.Ping(gctx); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready")
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
