package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy names a traffic surface and its per-IP budget.
type RateLimitPolicy struct {
	Name   string
	Window time.Duration
	Limit  int
}

func (p RateLimitPolicy) enabled() bool {
	return p.Window > 0 && p.Limit > 0
}

func (p RateLimitPolicy) scope(ip string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "storefront"
	}
	return "ip:" + name + ":" + ip
}

// RateLimit applies a fixed-window counter per client IP.
func RateLimit(policy RateLimitPolicy, store fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(ip), int64(policy.Limit), policy.Window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   policy.Name,
						"ip":       ip,
						"attempts": count,
						"limit":    policy.Limit,
					}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
