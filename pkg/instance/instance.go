package instance

import (
	"os"

	"github.com/angelmondragon/shopconsole-backend/pkg/env"
)

// GetID identifies this process in logs and lock tokens. It prefers an
// explicit id, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("SHOPCONSOLE_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
