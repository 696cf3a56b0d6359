package migrate

import "fmt"

// destructive commands can drop order and payment history.
var destructive = map[string]bool{
	"down":    true,
	"reset":   true,
	"version": true,
}

// Commands that run without a database connection.
var offline = map[string]bool{
	"create":   true,
	"validate": true,
}

// NeedsDB reports whether command has to connect to Postgres.
func NeedsDB(command string) bool {
	return !offline[command]
}

// CheckAllowed refuses commands that can roll back schema in production
// unless force is set. Unknown commands are rejected.
func CheckAllowed(command string, prod, force bool) error {
	switch command {
	case "up", "status", "create", "validate", "down", "reset", "version":
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if prod && destructive[command] && !force {
		return fmt.Errorf("%s is disabled in production without -force", command)
	}
	return nil
}
