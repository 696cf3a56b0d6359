package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// CreateSQLMigration creates <dir>/<YYYYMMDDHHMMSS>_<name>.sql. The version is
// always later than every migration already in dir, so files made within the
// same second or on a skewed clock still apply in creation order.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	if name == "" {
		return "", fmt.Errorf("name is required")
	}

	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version, err := nextVersion(dir, time.Now().UTC())
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.sql", version, safe)
	fullpath := filepath.Join(dir, filename)

	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	template := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %s
-- orders and promo_codes are hot tables; avoid long ACCESS EXCLUSIVE locks.
SET LOCAL lock_timeout = '5s';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`, safe, safe)

	if err := os.WriteFile(fullpath, []byte(template), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}

	return fullpath, nil
}

func nextVersion(dir string, now time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir %q: %w", dir, err)
	}
	next := now.Truncate(time.Second)
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		existing, err := time.Parse(versionLayout, m[1])
		if err != nil {
			continue
		}
		if !existing.Before(next) {
			next = existing.Add(time.Second)
		}
	}
	return next.Format(versionLayout), nil
}
