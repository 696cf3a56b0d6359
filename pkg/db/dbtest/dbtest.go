// Package dbtest opens isolated sqlite databases migrated with the app models.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
)

var counter atomic.Int64

// Open returns a fresh in-memory database with every model migrated.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, counter.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),

		// sqlite compares timestamps as text, so keep every stored time in UTC.
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// Shared-cache memory databases vanish when the last connection closes.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}
