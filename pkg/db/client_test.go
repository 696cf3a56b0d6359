package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := conn.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := conn.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicked"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int64
	if err := conn.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic rollback, got %d rows", count)
	}
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "subscribers_store_email_key"}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", pgErr), "") {
		t.Fatal("expected pg unique violation to match")
	}
	if !IsUniqueViolation(pgErr, "subscribers_store_email_key") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(pgErr, "other_key") {
		t.Fatal("expected different constraint not to match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: subscribers.email"), "") {
		t.Fatal("expected sqlite message to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil is not a violation")
	}
}
