package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/milosbg/mbg-admin-backend/pkg/db/dbtest"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"gorm.io/gorm"
)

func TestNewBaseStoresConnection(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil {
		t.Fatalf("expected non-nil DB when context provided")
	}
	if withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	//nolint:staticcheck // nil context is part of the contract
	withoutCtx := base.DB(nil)
	if withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseTransactionRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := base.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Customer{Email: "a@example.com"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Customer{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}
