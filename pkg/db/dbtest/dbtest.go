// Package dbtest opens isolated in-memory SQLite databases carrying the
// same tables as the Postgres migrations.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		external_order_id TEXT,
		payment_flow TEXT NOT NULL,
		payment_provider TEXT NOT NULL DEFAULT '',
		payment_status TEXT NOT NULL,
		fulfillment_status TEXT NOT NULL DEFAULT 'PENDING',
		customer_clerk_id TEXT,
		contact TEXT NOT NULL DEFAULT '{}',
		products TEXT NOT NULL DEFAULT '[]',
		shipping_address TEXT NOT NULL DEFAULT '{}',
		shipping_method TEXT NOT NULL DEFAULT 'FREE',
		shipping_rate TEXT NOT NULL DEFAULT '',
		shipping_amount TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		tracking_number TEXT,
		transporter TEXT,
		weight_grams INTEGER,
		date_mailed DATETIME,
		processing_at DATETIME,
		shipped_at DATETIME,
		delivered_at DATETIME,
		completed_at DATETIME,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_orders_external_order_id ON orders (external_order_id)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		price TEXT NOT NULL DEFAULT '0',
		count_in_stock INTEGER NOT NULL DEFAULT 0 CHECK (count_in_stock >= 0),
		fetch_to_store BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_variants (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)
	)`,
	`CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		clerk_id TEXT,
		email TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_customers_clerk_id ON customers (clerk_id)`,
	`CREATE UNIQUE INDEX ux_customers_guest_email ON customers (email) WHERE clerk_id IS NULL`,
	`CREATE TABLE customer_orders (
		customer_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		created_at DATETIME,
		PRIMARY KEY (customer_id, order_id)
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE UNIQUE INDEX ux_outbox_events_event_aggregate ON outbox_events (event_type, aggregate_id) WHERE event_type IN ('order.placed', 'order.paid')`,
}

// Open returns a fresh database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// every pooled connection must see the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to apply schema: %v", err)
		}
	}
	return conn
}
