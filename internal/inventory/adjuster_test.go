package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/milosbg/mbg-admin-backend/internal/events"
	"github.com/milosbg/mbg-admin-backend/pkg/db/dbtest"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func seedProduct(t *testing.T, db *gorm.DB, count int, variants ...models.ProductVariant) models.Product {
	t.Helper()
	product := models.Product{Title: "Hoodie", Price: decimal.NewFromInt(40), CountInStock: count}
	require.NoError(t, db.Create(&product).Error)
	for i := range variants {
		variants[i].ProductID = product.ID
		variants[i].Position = i
		require.NoError(t, db.Create(&variants[i]).Error)
	}
	return product
}

func line(productID uuid.UUID, qty int, color, size string) types.OrderLine {
	id := productID
	return types.OrderLine{ProductID: &id, Quantity: qty, Color: color, Size: size, UnitPrice: decimal.NewFromInt(40)}
}

func TestDecrementMatchesVariantAndDerivesCount(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	pub := &recordingPublisher{}
	adj := NewAdjuster(repo, pub, nil)
	ctx := context.Background()

	product := seedProduct(t, db, 5,
		models.ProductVariant{Color: "Black", Size: "M", Stock: 3},
		models.ProductVariant{Color: "Black", Size: "L", Stock: 2},
	)

	require.NoError(t, adj.Decrement(ctx, types.OrderLines{line(product.ID, 2, "black", "m")}))

	snap, err := repo.Snapshot(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Variants[0].Stock)
	assert.Equal(t, 2, snap.Variants[1].Stock)
	assert.Equal(t, 3, snap.CountInStock)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.KindStock, pub.events[0].Kind)
	assert.Equal(t, 3, pub.events[0].CountInStock)
	assert.Len(t, pub.events[0].Variants, 2)
}

func TestDecrementClampsAtZero(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	adj := NewAdjuster(repo, nil, nil)
	ctx := context.Background()

	withVariant := seedProduct(t, db, 1, models.ProductVariant{Color: "Red", Size: "S", Stock: 1})
	plain := seedProduct(t, db, 2)

	require.NoError(t, adj.Decrement(ctx, types.OrderLines{
		line(withVariant.ID, 5, "Red", "S"),
		line(plain.ID, 9, "", ""),
	}))

	snap, err := repo.Snapshot(ctx, withVariant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Variants[0].Stock)
	assert.Equal(t, 0, snap.CountInStock)

	snap, err = repo.Snapshot(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.CountInStock)
}

func TestDecrementFallsBackToAggregateWhenNoVariantMatches(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	adj := NewAdjuster(repo, nil, nil)
	ctx := context.Background()

	product := seedProduct(t, db, 4, models.ProductVariant{Color: "Blue", Size: "M", Stock: 4})

	require.NoError(t, adj.Decrement(ctx, types.OrderLines{line(product.ID, 1, "Green", "XL")}))

	snap, err := repo.Snapshot(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Variants[0].Stock)
	assert.Equal(t, 3, snap.CountInStock)
}

func TestDecrementTreatsNotApplicableAsAbsent(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	adj := NewAdjuster(repo, nil, nil)
	ctx := context.Background()

	product := seedProduct(t, db, 3, models.ProductVariant{Color: "Blue", Size: "M", Stock: 3})

	require.NoError(t, adj.Decrement(ctx, types.OrderLines{line(product.ID, 1, "N/A", "m")}))

	snap, err := repo.Snapshot(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Variants[0].Stock)
	assert.Equal(t, 2, snap.CountInStock)
}

func TestDecrementAggregatesErrorsAndContinues(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	adj := NewAdjuster(repo, nil, nil)
	ctx := context.Background()

	product := seedProduct(t, db, 3)
	legacy := types.OrderLine{LegacyProductID: "64b0c0ffee", Quantity: 1}

	err := adj.Decrement(ctx, types.OrderLines{
		line(uuid.New(), 1, "", ""),
		legacy,
		line(product.ID, 1, "", ""),
		line(uuid.New(), 1, "", ""),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")

	snap, serr := repo.Snapshot(ctx, product.ID)
	require.NoError(t, serr)
	assert.Equal(t, 2, snap.CountInStock)
}

func TestConcurrentDecrementsNeverGoNegative(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	adj := NewAdjuster(repo, nil, nil)
	ctx := context.Background()

	product := seedProduct(t, db, 3, models.ProductVariant{Color: "Black", Size: "M", Stock: 3})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = adj.Decrement(ctx, types.OrderLines{line(product.ID, 1, "Black", "M")})
		}()
	}
	wg.Wait()

	snap, err := repo.Snapshot(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Variants[0].Stock)
	assert.Equal(t, 0, snap.CountInStock)
}

func TestSetStockRules(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	pub := &recordingPublisher{}
	adj := NewAdjuster(repo, pub, nil)
	ctx := context.Background()

	plain := seedProduct(t, db, 1)
	withVariants := seedProduct(t, db, 2, models.ProductVariant{Color: "Black", Size: "M", Stock: 2})

	count := 7
	got, err := adj.SetStock(ctx, plain.ID, StockUpdate{CountInStock: &count})
	require.NoError(t, err)
	assert.Equal(t, 7, got.CountInStock)

	_, err = adj.SetStock(ctx, withVariants.ID, StockUpdate{CountInStock: &count})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	negative := -1
	_, err = adj.SetStock(ctx, plain.ID, StockUpdate{CountInStock: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = adj.SetStock(ctx, plain.ID, StockUpdate{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = adj.SetStock(ctx, uuid.New(), StockUpdate{CountInStock: &count})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err = adj.SetStock(ctx, withVariants.ID, StockUpdate{Variants: []VariantStock{
		{Color: "black", Size: "m", Stock: 5},
		{Color: "White", Size: "S", Stock: 4},
	}})
	require.NoError(t, err)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, 5, got.Variants[0].Stock)
	assert.Equal(t, "White", got.Variants[1].Color)
	assert.Equal(t, 1, got.Variants[1].Position)
	assert.Equal(t, 9, got.CountInStock)

	assert.Len(t, pub.events, 2)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error { return errors.New("down") }

func TestPublishFailureDoesNotFailDecrement(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	adj := NewAdjuster(repo, failingPublisher{}, nil)

	product := seedProduct(t, db, 2)
	require.NoError(t, adj.Decrement(context.Background(), types.OrderLines{line(product.ID, 1, "", "")}))
}
