package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/milosbg/mbg-admin-backend/pkg/db/dbtest"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

func newOrder(flow enums.PaymentFlow) *models.Order {
	return &models.Order{
		PaymentFlow:       flow,
		PaymentStatus:     flow.InitialPaymentStatus(),
		FulfillmentStatus: enums.FulfillmentStatusPending,
		Contact:           types.Contact{Email: "ana@example.com", Name: "Ana Ivic"},
		Products: types.OrderLines{
			{LegacyProductID: "legacy-1", Title: "Tee", Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
		},
		ShippingAddress: types.ShippingAddress{FirstName: "Ana", LastName: "Ivic", City: "Beograd"},
		ShippingMethod:  enums.ShippingMethodFree,
		ShippingRate:    "FREE_SHIPPING",
		ShippingAmount:  decimal.Zero,
		TotalAmount:     decimal.RequireFromString("21.00"),
	}
}

func seedOrder(t *testing.T, db *gorm.DB, order *models.Order) *models.Order {
	t.Helper()
	created, err := NewRepository(db).Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestUpsertCapturedKeepsInsertOnlyColumns(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	external := "PAYPAL-1"

	first := newOrder(enums.PaymentFlowProvider)
	first.ExternalOrderID = &external
	first.PaymentProvider = enums.PaymentProviderPayPal
	first.PaymentStatus = enums.PaymentStatusApproved
	stored, err := repo.UpsertCaptured(ctx, first)
	require.NoError(t, err)

	moved, err := repo.TransitionFulfillment(ctx, stored.ID, enums.FulfillmentStatusPending, enums.FulfillmentStatusProcessing, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, moved)

	replay := newOrder(enums.PaymentFlowProvider)
	replay.ExternalOrderID = &external
	replay.PaymentProvider = enums.PaymentProviderPayPal
	replay.PaymentStatus = enums.PaymentStatusCompleted
	replay.TotalAmount = decimal.RequireFromString("30.00")
	again, err := repo.UpsertCaptured(ctx, replay)
	require.NoError(t, err)

	assert.Equal(t, stored.ID, again.ID)
	assert.Equal(t, enums.PaymentStatusCompleted, again.PaymentStatus)
	assert.True(t, again.TotalAmount.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, enums.FulfillmentStatusProcessing, again.FulfillmentStatus)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertCapturedRequiresExternalID(t *testing.T) {
	db := dbtest.Open(t)
	_, err := NewRepository(db).UpsertCaptured(context.Background(), newOrder(enums.PaymentFlowProvider))
	assert.Error(t, err)
}

func TestTransitionFulfillmentIsCompareAndSet(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, newOrder(enums.PaymentFlowManual))

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ok, err := repo.TransitionFulfillment(ctx, order.ID, enums.FulfillmentStatusPending, enums.FulfillmentStatusProcessing, first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionFulfillment(ctx, order.ID, enums.FulfillmentStatusPending, enums.FulfillmentStatusCancelled, first)
	require.NoError(t, err)
	assert.False(t, ok, "stale from-status must not match")

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.FulfillmentStatusProcessing, loaded.FulfillmentStatus)
	require.NotNil(t, loaded.ProcessingAt)
	assert.True(t, loaded.ProcessingAt.Equal(first))
	assert.Nil(t, loaded.CancelledAt)
}

func TestTransitionFulfillmentKeepsFirstTimestamp(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, newOrder(enums.PaymentFlowManual))

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("processing_at", first).Error)

	ok, err := repo.TransitionFulfillment(ctx, order.ID, enums.FulfillmentStatusPending, enums.FulfillmentStatusProcessing, first.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, loaded.ProcessingAt.Equal(first))
}

func TestUpdatePaymentStatusOnlyTouchesManualOrders(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	manual := seedOrder(t, db, newOrder(enums.PaymentFlowManual))
	require.NoError(t, repo.UpdatePaymentStatus(ctx, manual.ID, enums.PaymentStatusPaid))

	provider := seedOrder(t, db, newOrder(enums.PaymentFlowProvider))
	err := repo.UpdatePaymentStatus(ctx, provider.ID, enums.PaymentStatusPaid)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	loaded, err := repo.FindByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCreated, loaded.PaymentStatus)
}

func TestUpdateShippingClearsCarrier(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, newOrder(enums.PaymentFlowManual))

	carrier := "DHL"
	require.NoError(t, repo.UpdateShipping(ctx, order.ID, ShippingUpdate{Transporter: &carrier}))
	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Transporter)
	assert.Equal(t, "DHL", *loaded.Transporter)

	require.NoError(t, repo.UpdateShipping(ctx, order.ID, ShippingUpdate{ClearCarrier: true}))
	loaded, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Transporter)

	err = repo.UpdateShipping(ctx, uuid.New(), ShippingUpdate{Transporter: &carrier})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListOrdersNewestFirstWithLimit(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		order := newOrder(enums.PaymentFlowManual)
		order.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		ids = append(ids, seedOrder(t, db, order).ID)
	}

	rows, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[2], rows[0].ID)
	assert.Equal(t, ids[1], rows[1].ID)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 0, clampLimit(-5))
	assert.Equal(t, 25, clampLimit(25))
	assert.Equal(t, maxListLimit, clampLimit(10_000))
}
