package customers

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

	"github.com/milosbg/mbg-admin-backend/pkg/clerk"
	"github.com/milosbg/mbg-admin-backend/pkg/db/dbtest"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*clerk.User
	calls int
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*clerk.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user lookup failed")
}

func newResolver(t *testing.T, db *gorm.DB, users UserFetcher) *Resolver {
	t.Helper()
	r, err := NewResolver(NewRepository(db), users, nil)
	require.NoError(t, err)
	return r
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestLinkByClerkIDIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	r := newResolver(t, db, nil)
	ctx := context.Background()
	orderID := uuid.New()

	identity := Identity{ClerkID: "user_1", Email: "Ana@Example.com", Name: "Ana"}
	require.NoError(t, r.Link(ctx, identity, orderID))
	require.NoError(t, r.Link(ctx, identity, orderID))

	assert.EqualValues(t, 1, countRows(t, db, &models.Customer{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.CustomerOrder{}))

	customer, err := NewRepository(db).FindByClerkID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", customer.Email)
}

func TestLinkKeepsExistingValuesWhenNewOnesAreEmpty(t *testing.T) {
	db := dbtest.Open(t)
	r := newResolver(t, db, nil)
	ctx := context.Background()

	require.NoError(t, r.Link(ctx, Identity{ClerkID: "user_1", Email: "ana@example.com", Name: "Ana"}, uuid.New()))
	require.NoError(t, r.Link(ctx, Identity{ClerkID: "user_1"}, uuid.New()))
	require.NoError(t, r.Link(ctx, Identity{ClerkID: "user_1", Name: "Ana Ivic"}, uuid.New()))

	customer, err := NewRepository(db).FindByClerkID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", customer.Email)
	assert.Equal(t, "Ana Ivic", customer.Name)
	assert.EqualValues(t, 3, countRows(t, db, &models.CustomerOrder{}))
}

func TestLinkGuestByEmail(t *testing.T) {
	db := dbtest.Open(t)
	r := newResolver(t, db, nil)
	ctx := context.Background()

	require.NoError(t, r.Link(ctx, Identity{Email: " Guest@Example.com "}, uuid.New()))
	require.NoError(t, r.Link(ctx, Identity{Email: "guest@example.com", Name: "Guest"}, uuid.New()))

	assert.EqualValues(t, 1, countRows(t, db, &models.Customer{}))
	guest, err := NewRepository(db).FindGuestByEmail(ctx, "GUEST@example.com")
	require.NoError(t, err)
	assert.Nil(t, guest.ClerkID)
	assert.Equal(t, "Guest", guest.Name)
}

func TestLinkWithoutIdentitySkips(t *testing.T) {
	db := dbtest.Open(t)
	r := newResolver(t, db, nil)
	require.NoError(t, r.Link(context.Background(), Identity{Name: "Nobody"}, uuid.New()))
	assert.Zero(t, countRows(t, db, &models.Customer{}))
}

func TestLinkEnrichesFromIdentityProvider(t *testing.T) {
	db := dbtest.Open(t)
	users := &fakeUsers{users: map[string]*clerk.User{
		"user_1": {
			ID:                    "user_1",
			FirstName:             "Ana",
			LastName:              "Ivic",
			PrimaryEmailAddressID: "e1",
			EmailAddresses:        []clerk.EmailAddress{{ID: "e1", EmailAddress: "ana@example.com"}},
		},
	}}
	r := newResolver(t, db, users)
	ctx := context.Background()

	require.NoError(t, r.Link(ctx, Identity{ClerkID: "user_1"}, uuid.New()))
	customer, err := NewRepository(db).FindByClerkID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Ivic", customer.Name)
	assert.Equal(t, "ana@example.com", customer.Email)

	require.NoError(t, r.Link(ctx, Identity{ClerkID: "user_2"}, uuid.New()), "lookup failure must not fail the link")
	assert.EqualValues(t, 2, countRows(t, db, &models.Customer{}))
}

func TestConcurrentLinksCreateOneCustomer(t *testing.T) {
	db := dbtest.Open(t)
	r := newResolver(t, db, nil)
	ctx := context.Background()
	orderID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Link(ctx, Identity{ClerkID: "user_1", Email: "a@example.com"}, orderID))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, countRows(t, db, &models.Customer{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.CustomerOrder{}))
}

func seedOrder(t *testing.T, db *gorm.DB, clerkID string, contact types.Contact) uuid.UUID {
	t.Helper()
	order := models.Order{
		PaymentFlow:     enums.PaymentFlowProvider,
		PaymentStatus:   enums.PaymentStatusCompleted,
		Contact:         contact,
		Products:        types.OrderLines{},
		ShippingAmount:  decimal.Zero,
		TotalAmount:     decimal.NewFromInt(10),
		CustomerClerkID: &clerkID,
	}
	require.NoError(t, db.Create(&order).Error)
	return order.ID
}

func TestBackfillAndRepairCounts(t *testing.T) {
	db := dbtest.Open(t)
	users := &fakeUsers{users: map[string]*clerk.User{
		"user_2": {ID: "user_2", FirstName: "Marko", EmailAddresses: []clerk.EmailAddress{{ID: "x", EmailAddress: "marko@example.com"}}},
	}}
	r := newResolver(t, db, users)
	ctx := context.Background()

	seedOrder(t, db, "user_1", types.Contact{Email: "ana@example.com", Name: "Ana"})
	seedOrder(t, db, "user_1", types.Contact{Email: "ana@example.com"})
	seedOrder(t, db, "user_2", types.Contact{})

	report, err := r.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Unique)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 3, report.Linked)

	again, err := r.Backfill(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Zero(t, again.Linked)

	repaired, err := r.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired.Checked)
	assert.Equal(t, 1, repaired.Enriched)
	assert.Equal(t, 1, repaired.Updated)

	marko, err := NewRepository(db).FindByClerkID(ctx, "user_2")
	require.NoError(t, err)
	assert.Equal(t, "Marko", marko.Name)
	assert.Equal(t, "marko@example.com", marko.Email)
}

func TestEnrichCountsLookupFailures(t *testing.T) {
	db := dbtest.Open(t)
	r := newResolver(t, db, &fakeUsers{})
	ctx := context.Background()

	_, _, err := NewRepository(db).UpsertByClerkID(ctx, "user_missing", "", "")
	require.NoError(t, err)

	report, err := r.Enrich(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.Failed)
}

func TestBatchLookups(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, _, err := repo.UpsertByClerkID(ctx, "user_1", "a@example.com", "A")
	require.NoError(t, err)
	_, _, err = repo.UpsertGuest(ctx, "g@example.com", "G")
	require.NoError(t, err)

	byClerk, err := repo.FindByClerkIDs(ctx, []string{"user_1", "user_2"})
	require.NoError(t, err)
	assert.Len(t, byClerk, 1)

	byEmail, err := repo.FindGuestsByEmails(ctx, []string{"g@example.com", "a@example.com"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)
	assert.Equal(t, "G", byEmail["g@example.com"].Name)
}
