package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milosbg/mbg-admin-backend/pkg/db/dbtest"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
)

func TestPruneBeforeKeepsPendingAndRecentRows(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	cutoff := now.Add(-30 * 24 * time.Hour)

	insert := func(createdAt time.Time, published bool, attempts int) uuid.UUID {
		row := models.OutboxEvent{
			ID:            uuid.New(),
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       []byte(`{}`),
			AttemptCount:  attempts,
		}
		if published {
			row.PublishedAt = &createdAt
		}
		require.NoError(t, db.Create(&row).Error)
		require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", row.ID).Update("created_at", createdAt).Error)
		return row.ID
	}

	insert(old, true, 0)
	insert(old, false, 10)
	pending := insert(old, false, 2)
	recent := insert(now, true, 0)

	deleted, err := repo.PruneBefore(context.Background(), db, cutoff, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Order("created_at ASC").Find(&remaining).Error)
	ids := []uuid.UUID{}
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{pending, recent}, ids)
}

func TestPruneBeforeRequiresTransaction(t *testing.T) {
	_, err := NewRepository(nil).PruneBefore(context.Background(), nil, time.Now(), 10)
	assert.Error(t, err)
}
