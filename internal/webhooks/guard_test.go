package webhooks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	keys map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) { return m.keys[key], nil }

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.keys[key] = value.(string)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	store := &memoryStore{keys: map[string]string{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "paypal")
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "WH-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "WH-1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "WH-1"))
	seen, err = guard.CheckAndMark(ctx, "WH-1")
	require.NoError(t, err)
	assert.False(t, seen, "a released id is processed again")

	_, err = guard.CheckAndMark(ctx, "")
	assert.Error(t, err)
}

func TestNewIdempotencyGuardValidates(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "x")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(&memoryStore{}, -time.Second, "x")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(&memoryStore{}, time.Hour, "")
	assert.Error(t, err)
}
