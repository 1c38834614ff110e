package cron

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	values map[string]string
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryLockStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLockExcludesSecondOwner(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "mbg:jobs:lock", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "mbg:jobs:lock", 0)
	require.NoError(t, err)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(context.Background()))
	assert.Contains(t, store.values, "mbg:jobs:lock")

	require.NoError(t, first.Release(context.Background()))
	assert.NotContains(t, store.values, "mbg:jobs:lock")
}

func TestRedisLockLeavesForeignOwner(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	store.values["k"] = "someone-else"
	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "someone-else", store.values["k"])
}
