package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := NewRedisStore(WithDSN("redis://" + mr.Addr() + "/0"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newMiniredisStore(t)
	roundTrip(t, s)
}

func TestRedisStoreKeyLayout(t *testing.T) {
	s, mr := newMiniredisStore(t)
	require.NoError(t, s.SaveLead(context.Background(), testLead("5551234567")))

	raw, err := mr.Get(DefaultRedisKeyPrefix + "5551234567")
	require.NoError(t, err)
	assert.Contains(t, raw, `"user_id":"5551234567"`)
	assert.Zero(t, mr.TTL(DefaultRedisKeyPrefix+"5551234567"), "records must not expire")
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "", nil)
	mr.Close()

	_, err = s.GetLead(context.Background(), "1")
	assert.Error(t, err)
	assert.Error(t, s.SaveLead(context.Background(), testLead("1")))
}

func TestNewRedisStoreInvalidDSN(t *testing.T) {
	_, err := NewRedisStore(WithDSN("http://localhost:6379"))
	assert.Error(t, err)
}
