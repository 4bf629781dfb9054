package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_AllowsUpToLimit(t *testing.T) {
	_, client := newTestRedis(t)
	clock := newFakeClock()
	l := NewRedis(client, "ratelimit:promo:", 5, time.Minute)
	l.now = clock.Now

	assert.Equal(t, 5, allowN(t, l, "203.0.113.9", 7))
	assert.Equal(t, 5, allowN(t, l, "198.51.100.1", 5), "other keys keep their own budget")
}

func TestRedis_RejectedCallsAreNotStored(t *testing.T) {
	mr, client := newTestRedis(t)
	clock := newFakeClock()
	l := NewRedis(client, "rl:", 2, time.Minute)
	l.now = clock.Now

	allowN(t, l, "ip", 4)

	members, err := mr.ZMembers("rl:ip")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestRedis_WindowSlides(t *testing.T) {
	_, client := newTestRedis(t)
	clock := newFakeClock()
	l := NewRedis(client, "rl:", 2, time.Minute)
	l.now = clock.Now

	assert.Equal(t, 2, allowN(t, l, "ip", 3))
	clock.Advance(61 * time.Second)
	assert.Equal(t, 2, allowN(t, l, "ip", 3))
}

func TestRedis_SharedAcrossInstances(t *testing.T) {
	_, client := newTestRedis(t)
	clock := newFakeClock()
	first := NewRedis(client, "rl:", 3, time.Minute)
	second := NewRedis(client, "rl:", 3, time.Minute)
	first.now, second.now = clock.Now, clock.Now

	assert.Equal(t, 2, allowN(t, first, "ip", 2))
	assert.Equal(t, 1, allowN(t, second, "ip", 2))
}

func TestRedis_KeyExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedis(client, "rl:", 1, time.Minute)

	allowN(t, l, "ip", 1)
	assert.True(t, mr.Exists("rl:ip"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("rl:ip"))
}

func TestRedis_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedis(client, "rl:", 1, time.Minute)
	mr.Close()

	ok, err := l.Allow(context.Background(), "ip")

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())

	_, err = NewRedisClient("://bad")
	assert.Error(t, err)
}
