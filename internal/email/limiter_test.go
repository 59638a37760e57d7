package email

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, daily, hourly int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLimiter(rdb, daily, hourly), mr
}

func TestLimiterCeilings(t *testing.T) {
	ctx := context.Background()

	t.Run("hourly ceiling blocks first", func(t *testing.T) {
		l, _ := newTestLimiter(t, 10, 2)

		require.True(t, l.CanSend(ctx))
		l.Record(ctx, KindOTP)
		require.True(t, l.CanSend(ctx))
		l.Record(ctx, KindWelcome)
		require.False(t, l.CanSend(ctx))
	})

	t.Run("daily ceiling blocks independently", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1, 10)

		l.Record(ctx, KindOTP)
		require.False(t, l.CanSend(ctx))
	})

	t.Run("at one below the ceiling sending is allowed", func(t *testing.T) {
		l, _ := newTestLimiter(t, 2, 2)

		l.Record(ctx, KindOTP)
		require.True(t, l.CanSend(ctx))
	})
}

func TestLimiterRecordKeys(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, 500, 100)

	now := time.Now().UTC()
	l.Record(ctx, KindCatalogReview)
	l.Record(ctx, KindCatalogReview)
	l.Record(ctx, KindOTP)

	daily := "email:daily:" + now.Format("2006-01-02")
	hourly := "email:hourly:" + now.Format("2006-01-02-15")
	kind := daily + ":" + KindCatalogReview

	for key, want := range map[string]string{
		daily:             "3",
		hourly:            "3",
		kind:              "2",
		daily + ":" + KindOTP: "1",
	} {
		got, err := mr.Get(key)
		require.NoError(t, err, key)
		require.Equal(t, want, got, key)
		require.Greater(t, mr.TTL(key), time.Duration(0), key)
	}

	// Counters vanish with their window.
	mr.FastForward(49 * time.Hour)
	require.False(t, mr.Exists(daily))
	require.False(t, mr.Exists(hourly))
	require.False(t, mr.Exists(kind))
	require.True(t, l.CanSend(ctx))
}

func TestLimiterFailOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("nil client", func(t *testing.T) {
		l := NewLimiter(nil, 0, 0)
		require.True(t, l.CanSend(ctx))
		l.Record(ctx, KindOTP) // must not panic
	})

	t.Run("redis down", func(t *testing.T) {
		l, mr := newTestLimiter(t, 1, 1)
		l.Record(ctx, KindOTP)
		require.False(t, l.CanSend(ctx))

		mr.Close()
		require.True(t, l.CanSend(ctx))
	})
}

func TestLimiterCurrentUsage(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, 500, 100)

	l.Record(ctx, KindOTP)
	l.Record(ctx, KindOTP)
	l.Record(ctx, KindWelcome)

	u, err := l.CurrentUsage(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, u.Daily)
	require.EqualValues(t, 3, u.Hourly)
	require.Equal(t, 500, u.DailyLimit)
	require.Equal(t, 100, u.HourlyLimit)
	require.EqualValues(t, 2, u.ByKind[KindOTP])
	require.EqualValues(t, 1, u.ByKind[KindWelcome])
}
