package email

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mail kinds tracked by the limiter.
const (
	KindOTP             = "otp"
	KindWelcome         = "welcome"
	KindCatalogReview   = "catalog_review"
	KindCatalogApproved = "catalog_approved"
	KindCatalogRejected = "catalog_rejected"
)

// Limiter meters outbound mail against hourly and daily ceilings so the
// provider account is never exhausted.  Counters live in Redis keyed by the
// current window (date, date-hour) and expire shortly after the window
// closes, which gives the daily/hourly reset boundaries without any sweeper.
// With a nil Redis client the limiter fails open.
type Limiter struct {
	RDB         *redis.Client
	DailyLimit  int
	HourlyLimit int
}

func NewLimiter(rdb *redis.Client, daily, hourly int) *Limiter {
	return &Limiter{RDB: rdb, DailyLimit: daily, HourlyLimit: hourly}
}

// Usage is a snapshot of the current windows, used by the stats endpoint.
type Usage struct {
	Daily       int64            `json:"daily_total"`
	Hourly      int64            `json:"hourly_total"`
	DailyLimit  int              `json:"daily_limit"`
	HourlyLimit int              `json:"hourly_limit"`
	ByKind      map[string]int64 `json:"by_kind"`
}

// CanSend reports whether another mail fits under both ceilings.  Redis
// errors fail open: losing mail metering is preferable to losing OTP mail.
func (l *Limiter) CanSend(ctx context.Context) bool {
	if l == nil || l.RDB == nil {
		return true
	}
	now := time.Now().UTC()
	daily, err := l.RDB.Get(ctx, dailyKey(now)).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("email-limiter: daily read failed: %v", err)
		return true
	}
	hourly, err := l.RDB.Get(ctx, hourlyKey(now)).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("email-limiter: hourly read failed: %v", err)
		return true
	}
	return daily < int64(l.DailyLimit) && hourly < int64(l.HourlyLimit)
}

// Record counts one sent mail of the given kind in the current windows.
func (l *Limiter) Record(ctx context.Context, kind string) {
	if l == nil || l.RDB == nil {
		return
	}
	now := time.Now().UTC()
	pipe := l.RDB.Pipeline()
	pipe.Incr(ctx, dailyKey(now))
	pipe.Expire(ctx, dailyKey(now), 48*time.Hour)
	pipe.Incr(ctx, hourlyKey(now))
	pipe.Expire(ctx, hourlyKey(now), 2*time.Hour)
	pipe.Incr(ctx, kindKey(now, kind))
	pipe.Expire(ctx, kindKey(now, kind), 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("email-limiter: record failed: %v", err)
	}
}

// CurrentUsage reads the counters for the stats endpoint.
func (l *Limiter) CurrentUsage(ctx context.Context) (Usage, error) {
	u := Usage{DailyLimit: l.DailyLimit, HourlyLimit: l.HourlyLimit, ByKind: map[string]int64{}}
	if l.RDB == nil {
		return u, nil
	}
	now := time.Now().UTC()
	if v, err := l.RDB.Get(ctx, dailyKey(now)).Int64(); err == nil {
		u.Daily = v
	} else if err != redis.Nil {
		return u, err
	}
	if v, err := l.RDB.Get(ctx, hourlyKey(now)).Int64(); err == nil {
		u.Hourly = v
	} else if err != redis.Nil {
		return u, err
	}
	for _, kind := range []string{KindOTP, KindWelcome, KindCatalogReview, KindCatalogApproved, KindCatalogRejected} {
		if v, err := l.RDB.Get(ctx, kindKey(now, kind)).Int64(); err == nil {
			u.ByKind[kind] = v
		} else if err != redis.Nil {
			return u, err
		}
	}
	return u, nil
}

func dailyKey(t time.Time) string  { return "email:daily:" + t.Format("2006-01-02") }
func hourlyKey(t time.Time) string { return "email:hourly:" + t.Format("2006-01-02-15") }
func kindKey(t time.Time, kind string) string {
	return "email:daily:" + t.Format("2006-01-02") + ":" + kind
}
