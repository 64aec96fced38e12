package limiter

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Instance counts requests per bucket and identifier in fixed windows.
type Instance interface {
	// Test records one hit and reports the limit, the hits remaining in the window
	// and the time until the window resets.
	Test(bucket, identifier string, limit int64, dur time.Duration) Result
}

type Result struct {
	Limit     int64
	Remaining int64
	Reset     time.Duration
}

func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

type window struct {
	count   int64
	expires time.Time
}

type limiterInst struct {
	windows *cache.Cache
	mx      sync.Mutex
}

func New() Instance {
	return &limiterInst{
		windows: cache.New(time.Minute, time.Minute*5),
	}
}

func (inst *limiterInst) Test(bucket, identifier string, limit int64, dur time.Duration) Result {
	key := bucket + ":" + identifier
	now := time.Now()

	inst.mx.Lock()
	defer inst.mx.Unlock()

	w, ok := inst.windows.Get(key)

	cur, _ := w.(*window)
	if !ok || cur == nil || !now.Before(cur.expires) {
		cur = &window{expires: now.Add(dur)}
		inst.windows.Set(key, cur, dur)
	}

	cur.count++

	return Result{
		Limit:     limit,
		Remaining: limit - cur.count,
		Reset:     cur.expires.Sub(now),
	}
}
