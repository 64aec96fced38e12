package middleware

import (
	"strconv"
	"time"

	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/seventv/common/errors"
)

// RateLimit limits the actor, or the client address for anonymous requests,
// to limit requests per window in the given bucket.
func RateLimit(gctx global.Context, bucket string, limit int64, ex time.Duration) rest.Middleware {
	return func(ctx *rest.Ctx) rest.APIError {
		if gctx.Inst().Limiter == nil {
			return nil
		}

		identifier, ok := ctx.GetActor()
		if !ok {
			identifier = ctx.RemoteIP().String()
		}

		res := gctx.Inst().Limiter.Test(bucket, identifier, limit, ex)

		remaining := res.Remaining
		if remaining < 0 {
			remaining = 0
		}

		// Apply headers
		ctx.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(int(res.Limit)))
		ctx.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(int(remaining)))
		ctx.Response.Header.Set("X-RateLimit-Reset", strconv.Itoa(int(res.Reset/time.Second)))

		if !res.Allowed() {
			return errors.ErrRateLimited()
		}

		return nil
	}
}
