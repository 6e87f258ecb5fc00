package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/metrics"
)

// limitForceChecks throttles force checks per client IP.
// Returns 429 Too Many Requests when the client's bucket is empty.
func (s *Server) limitForceChecks(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.RemoteAddr())

	if !s.forceCheckLimiter.Allow(key) {
		metrics.RecordRateLimitHit()
		s.logger.Warn("Rate limit exceeded", "ip", key, "path", ctx.URL().Path)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many change checks. Please try again shortly.")
		return
	}

	next(ctx)
}
