// Package middleware provides the standard library of Middleware
// implementations: logging, CORS, error recovery, authentication, rate
// limiting, request-id propagation, security headers, and metrics.
package middleware

import (
	"time"

	webkit "github.com/letswire/webkit"
)

// Logging returns a Middleware that logs method, path, status, and
// elapsed time for every request through logger, catching a downstream
// failure to log it before re-raising.
func Logging(logger webkit.Logger) webkit.Middleware {
	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			start := clockNow()
			resp, err := next(req)
			elapsed := clockNow().Sub(start)
			if err != nil {
				logger.Error("request failed",
					"method", req.Method(), "path", req.Path(),
					"elapsed_ms", elapsed.Milliseconds(), "error", err)
				return resp, err
			}
			logger.Info("request",
				"method", req.Method(), "path", req.Path(),
				"status", resp.Status(), "elapsed_ms", elapsed.Milliseconds())
			return resp, nil
		}
	}
}

// clockNow is a seam for deterministic tests.
var clockNow = time.Now
