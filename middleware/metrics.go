package middleware

import (
	"time"

	webkit "github.com/letswire/webkit"
)

// MetricsSink receives one observation per completed request.
type MetricsSink func(method, path string, status int, duration time.Duration, bodySize int)

// Metrics invokes sink with (method, path, status, duration, body size)
// after every response, regardless of whether the body was buffered or
// streamed (a streamed response reports size 0, since it is not buffered
// in memory).
func Metrics(sink MetricsSink) webkit.Middleware {
	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			start := clockNow()
			resp, err := next(req)
			if err != nil {
				return resp, err
			}
			size := 0
			if !resp.IsStream() {
				size = len(resp.Body())
			}
			sink(req.Method(), req.Path(), resp.Status(), clockNow().Sub(start), size)
			return resp, nil
		}
	}
}
