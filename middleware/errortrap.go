package middleware

import (
	"errors"
	"fmt"

	webkit "github.com/letswire/webkit"
)

// ErrorTrapConfig configures the ErrorTrap middleware.
type ErrorTrapConfig struct {
	// Development includes the error's text in the 500 body when true.
	Development bool
}

// ErrorTrap converts a downstream MalformedBody error into a 400 response,
// a PayloadTooLarge error into a 413 response, and any other downstream
// failure into a generic 500, so a handler panic-free error never reaches
// the writer unhandled.
func ErrorTrap(cfg ErrorTrapConfig) webkit.Middleware {
	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			resp, err := next(req)
			if err == nil {
				return resp, nil
			}
			if errors.Is(err, webkit.ErrMalformedBody) {
				return jsonError(400, err.Error()), nil
			}
			if errors.Is(err, webkit.ErrPayloadTooLarge) {
				return jsonError(413, err.Error()), nil
			}
			if cfg.Development {
				return jsonError(500, fmt.Sprintf("Internal Server Error: %s", err.Error())), nil
			}
			return jsonError(500, "Internal Server Error"), nil
		}
	}
}

func jsonError(status int, msg string) webkit.Response {
	body := fmt.Sprintf(`{"error":%q}`, msg)
	r := webkit.NewResponse(status, []byte(body))
	return r.WithHeader("content-type", "application/json; charset=utf-8")
}
