package middleware

import (
	"github.com/google/uuid"
	webkit "github.com/letswire/webkit"
)

// RequestIDHeader is the header name used to carry a request's id both
// inbound and outbound.
const RequestIDHeader = "x-request-id"

// RequestID copies an incoming x-request-id header, or generates one with
// uuid.NewString, attaches it under context["request_id"], and echoes it
// on the outgoing response.
func RequestID() webkit.Middleware {
	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			id, ok := req.Header(RequestIDHeader)
			if !ok || id == "" {
				id = uuid.NewString()
			}
			resp, err := next(req.WithContextValue("request_id", id))
			if err != nil {
				return resp, err
			}
			return resp.WithHeader(RequestIDHeader, id), nil
		}
	}
}
