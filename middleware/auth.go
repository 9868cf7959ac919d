package middleware

import (
	"strings"

	webkit "github.com/letswire/webkit"
)

// TokenValidator validates a bearer token and returns the principal it
// resolves to.
type TokenValidator func(token string) (any, error)

// Auth extracts a bearer token from the authorization header, validates it
// with validate, and on success stashes the principal under
// context["user"] before calling downstream. On a missing header or a
// validation failure it responds 401 without calling downstream.
func Auth(validate TokenValidator) webkit.Middleware {
	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			header, ok := req.Header("authorization")
			if !ok || !strings.HasPrefix(header, "Bearer ") {
				return jsonError(401, "missing or malformed authorization header"), nil
			}
			token := strings.TrimPrefix(header, "Bearer ")
			principal, err := validate(token)
			if err != nil {
				return jsonError(401, "invalid token"), nil
			}
			return next(req.WithContextValue("user", principal))
		}
	}
}
