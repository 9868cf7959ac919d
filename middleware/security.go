package middleware

import webkit "github.com/letswire/webkit"

// SecurityHeaders sets a conservative default set of hardening headers on
// every response.
func SecurityHeaders() webkit.Middleware {
	headers := map[string]string{
		"x-frame-options":         "DENY",
		"x-content-type-options":  "nosniff",
		"referrer-policy":         "no-referrer",
		"permissions-policy":      "geolocation=(), microphone=(), camera=()",
		"x-xss-protection":        "1; mode=block",
	}
	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			resp, err := next(req)
			if err != nil {
				return resp, err
			}
			return resp.CopyWith(webkit.ResponseEdit{Headers: headers}), nil
		}
	}
}
