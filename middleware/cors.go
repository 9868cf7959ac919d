package middleware

import (
	"strings"

	webkit "github.com/letswire/webkit"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// CORS answers OPTIONS preflight requests with 204 and the configured CORS
// headers, and adds the same headers to every other response.
func CORS(cfg CORSConfig) webkit.Middleware {
	origin := strings.Join(cfg.AllowedOrigins, ", ")
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	apply := func(resp webkit.Response) webkit.Response {
		h := map[string]string{
			"access-control-allow-origin":  origin,
			"access-control-allow-methods": methods,
			"access-control-allow-headers": headers,
		}
		if cfg.AllowCredentials {
			h["access-control-allow-credentials"] = "true"
		}
		return resp.CopyWith(webkit.ResponseEdit{Headers: h})
	}

	return func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			if req.Method() == "OPTIONS" {
				return apply(webkit.NewResponse(204, nil)), nil
			}
			resp, err := next(req)
			if err != nil {
				return resp, err
			}
			return apply(resp), nil
		}
	}
}
