package middleware

import (
	"log/slog"
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the usual hardening headers on every response. In
// production plain HTTP requests are redirected to HTTPS, honouring
// X-Forwarded-Proto from a terminating proxy.
func SecureHeaders(production bool) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:            stsSeconds(production),
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				slog.Warn("secure headers blocked request", "error", err, "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func stsSeconds(production bool) int64 {
	if production {
		return 31536000
	}
	return 0
}
