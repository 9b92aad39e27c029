package middleware

import (
	"net/http"
)

// APIContentSecurityPolicy is strict: the API only returns JSON.
const APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeadersWithCSP adds security headers with custom Content-Security-Policy
// isHTTPS: if true, adds Strict-Transport-Security header
// csp: Content-Security-Policy value (if empty, no CSP header is set)
func SecurityHeadersWithCSP(isHTTPS bool, csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()

			// No page may frame an API response or an uploaded photo
			headers.Set("X-Frame-Options", "DENY")

			// Uploaded files are served with their stored type only
			headers.Set("X-Content-Type-Options", "nosniff")

			// Event names end up in URLs, keep them off other origins
			headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Browser features the gallery never needs
			headers.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")

			// CSP is optional, static file routes pass ""
			if csp != "" {
				headers.Set("Content-Security-Policy", csp)
			}

			// HSTS - only behind HTTPS (secure cookies on)
			if isHTTPS {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
