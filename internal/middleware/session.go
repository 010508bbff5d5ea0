package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

const (
	// SessionHashKey is the context key for the citizen session hash.
	SessionHashKey ContextKey = "session_hash"
)

// Session attaches an anonymous session identity to public chat requests:
// the SHA-256 of the client IP. No cookie, no account, no raw IP stored.
func Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), SessionHashKey, SessionHash(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionHash derives the session identity for a request. The first entry of
// X-Forwarded-For wins when the API sits behind a proxy.
func SessionHash(r *http.Request) string {
	ip := clientIP(r)
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// GetSessionHash gets the citizen session hash from context.
func GetSessionHash(ctx context.Context) string {
	if v := ctx.Value(SessionHashKey); v != nil {
		return v.(string)
	}
	return ""
}
