package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionHashFromRemoteAddr(t *testing.T) {
	r1 := httptest.NewRequest("POST", "/api/chat/slug/message", nil)
	r1.RemoteAddr = "203.0.113.7:51234"
	r2 := httptest.NewRequest("POST", "/api/chat/slug/message", nil)
	r2.RemoteAddr = "203.0.113.7:60000"

	// Same IP, different ports: same session.
	assert.Equal(t, SessionHash(r1), SessionHash(r2))
	assert.Len(t, SessionHash(r1), 64)

	r3 := httptest.NewRequest("POST", "/api/chat/slug/message", nil)
	r3.RemoteAddr = "203.0.113.8:51234"
	assert.NotEqual(t, SessionHash(r1), SessionHash(r3))
}

func TestSessionHashPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/chat/slug/message", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	direct := httptest.NewRequest("POST", "/api/chat/slug/message", nil)
	direct.RemoteAddr = "203.0.113.7:9999"

	assert.Equal(t, SessionHash(direct), SessionHash(r))
}

func TestSessionHashNeverExposesIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/chat/slug/message", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	assert.NotContains(t, SessionHash(r), "203.0.113.7")
}
