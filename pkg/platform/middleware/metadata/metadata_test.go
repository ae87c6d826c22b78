package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"medgate/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	t.Run("first forwarded address wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", ClientIPFromRequest(r))
	})

	t.Run("real ip header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", " 198.51.100.4 ")
		assert.Equal(t, "198.51.100.4", ClientIPFromRequest(r))
	})

	t.Run("remote addr without port", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "[::1]:5050"
		assert.Equal(t, "::1", ClientIPFromRequest(r))
	})
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:443"
	r.Header.Set("User-Agent", "curl/8.4.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", gotIP)
	assert.Equal(t, "curl/8.4.0", gotUA)
}

func TestDeviceLabel(t *testing.T) {
	assert.Equal(t, "unknown device", DeviceLabel(""))

	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	label := DeviceLabel(chrome)
	assert.Contains(t, label, "Chrome")
	assert.Contains(t, label, "Windows")

	assert.Equal(t, "bot", DeviceLabel("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
}
