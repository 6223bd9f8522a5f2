package logx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ipv4 with port", in: "203.0.113.42:5123", want: "203.0.113.0"},
		{name: "ipv4 bare", in: "198.51.100.7", want: "198.51.100.0"},
		{name: "ipv4 mapped ipv6", in: "[::ffff:192.0.2.77]:80", want: "192.0.2.0"},
		{name: "loopback", in: "127.0.0.1:9000", want: "127.0.0.1"},
		{name: "ipv6", in: "[2001:db8:1:2:3:4:5:6]:443", want: "2001:db8:1:2::"},
		{name: "garbage", in: "not-an-ip", want: "unknown_ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, anonymizeIP(tt.in))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("", zerolog.InfoLevel))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN ", zerolog.InfoLevel))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("chatty", zerolog.DebugLevel))
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	handler := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, zerolog.Ctx(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
