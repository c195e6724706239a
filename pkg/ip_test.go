package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{name: "remote addr", remoteAddr: "83.12.53.65:2145", expected: "83.12.53.65"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:8080", expected: "::1"},
		{name: "real ip header", remoteAddr: "172.20.0.1:60102", headers: map[string]string{"X-Real-Ip": "111.12.56.65"}, expected: "111.12.56.65"},
		{name: "forwarded for chain", remoteAddr: "172.20.0.1:60102", headers: map[string]string{"X-Forwarded-For": "111.12.56.65, 10.0.0.1"}, expected: "111.12.56.65"},
		{name: "real ip wins", remoteAddr: "172.20.0.1:60102", headers: map[string]string{"X-Real-Ip": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"}, expected: "1.2.3.4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/summary", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.expected, ClientIP(r))
		})
	}
}
