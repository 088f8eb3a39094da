package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta carries the request-scoped identifiers the service attaches to
// trace spans: the caller's address plus the correlation headers clients send.
type RequestMeta struct {
	ClientIP  string
	RequestID string
	DeviceID  string
}

// MetaFromRequest extracts span metadata from an incoming request. The client
// IP honours the first hop of X-Forwarded-For when a proxy sits in front.
func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		ClientIP:  clientIP(r),
		RequestID: r.Header.Get("X-Request-Id"),
		DeviceID:  r.Header.Get("X-Device-Id"),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
