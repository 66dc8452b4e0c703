// Package httpclient builds the pooled HTTP client shared by the
// dispatcher and the health prober, per spec.md §5's connection
// management requirement: persistent keep-alive connections, a bounded
// per-host socket count, and idle reuse, keyed by analyzer endpoint.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// New builds an *http.Client tuned for many small, concurrent requests
// to a modest, fixed set of analyzer hosts. Redirects are never
// followed, matching spec.md §4.4's "do not follow redirects".
func New() *http.Client {
	transport := &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 32,
		MaxConnsPerHost:     64,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
