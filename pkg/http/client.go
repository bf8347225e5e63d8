package http

import (
	"net"
	"net/http"
	"time"
)

type TransportFunc func(http.RoundTripper) http.RoundTripper

type clientConfig struct {
	timeouts         Timeouts
	idleConnsPerHost int
	transports       []TransportFunc
	userAgent        string
}

var defaultTimeouts = Timeouts{
	Request:        30 * time.Second,
	Dial:           10 * time.Second,
	KeepAlive:      90 * time.Second,
	TLSHandshake:   10 * time.Second,
	ResponseHeader: 10 * time.Second,
	IdleConn:       90 * time.Second,
}

func newClient(opts ...HttpOpts) *http.Client {
	cfg := &clientConfig{
		timeouts:         defaultTimeouts,
		idleConnsPerHost: 10,
		userAgent:        "jd-assessment",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.timeouts.Dial,
		KeepAlive: cfg.timeouts.KeepAlive,
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   cfg.idleConnsPerHost,
		TLSHandshakeTimeout:   cfg.timeouts.TLSHandshake,
		ResponseHeaderTimeout: cfg.timeouts.ResponseHeader,
		IdleConnTimeout:       cfg.timeouts.IdleConn,
	}

	// The user agent is set innermost so logging sees the final request.
	if cfg.userAgent != "" {
		rt = userAgentTransport(cfg.userAgent)(rt)
	}
	for _, wrap := range cfg.transports {
		rt = wrap(rt)
	}

	return &http.Client{
		Timeout:   cfg.timeouts.Request,
		Transport: rt,
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func userAgentTransport(userAgent string) TransportFunc {
	return func(rt http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("User-Agent") != "" {
				return rt.RoundTrip(req)
			}
			r := req.Clone(req.Context())
			r.Header.Set("User-Agent", userAgent)
			return rt.RoundTrip(r)
		})
	}
}
