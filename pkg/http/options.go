package http

import "time"

type HttpOpts func(*clientConfig)

// Timeouts of the underlying client. Zero fields keep the defaults.
type Timeouts struct {
	// Request bounds the whole exchange, body included.
	Request        time.Duration
	Dial           time.Duration
	KeepAlive      time.Duration
	TLSHandshake   time.Duration
	ResponseHeader time.Duration
	IdleConn       time.Duration
}

func (t Timeouts) merge(over Timeouts) Timeouts {
	pick := func(base, v time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return base
	}
	return Timeouts{
		Request:        pick(t.Request, over.Request),
		Dial:           pick(t.Dial, over.Dial),
		KeepAlive:      pick(t.KeepAlive, over.KeepAlive),
		TLSHandshake:   pick(t.TLSHandshake, over.TLSHandshake),
		ResponseHeader: pick(t.ResponseHeader, over.ResponseHeader),
		IdleConn:       pick(t.IdleConn, over.IdleConn),
	}
}

func WithTimeouts(t Timeouts) HttpOpts {
	return func(c *clientConfig) {
		c.timeouts = c.timeouts.merge(t)
	}
}

// WithIdleConnsPerHost sizes the keep-alive pool for the single upstream
// host a connector talks to.
func WithIdleConnsPerHost(n int) HttpOpts {
	return func(c *clientConfig) {
		c.idleConnsPerHost = n
	}
}

// WithTransport wraps the round-tripper; later wrappers run first.
func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *clientConfig) {
		c.transports = append(c.transports, transport)
	}
}

func WithUserAgent(userAgent string) HttpOpts {
	return func(c *clientConfig) {
		c.userAgent = userAgent
	}
}
