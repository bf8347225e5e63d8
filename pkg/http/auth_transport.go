package http

import "net/http"

type authTransport struct {
	token     string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per-request credentials win over the connector-wide token.
	if t.token == "" || req.Header.Get("Authorization") != "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set("Authorization", "Bearer "+t.token)

	return t.transport.RoundTrip(reqCopy)
}

func WithAuthToken(token string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			token:     token,
			transport: rt,
		}
	})
}

type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.username == "" || req.Header.Get("Authorization") != "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.SetBasicAuth(t.username, t.password)

	return t.transport.RoundTrip(reqCopy)
}

// WithBasicAuth attaches static Basic credentials to every request that
// does not carry its own Authorization header.
func WithBasicAuth(username, password string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &basicAuthTransport{
			username:  username,
			password:  password,
			transport: rt,
		}
	})
}
