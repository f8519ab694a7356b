package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/taskbot/core/telegram/netutil"
)

// apiTimeouts bound every hop of a Bot API call. The client timeout must
// exceed the long-poll timeout or getUpdates would always fail.
var apiTimeouts = struct {
	dial, tls, idle, header, client time.Duration
}{
	dial:   5 * time.Second,
	tls:    5 * time.Second,
	idle:   30 * time.Second,
	header: 5 * time.Second,
	client: 30 * time.Second,
}

// BuildHTTPClient returns the client used for every Bot API request.
// Connection-level failures are retried a few times before surfacing.
func BuildHTTPClient() *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: apiTimeouts.dial, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       apiTimeouts.idle,
		TLSHandshakeTimeout:   apiTimeouts.tls,
		ResponseHeaderTimeout: apiTimeouts.header,
	}
	return &http.Client{
		Timeout:   apiTimeouts.client,
		Transport: &retryTransport{next: base, attempts: 3, pause: time.Second},
	}
}

type retryTransport struct {
	next     http.RoundTripper
	attempts int
	pause    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	for n := 1; err != nil && n < t.attempts && netutil.Transient(err); n++ {
		retry, rerr := rewind(req)
		if rerr != nil {
			return nil, err
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(t.pause * time.Duration(n)):
		}
		resp, err = t.next.RoundTrip(retry)
	}
	return resp, err
}

// rewind clones req with a fresh body so it can be sent again.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, http.ErrBodyReadAfterClose
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
