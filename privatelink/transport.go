package privatelink

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

//Options configure the restricted transport between the gateway and the
//backend pool address.
type Options struct {
	//BackendURL is the only address the transport is allowed to dial
	BackendURL string

	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConnsPerHost   int
}

//DefaultOptions are sane production settings for the backend link
var DefaultOptions = Options{
	DialTimeout:           5 * time.Second,
	ResponseHeaderTimeout: 30 * time.Second,
	IdleConnTimeout:       90 * time.Second,
	MaxIdleConnsPerHost:   100,
}

//NewTransport builds the http.Transport used by the proxy route. The
//dialer refuses any destination other than the configured backend host,
//keeping the private link the only path traffic can take out of the
//gateway.
func NewTransport(opts Options) (*http.Transport, error) {
	target, err := url.Parse(opts.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("privatelink: invalid backend url %q: %w", opts.BackendURL, err)
	}

	allowed := hostPort(target)

	dialer := &net.Dialer{
		Timeout:   opts.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if addr != allowed {
				return nil, fmt.Errorf("privatelink: refusing to dial %q, link is bound to %q", addr, allowed)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		IdleConnTimeout:       opts.IdleConnTimeout,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
	}, nil
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "https" {
		return net.JoinHostPort(u.Hostname(), "443")
	}
	return net.JoinHostPort(u.Hostname(), "80")
}
