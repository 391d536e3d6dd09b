/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/outscale/aws-query-provider/utils"
	"k8s.io/utils/clock"
)

const (
	// DefaultMaxAttempts is the number of round trips made for an operation failing with 500/503.
	DefaultMaxAttempts = 5
	// DefaultBackoff is the delay between two attempts.
	DefaultBackoff = 5 * time.Second
)

// HTTPClient is a client which can make HTTP requests.
// An example implementation is net/http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	defaultClient     HTTPClient
	defaultClientOnce sync.Once
)

// DefaultHTTPClient returns the process-wide pooled HTTP client.
func DefaultHTTPClient() HTTPClient {
	defaultClientOnce.Do(func() {
		defaultClient = NewHTTPClient(30*time.Second, 90*time.Second)
	})
	return defaultClient
}

// NewHTTPClient builds a pooled HTTP client.
func NewHTTPClient(dialTimeout, requestTimeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 2 * time.Second,
	}
	return &http.Client{
		Timeout:   requestTimeout,
		Transport: tr,
	}
}

type options struct {
	signer      Signer
	client      HTTPClient
	clock       clock.Clock
	maxAttempts int
	backoff     time.Duration
	userAgent   string
}

func defaultOptions() options {
	return options{
		clock:       clock.RealClock{},
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		userAgent:   utils.UserAgent(),
	}
}

// An Option sets options such as signer, HTTP client, clock, etc.
type Option func(*options)

// WithSigner is an Option to set the request signer. A Method cannot be built without one.
func WithSigner(s Signer) Option {
	return func(o *options) {
		o.signer = s
	}
}

// WithHTTPClient is an Option to set the HTTP client to use.
// DefaultHTTPClient is used otherwise.
func WithHTTPClient(c HTTPClient) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithClock is an Option to set the clock used for signing times and backoff.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithRetry is an Option to set the attempt bound and the delay between attempts.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(o *options) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			o.backoff = backoff
		}
	}
}

// WithUserAgent is an Option to set the User-Agent header value.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}
