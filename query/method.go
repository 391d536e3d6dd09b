/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
)

// ContentType is sent with every request.
const ContentType = "text/xml"

// ErrInvalidRequest is returned when a Request cannot be sent.
var ErrInvalidRequest = errors.New("invalid request")

// Request describes one call.
type Request struct {
	// Operation is the name of the API action (e.g. ListHostedZones).
	Operation string
	// URL is the absolute target URL, without credentials.
	URL string
	// Parameters are added to the URL query string.
	Parameters map[string]string
	// Body is sent with POST requests.
	Body []byte
}

// Method is one signed call.
// It is signed once, when built, and is never re-signed: a retry builds a new Method from the same Request.
// A Method can be invoked only once.
type Method struct {
	req      Request
	opts     options
	verb     string
	url      string
	header   http.Header
	signTime time.Time
	attempt  int
	invoked  atomic.Bool
}

// New builds and signs a Method.
func New(ctx context.Context, req Request, opts ...Option) (*Method, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newMethod(ctx, req, o, 1)
}

func newMethod(ctx context.Context, req Request, o options, attempt int) (*Method, error) {
	if req.Operation == "" {
		return nil, fmt.Errorf("%w: missing operation", ErrInvalidRequest)
	}
	u, err := url.Parse(req.URL)
	switch {
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, req.Operation, err)
	case !u.IsAbs() || u.Host == "":
		return nil, fmt.Errorf("%w: %s: URL %q is not absolute", ErrInvalidRequest, req.Operation, req.URL)
	case u.User != nil:
		return nil, fmt.Errorf("%w: %s: URL must not embed credentials", ErrInvalidRequest, req.Operation)
	}
	if o.signer == nil {
		return nil, &ConfigurationError{Err: errors.New("no credential context")}
	}
	if len(req.Parameters) > 0 {
		vals := u.Query()
		for k, v := range req.Parameters {
			vals.Set(k, v)
		}
		u.RawQuery = vals.Encode()
	}
	m := &Method{
		req:      req,
		opts:     o,
		verb:     ResolveVerb(req.Operation),
		url:      u.String(),
		signTime: o.clock.Now(),
		attempt:  attempt,
	}

	tmpl, err := http.NewRequestWithContext(ctx, m.verb, m.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, req.Operation, err)
	}
	tmpl.Header.Set("Content-Type", ContentType)
	tmpl.Header.Set("Date", Timestamp(m.signTime))
	if o.userAgent != "" {
		tmpl.Header.Set("User-Agent", o.userAgent)
	}
	if err := o.signer.Sign(tmpl, m.body(), m.signTime); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("%s: %w", req.Operation, err)}
	}
	m.header = tmpl.Header.Clone()
	return m, nil
}

// Operation returns the operation name.
func (m *Method) Operation() string { return m.req.Operation }

// Verb returns the HTTP verb.
func (m *Method) Verb() string { return m.verb }

// URL returns the target URL, including the encoded parameters.
func (m *Method) URL() string { return m.url }

// Header returns a copy of the signed headers.
func (m *Method) Header() http.Header { return m.header.Clone() }

// SignTime returns the time the Method was signed at.
func (m *Method) SignTime() time.Time { return m.signTime }

// Attempt returns the 1-based attempt number of this Method.
func (m *Method) Attempt() int { return m.attempt }

func (m *Method) body() []byte {
	if m.verb != http.MethodPost || len(m.req.Body) == 0 {
		return nil
	}
	return m.req.Body
}

func (m *Method) client() HTTPClient {
	if m.opts.client == nil {
		return DefaultHTTPClient()
	}
	return m.opts.client
}

// Invoke sends the request, retrying on 500/503, and parses the response.
// A second call fails with ErrInvalidRequest: the signature is not renewed, build a new Method instead.
func (m *Method) Invoke(ctx context.Context) (*Document, error) {
	if m.invoked.Swap(true) {
		return nil, fmt.Errorf("%w: %s: method already invoked", ErrInvalidRequest, m.req.Operation)
	}
	logger := klog.FromContext(ctx).WithValues("span_id", xid.New().String(), "operation", m.req.Operation, "verb", m.verb)
	ctx = klog.NewContext(ctx, logger)
	start := m.opts.clock.Now()
	doc, err := m.run(ctx)
	dur := m.opts.clock.Since(start)
	recordMetric(m.req.Operation, dur.Seconds(), err)
	switch {
	case err == nil:
		logger.V(2).Info("Success", "duration", dur)
	case IsNotFound(err):
		logger.V(2).Info("Not found", "error", err.Error(), "duration", dur)
	default:
		logger.V(2).Error(err, "Failure", "duration", dur)
	}
	return doc, err
}

// Lookup calls Invoke, and reports "not found" errors as found=false with a nil error.
func (m *Method) Lookup(ctx context.Context) (*Document, bool, error) {
	doc, err := m.Invoke(ctx)
	switch Classify(err) {
	case OK:
		return doc, true, nil
	case NotFound:
		return nil, false, nil
	default:
		return nil, false, err
	}
}

func (m *Method) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if b := m.body(); b != nil {
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, m.verb, m.url, body)
	if err != nil {
		return nil, err
	}
	req.Header = m.header.Clone()
	return req, nil
}

// run sends m, then new Methods built from the same Request while the service answers 500/503.
func (m *Method) run(ctx context.Context) (*Document, error) {
	backoff := wait.Backoff{
		Duration: m.opts.backoff,
		Factor:   1,
		Steps:    m.opts.maxAttempts,
	}
	cur := m
	for {
		doc, retry, err := cur.send(ctx)
		if !retry {
			return doc, err
		}
		cur, err = cur.next(ctx, backoff.Step())
		if err != nil {
			return nil, err
		}
	}
}

// send makes one round trip. retry is true when the response is a 500/503 and attempts are left.
func (m *Method) send(ctx context.Context) (doc *Document, retry bool, err error) {
	logger := klog.FromContext(ctx).WithValues("attempt", m.attempt)
	op := m.req.Operation
	req, err := m.newHTTPRequest(ctx)
	if err != nil {
		return nil, false, &InternalError{Operation: op, Err: err}
	}
	if logger.V(5).Enabled() {
		logger.Info("AWS request: "+m.verb+" "+m.url, "params", formatParameters(m.req.Parameters), "headers", formatHeaders(req.Header, ", "))
	}

	resp, err := m.client().Do(req)
	if err != nil {
		logger.V(3).Error(err, "AWS error")
		return nil, false, &InternalError{Operation: op, Err: err}
	}
	body, err := readBody(resp)
	if err != nil {
		logger.V(3).Error(err, "AWS error", "http_status", resp.Status)
		return nil, false, &InternalError{Operation: op, Err: fmt.Errorf("read response: %w", err)}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		doc, err := ParseDocument(body)
		if err != nil {
			logger.V(3).Info("AWS invalid response: "+snippet(body), "http_status", resp.Status)
			return nil, false, &InternalError{Operation: op, Err: fmt.Errorf("parse response: %w", err)}
		}
		if logger.V(5).Enabled() {
			logger.Info("AWS response: "+snippet(body), "http_status", resp.Status)
		}
		return doc, false, nil
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		logger.V(3).Info("AWS error response: "+snippet(body), "http_status", resp.Status)
		if m.attempt < m.opts.maxAttempts {
			return nil, true, nil
		}
		return nil, false, &ServiceUnavailableError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Attempts:   m.attempt,
			Body:       errorSnippet(body),
		}
	case http.StatusForbidden:
		logger.V(3).Info("AWS error response: "+snippet(body), "http_status", resp.Status)
		if env, ok := parseErrorEnvelope(body); ok {
			return nil, false, NewServiceError(op, resp.StatusCode, env.Code, env.Message, env.RequestID)
		}
		return nil, false, &GenericCloudError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Reason:     errorSnippet(body),
			Body:       errorSnippet(body),
		}
	default:
		logger.V(3).Info("AWS error response: "+snippet(body), "http_status", resp.Status)
		if env, ok := parseErrorEnvelope(body); ok {
			return nil, false, NewServiceError(op, resp.StatusCode, env.Code, env.Message, env.RequestID)
		}
		return nil, false, &GenericCloudError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Reason:     "unable to parse error",
			Body:       errorSnippet(body),
		}
	}
}

// next waits for delay, then builds the Method of the next attempt.
// POST bodies are sent again as is: operations are expected to be idempotent on the service side.
func (m *Method) next(ctx context.Context, delay time.Duration) (*Method, error) {
	op := m.req.Operation
	recordRetryMetric(op)
	klog.FromContext(ctx).V(3).Info("Retrying", "next_attempt", m.attempt+1, "backoff", delay)
	if err := m.sleep(ctx, delay); err != nil {
		return nil, &InternalError{Operation: op, Err: err}
	}
	return newMethod(ctx, m.req, m.opts, m.attempt+1)
}

// sleep waits for delay on the configured clock, or until ctx is done.
func (m *Method) sleep(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil || delay <= 0 {
		return err
	}
	t := m.opts.clock.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close() //nolint:errcheck
	return io.ReadAll(resp.Body)
}
