/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/outscale/aws-query-provider/query"
	testingclock "k8s.io/utils/clock/testing"
)

var epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type response struct {
	status int
	body   string
}

type received struct {
	method string
	query  string
	header http.Header
	body   string
	at     time.Time
}

// fakeAWS is a scripted HTTP server. The last response is repeated once the script is exhausted.
type fakeAWS struct {
	*httptest.Server

	mu        sync.Mutex
	clock     *testingclock.FakeClock
	responses []response
	received  []received
}

func newFakeAWS(t *testing.T, clk *testingclock.FakeClock, responses ...response) *fakeAWS {
	f := &fakeAWS{clock: clk, responses: responses}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAWS) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.received = append(f.received, received{
		method: r.Method,
		query:  r.URL.RawQuery,
		header: r.Header.Clone(),
		body:   string(body),
		at:     f.clock.Now(),
	})
	idx := len(f.received) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	resp := f.responses[idx]
	f.mu.Unlock()
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (f *fakeAWS) requests() []received {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]received(nil), f.received...)
}

func staticCreds() *credentials.Credentials {
	return credentials.NewStaticCredentials("AKIDEXAMPLE", "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", "")
}

func methodOptions(clk *testingclock.FakeClock, extra ...query.Option) []query.Option {
	return append([]query.Option{
		query.WithSigner(query.NewAWS3Signer(staticCreds())),
		query.WithClock(clk),
	}, extra...)
}

// autoStep advances clk whenever a timer waits on it, until the test ends.
func autoStep(t *testing.T, clk *testingclock.FakeClock) {
	done := make(chan struct{})
	stopped := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		<-stopped
	})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
			}
			if clk.HasWaiters() {
				clk.Step(100 * time.Millisecond)
			} else {
				time.Sleep(time.Millisecond)
			}
		}
	}()
}

type failingClient struct {
	calls int
	err   error
}

func (c *failingClient) Do(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, c.err
}
