// Package transport issues XML requests against the Tally server.
//
// Tally maintains exactly one "current company" context per connection and
// is not safe under concurrent sessions: overlapping requests can cross-talk
// between company contexts. The Client therefore serializes every caller
// through a single-lane FIFO queue — user loads, page navigations, and
// background prefetches all funnel through the same worker, and at most one
// request is in flight upstream at any time. Responses come back in enqueue
// order; a later request never completes before an earlier one settles.
//
// The Client does not retry and does not cache; both are service-layer
// decisions. A caller whose context is cancelled stops waiting, but the
// in-flight upstream call is never cancelled mid-request (there is no safe
// way to abandon a Tally export half-way).
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Resolver yields the upstream endpoint URL for a request. It is consulted
// per call so a settings change takes effect without rebuilding the client.
type Resolver func(ctx context.Context) (string, error)

// call is one queued request with its settlement channel.
type call struct {
	xml   string
	reply chan result
}

type result struct {
	body string
	err  error
}

// Client is the serialized HTTP transport to a single Tally server.
type Client struct {
	resolve Resolver
	httpc   *http.Client
	timeout time.Duration
	log     zerolog.Logger

	queue chan *call
	done  chan struct{}
	once  sync.Once
}

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds each upstream call. Defaults to 45s; Tally is known
	// to be slow for large exports.
	Timeout time.Duration
	// QueueDepth bounds how many callers may wait. Defaults to 128.
	QueueDepth int
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// New constructs a Client and starts its queue worker. Call Close to stop it.
func New(resolve Resolver, log zerolog.Logger, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 128
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	c := &Client{
		resolve: resolve,
		httpc:   opts.HTTPClient,
		timeout: opts.Timeout,
		log:     log,
		queue:   make(chan *call, opts.QueueDepth),
		done:    make(chan struct{}),
	}
	go c.worker()
	return c
}

// Send enqueues an XML request and blocks until it settles, the caller's
// context ends, or the client closes. Queue order is FIFO; the upstream
// call itself is not cancelled when ctx ends.
func (c *Client) Send(ctx context.Context, xmlRequest string) (string, error) {
	select {
	case <-c.done:
		return "", ErrClientClosed
	default:
	}

	cl := &call{xml: xmlRequest, reply: make(chan result, 1)}
	select {
	case c.queue <- cl:
	case <-c.done:
		return "", ErrClientClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case res := <-cl.reply:
		return res.body, res.err
	case <-c.done:
		// The worker may have settled the call while shutting down.
		select {
		case res := <-cl.reply:
			return res.body, res.err
		default:
			return "", ErrClientClosed
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the worker. Queued but unstarted calls settle with
// ErrClientClosed.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// worker drains the queue one call at a time, guaranteeing at most one
// in-flight upstream request.
func (c *Client) worker() {
	for {
		select {
		case <-c.done:
			c.drain()
			return
		case cl := <-c.queue:
			queueDepth.Set(float64(len(c.queue)))
			cl.reply <- c.do(cl.xml)
		}
	}
}

// drain settles any calls that were queued before Close.
func (c *Client) drain() {
	for {
		select {
		case cl := <-c.queue:
			cl.reply <- result{err: ErrClientClosed}
		default:
			return
		}
	}
}

// do executes one upstream call and classifies its outcome. The request
// context is detached from the caller so caller cancellation cannot abort a
// half-finished export.
func (c *Client) do(xmlRequest string) result {
	url, err := c.resolve(context.Background())
	if err != nil {
		observe("unconfigured", 0)
		return result{err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(xmlRequest))
	if err != nil {
		observe("error", 0)
		return result{err: &NetworkError{URL: url, Err: err}}
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Warn().Str("url", url).Dur("after", c.timeout).Msg("upstream request timed out")
			observe("timeout", elapsed)
			return result{err: &TimeoutError{URL: url, After: c.timeout}}
		}
		c.log.Warn().Str("url", url).Err(err).Msg("upstream unreachable")
		observe("network_error", elapsed)
		return result{err: &NetworkError{URL: url, Err: err}}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		c.log.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("upstream http error")
		observe("http_error", elapsed)
		return result{err: &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observe("network_error", elapsed)
		return result{err: &NetworkError{URL: url, Err: err}}
	}
	if appErr := classifyBody(string(body)); appErr != nil {
		c.log.Warn().Str("url", url).Err(appErr).Msg("upstream application error")
		observe("app_error", elapsed)
		return result{err: appErr}
	}

	c.log.Debug().
		Str("url", url).
		Dur("latency", elapsed).
		Int("bytes", len(body)).
		Msg("upstream request")
	observe("ok", elapsed)
	return result{body: string(body)}
}
