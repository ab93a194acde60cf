// Package transport implements the HTTP client for the humanizer pipeline
// service: a non-streaming clean path and the NDJSON streaming rewrite path.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unhype/unhype/internal/domain/event"
	"github.com/unhype/unhype/internal/domain/model"
	"github.com/unhype/unhype/internal/domain/stream"
	"github.com/unhype/unhype/pkg/logger"
	"github.com/unhype/unhype/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultReadBufferSize = 4096
	defaultCleanTimeout   = 30 * time.Second

	processPath = "/api/process"
)

// genericFailure is the message synthesized when the byte stream aborts
// before a terminal event. It is deliberately distinct from upstream-reported
// error messages, which pass through verbatim.
const genericFailure = "connection to the pipeline was interrupted"

// Client talks to the pipeline service.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	readBufferSize int
	cleanTimeout   time.Duration

	log logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithReadBufferSize sets the chunk size used to drain stream bodies.
func WithReadBufferSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.readBufferSize = size
		}
	}
}

// WithCleanTimeout bounds the non-streaming clean request. The streaming
// path is unbounded; callers cancel it through context.
func WithCleanTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cleanTimeout = d
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		readBufferSize: defaultReadBufferSize,
		cleanTimeout:   defaultCleanTimeout,
		log:            logger.Get().Named("transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean runs the non-streaming clean-only mode: one request, one JSON decode.
func (c *Client) Clean(ctx context.Context, text string, strength model.Strength) (model.Result, error) {
	if strings.TrimSpace(text) == "" {
		return model.Result{}, ErrEmptyInput
	}

	ctx, cancel := context.WithTimeout(ctx, c.cleanTimeout)
	defer cancel()

	resp, err := c.postProcess(ctx, model.ActionClean, text, strength)
	if err != nil {
		return model.Result{}, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return model.Result{}, c.statusError(resp)
	}

	var result model.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.Result{}, fmt.Errorf("%w: decode clean response: %w", ErrTransport, err)
	}
	return result, nil
}

// Rewrite runs the streaming mode, feeding framed events into sess until the
// stream closes. The session reaches exactly one terminal state: either an
// upstream error/done event, or a synthesized failure when the byte stream
// aborts first. Context cancellation abandons the session instead, so a
// superseded request cannot mutate a display it no longer owns.
func (c *Client) Rewrite(ctx context.Context, text string, strength model.Strength, sess *stream.Session) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	resp, err := c.postProcess(ctx, model.ActionRewrite, text, strength)
	if err != nil {
		sess.Fail(ctx, genericFailure)
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		err := c.statusError(resp)
		sess.Fail(ctx, genericFailure)
		return err
	}

	return c.consume(ctx, resp.Body, sess)
}

// consume drains body chunk by chunk through the frame decoder, dispatching
// each parsed event to the session in arrival order.
func (c *Client) consume(ctx context.Context, body io.Reader, sess *stream.Session) error {
	decoder := stream.NewFrameDecoder()
	buf := make([]byte, c.readBufferSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range decoder.Decode(buf[:n]) {
				c.dispatch(ctx, line, sess)
			}
		}
		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			if last, ok := decoder.Finish(); ok {
				c.dispatch(ctx, last, sess)
			}
			if !sess.Terminal() && !sess.Abandoned() {
				// Stream closed without a terminal event; the session must
				// not stay stuck in streaming.
				sess.Fail(ctx, genericFailure)
			}
			return nil
		}
		if ctx.Err() != nil {
			// Caller walked away; stale bytes must not mutate the display.
			sess.Abandon()
			return fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
		}
		sess.Fail(ctx, genericFailure)
		return fmt.Errorf("%w: read stream: %w", ErrTransport, readErr)
	}
}

// dispatch parses one framed line and hands the event to the session.
// Malformed lines are framing noise: logged, counted, and dropped without
// ending the stream. Blank lines are skipped silently.
func (c *Client) dispatch(ctx context.Context, line string, sess *stream.Session) {
	if strings.TrimSpace(line) == "" {
		return
	}
	metrics.RecordLineFramed()

	ev, err := event.Parse(line)
	if err != nil {
		metrics.RecordMalformedLine()
		c.log.Warn(ctx, "dropping malformed stream line", logger.Error(err))
		return
	}
	sess.HandleEvent(ctx, ev)
}

func (c *Client) postProcess(ctx context.Context, action model.Action, text string, strength model.Strength) (*http.Response, error) {
	form := url.Values{}
	form.Set("action", string(action))
	form.Set("text", text)
	form.Set("strength", string(strength))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return resp, nil
}

// statusError turns a non-200 response into an error, preferring the
// service's JSON {"detail": ...} body when present.
func (c *Client) statusError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
		return fmt.Errorf("%w: %s (status %d)", ErrRequestFailed, payload.Detail, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
}
