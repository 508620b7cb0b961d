package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"consensus-bridge/internal/normalize"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single endpoint attempt.
const DefaultTimeout = 8 * time.Second

// Options configure a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Production  bool
	DevFallback bool
	DevProbe    bool
	ProbeBases  []string
	HTTPClient  *http.Client
}

// Client talks to the forum service. Reads fail over across endpoint
// candidates; writes go to exactly one endpoint.
type Client struct {
	resolver Resolver
	http     *http.Client
	timeout  time.Duration
	fallback bool
}

// New creates a forum client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		resolver: NewResolver(opts.BaseURL, opts.Production, opts.DevProbe, opts.ProbeBases),
		http:     hc,
		timeout:  timeout,
		fallback: opts.DevFallback && !opts.Production,
	}
}

// Request describes one logical call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Creds  Credentials
}

func (r Request) read() bool {
	return r.Method == "" || r.Method == http.MethodGet
}

// Execute performs a logical call and returns the envelope's data field.
func (c *Client) Execute(ctx context.Context, req Request) (any, error) {
	data, _, err := c.execute(ctx, req)
	return data, err
}

func (c *Client) execute(ctx context.Context, req Request) (any, []string, error) {
	if c == nil {
		return nil, nil, errors.New("nil forum client")
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal %s body: %w", req.Path, err)
		}
		payload = b
	}

	requestID := uuid.NewString()
	candidates := c.resolver.Candidates(req.Path, req.read())
	attempts := make([]string, 0, len(candidates))
	var lastErr error
	for i, cand := range candidates {
		target := cand.URL()
		if len(req.Query) > 0 {
			target += "?" + req.Query.Encode()
		}
		attempts = append(attempts, target)
		data, err := c.attempt(ctx, method, target, requestID, payload, req.Creds)
		if err == nil {
			if i > 0 {
				slog.Info("api: endpoint failover succeeded", "request_id", requestID, "path", req.Path, "url", target, "attempts", len(attempts))
			}
			return data, attempts, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, attempts, fmt.Errorf("%s %s: %w", method, req.Path, ctxErr)
		}
		if i == len(candidates)-1 || !retryable(err) {
			break
		}
		slog.Debug("api: attempt failed, trying next endpoint", "request_id", requestID, "url", target, "err", err)
	}
	return nil, attempts, finalize(lastErr)
}

// attempt issues one HTTP call bounded by the client timeout. The timer is
// released when attempt returns, whatever the outcome.
func (c *Client) attempt(ctx context.Context, method, target, requestID string, payload []byte, creds Credentials) (any, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(actx, method, target, body)
	if err != nil {
		return nil, err
	}
	base := http.Header{}
	base.Set("Accept", "application/json")
	base.Set("X-Request-ID", requestID)
	if payload != nil {
		base.Set("Content-Type", "application/json")
	}
	httpReq.Header = creds.Headers(base)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, actx, method, target, err)
	}
	defer resp.Body.Close()

	// A connection dropped mid-body is a transport failure like a refused dial.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, actx, method, target, err)
	}
	ct := resp.Header.Get("Content-Type")
	if !isJSON(ct) {
		return nil, fmt.Errorf("%s %s: status=%d content-type=%q: %w", method, target, resp.StatusCode, ct, ErrUnexpectedPayload)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%s %s: decode: %v: %w", method, target, err, ErrUnexpectedPayload)
	}
	code, reason, msg, data, ok := normalize.Envelope(v)
	if !ok {
		return nil, fmt.Errorf("%s %s: response is not an envelope: %w", method, target, ErrUnexpectedPayload)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if strings.TrimSpace(msg) == "" {
			msg = "API request failed: " + httpReq.URL.Path
		}
		return nil, &APIError{Status: resp.StatusCode, Code: code, Reason: reason, Message: msg}
	}
	return data, nil
}

func (c *Client) transportError(parent, attemptCtx context.Context, method, target string, err error) error {
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", method, target, ErrTimeout)
	}
	return fmt.Errorf("%s %s: %w: %w", method, target, ErrTransport, err)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// fetch runs a read and converts its data. On a terminal failure with the
// development fallback active, the supplied default is returned instead.
func fetch[T any](ctx context.Context, c *Client, req Request, fallback T, conv func(any) T) (T, error) {
	data, attempts, err := c.execute(ctx, req)
	if err != nil {
		if c != nil && c.fallback && req.read() && ctx.Err() == nil {
			slog.Warn("api: unavailable, fallback enabled", "path", req.Path, "attempts", attempts, "err", err)
			return fallback, nil
		}
		return fallback, err
	}
	return conv(data), nil
}

// send runs a write. Writes never use the fallback.
func send[T any](ctx context.Context, c *Client, req Request, conv func(any) T) (T, error) {
	req.Method = http.MethodPost
	data, _, err := c.execute(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return conv(data), nil
}
