package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/onboarding/pkg/constants"
	"github.com/iota-uz/onboarding/pkg/logging"
)

// Client is the resource client the wizards persist through. Every method
// fails with *Error on a non-2xx response.
type Client interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// GetRetries bounds retries of GET requests on transport errors and 5xx.
	// Writes are never retried.
	GetRetries  int
	MaxBackoff  time.Duration
	MaxErrBody  int
	HTTPClient  *http.Client
	Logger      *logrus.Entry
	RequestIDFn func(ctx context.Context) string
	Rand        *rand.Rand
}

func (o *Options) setDefaults() {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxBackoff == 0 {
		o.MaxBackoff = 5 * time.Second
	}
	if o.MaxErrBody == 0 {
		o.MaxErrBody = 2048
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.RequestIDFn == nil {
		o.RequestIDFn = requestIDFromContext
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
}

type HTTPClient struct {
	opts Options
}

func New(opts Options) *HTTPClient {
	opts.setDefaults()
	return &HTTPClient{opts: opts}
}

type headersKey struct{}

// WithHeader attaches an extra request header to every call made with ctx.
func WithHeader(ctx context.Context, key, value string) context.Context {
	prev, _ := ctx.Value(headersKey{}).(http.Header)
	h := prev.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	return context.WithValue(ctx, headersKey{}, h)
}

func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(constants.RequestIDKey).(string)
	return v
}

func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil || !c.retryable(err) || attempt >= c.opts.GetRetries {
			return err
		}
		wait := backoff(attempt+1, c.opts.MaxBackoff) + jitter(c.opts.Rand, 50*time.Millisecond)
		c.opts.Logger.WithError(err).WithFields(logrus.Fields{
			"path":    path,
			"attempt": attempt + 1,
			"wait":    wait.String(),
		}).Warn("apiclient: retrying GET")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *HTTPClient) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *HTTPClient) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encode %s %s body", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	if id := c.opts.RequestIDFn(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if extra, ok := ctx.Value(headersKey{}).(http.Header); ok {
		for k, v := range extra {
			req.Header[k] = v
		}
	}

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s %s response", method, path)
	}

	c.opts.Logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("apiclient: request finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(method, path, resp.StatusCode, data, c.opts.MaxErrBody)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}
