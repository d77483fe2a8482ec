// Package analysis is the client for the external analysis service which owns
// DNA baselines, grip estimation and overtake prediction.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/NissanArmada/GazooRazoo/log"
)

const (
	DefaultURL     = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	EndpointDNA      = "/analyze-dna"
	EndpointGrip     = "/analyze-grip"
	EndpointOvertake = "/predict-overtake"

	statusSuccess = "success"
)

var (
	pathStatus  = jp.MustParseString("$.status")
	pathMessage = jp.MustParseString("$.message")
	pathDetail  = jp.MustParseString("$.detail")
)

type (
	Option func(*Client)
	Client struct {
		baseURL string
		client  *http.Client
		l       *log.Logger
	}
)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		l:       log.Default().Named("analysis"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// post sends body as JSON to endpoint and returns the parsed response. The
// response must carry status "success".
func (c *Client) post(ctx context.Context, endpoint string, body map[string]any) (any, error) {
	start := time.Now()
	payload, err := oj.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.l.Warn("analysis service unreachable",
			log.String("endpoint", endpoint), log.ErrorField(err))
		return nil, &NetworkError{
			Endpoint: endpoint, Message: "analysis service unreachable", Err: err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{
			Endpoint: endpoint, StatusCode: resp.StatusCode,
			Message: "cannot read response", Err: err,
		}
	}
	c.l.Debug("analysis response",
		log.String("endpoint", endpoint),
		log.Int("status", resp.StatusCode),
		log.Duration("duration", time.Since(start)))

	obj, parseErr := oj.Parse(respBody)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if parseErr == nil {
			if detail, ok := first(pathDetail, obj).(string); ok && detail != "" {
				msg = detail
			}
		} else if text := strings.TrimSpace(string(respBody)); text != "" {
			msg = text
		}
		return nil, &NetworkError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: msg}
	}
	if parseErr != nil {
		return nil, &NetworkError{
			Endpoint: endpoint, StatusCode: resp.StatusCode,
			Message: "invalid response", Err: parseErr,
		}
	}
	if status, _ := first(pathStatus, obj).(string); status != statusSuccess {
		msg, _ := first(pathMessage, obj).(string)
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %q", status)
		}
		return nil, &NetworkError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: msg}
	}
	return obj, nil
}

func first(path jp.Expr, obj any) any {
	return path.First(obj)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func floatAt(path jp.Expr, obj any) (float64, bool) {
	return toFloat(path.First(obj))
}

func floatsAt(path jp.Expr, obj any) ([]float64, bool) {
	list, ok := path.First(obj).([]any)
	if !ok {
		return nil, false
	}
	ret := make([]float64, 0, len(list))
	for _, v := range list {
		f, ok := toFloat(v)
		if !ok {
			// the service sends null for NaN values
			f = 0
		}
		ret = append(ret, f)
	}
	return ret, true
}
