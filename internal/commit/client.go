// Package commit maintains the per-user "commit" graph on the external graph
// service: one integer time series per user, one point per day.
package commit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/daily-journal/internal/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/mozillazg/go-unidecode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// TokenHeader carries the static user token
	TokenHeader = "X-USER-TOKEN"

	defaultMaxRetries  = 10
	defaultInsertDelay = 2 * time.Second
	defaultRetryDelay  = 3 * time.Second
)

// errUnavailable marks a 503 answer, the only retried failure
var errUnavailable = errors.New("graph service unavailable")

// Config configures a Client
type Config struct {
	BaseURL     string // user root, e.g. https://pixe.la/v1/users/journal
	Token       string
	MaxRetries  int           // attempts in total per call
	InsertDelay time.Duration // pause between attempts of InsertData
	RetryDelay  time.Duration // pause between attempts of every other call
	HTTPClient  *http.Client
	Logger      *zap.Logger
	Now         func() time.Time
}

// Client talks to the graph service
type Client struct {
	graphsURL   string
	token       string
	maxRetries  int
	insertDelay time.Duration
	retryDelay  time.Duration
	http        *http.Client
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewClient creates a client; zero Config fields take the defaults
func NewClient(cfg Config) *Client {
	c := &Client{
		graphsURL:   strings.TrimRight(cfg.BaseURL, "/") + "/graphs",
		token:       cfg.Token,
		maxRetries:  cfg.MaxRetries,
		insertDelay: cfg.InsertDelay,
		retryDelay:  cfg.RetryDelay,
		http:        cfg.HTTPClient,
		logger:      logger.OrNop(cfg.Logger),
		tracer:      otel.Tracer("github.com/benvon/daily-journal/internal/commit"),
		now:         cfg.Now,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.insertDelay <= 0 {
		c.insertDelay = defaultInsertDelay
	}
	if c.retryDelay <= 0 {
		c.retryDelay = defaultRetryDelay
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// NormalizeHandle derives the graph id from a display name: transliterated to
// ASCII, lowercased, first whitespace separated token
func NormalizeHandle(displayName string) string {
	fields := strings.Fields(strings.ToLower(unidecode.Unidecode(displayName)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// GraphURL returns the public page of the graph for displayName
func (c *Client) GraphURL(displayName string) string {
	return fmt.Sprintf("%s/%s.html", c.graphsURL, NormalizeHandle(displayName))
}

type createGraphRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

type pointRequest struct {
	Date     string `json:"date"`
	Quantity string `json:"quantity"`
}

// CreateGraph creates the user's graph. There is no existence check; callers
// decide whether a graph is needed.
func (c *Client) CreateGraph(ctx context.Context, displayName string) Result {
	id := NormalizeHandle(displayName)
	body := createGraphRequest{
		ID:    id,
		Name:  fmt.Sprintf("%s's Satisfaction Over Days", titleCase(id)),
		Unit:  "commit",
		Type:  "int",
		Color: "sora",
	}
	return c.do(ctx, "create_graph", http.MethodPost, c.graphsURL, body, c.retryDelay, id)
}

// InsertData adds today's point with quantity value
func (c *Client) InsertData(ctx context.Context, displayName string, value int) Result {
	id := NormalizeHandle(displayName)
	body := pointRequest{Date: c.now().Format("20060102"), Quantity: fmt.Sprint(value)}
	return c.do(ctx, "insert_data", http.MethodPost, c.graphsURL+"/"+id, body, c.insertDelay, id)
}

// UpdateData replaces the point for date (YYYYMMDD)
func (c *Client) UpdateData(ctx context.Context, displayName string, value int, date string) Result {
	id := NormalizeHandle(displayName)
	body := pointRequest{Date: date, Quantity: fmt.Sprint(value)}
	return c.do(ctx, "update_data", http.MethodPut, c.graphsURL+"/"+id+"/"+date, body, c.retryDelay, id)
}

// DeleteData removes the point for date (YYYYMMDD)
func (c *Client) DeleteData(ctx context.Context, displayName, date string) Result {
	id := NormalizeHandle(displayName)
	return c.do(ctx, "delete_data", http.MethodDelete, c.graphsURL+"/"+id+"/"+date, nil, c.retryDelay, id)
}

// DeleteGraph removes the whole graph; the result carries no URL
func (c *Client) DeleteGraph(ctx context.Context, displayName string) Result {
	id := NormalizeHandle(displayName)
	res := c.do(ctx, "delete_graph", http.MethodDelete, c.graphsURL+"/"+id, nil, c.retryDelay, id)
	res.URL = ""
	return res
}

// do sends the request, retrying only on 503 with a constant delay
func (c *Client) do(ctx context.Context, op, method, url string, body any, delay time.Duration, graphID string) Result {
	ctx, span := c.tracer.Start(ctx, "commit."+op, trace.WithAttributes(
		attribute.String("graph.id", graphID),
		attribute.String("http.method", method),
	))
	defer span.End()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return c.finish(span, op, Result{Status: StatusTerminal, Reason: fmt.Sprintf("failed to encode request: %v", err)})
		}
	}

	attempts := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(c.maxRetries-1)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		attempts++
		return c.attempt(ctx, method, url, payload)
	}, policy, func(err error, wait time.Duration) {
		c.logger.Warn("graph_service_retry",
			zap.String("operation", op),
			zap.String("graph_id", graphID),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
		)
	})

	res := Result{Attempts: attempts}
	switch {
	case err == nil:
		res.Status = StatusOK
		res.URL = fmt.Sprintf("%s/%s.html", c.graphsURL, graphID)
	case errors.Is(err, errUnavailable):
		res.Status = StatusRetryable
		res.Reason = fmt.Sprintf("still unavailable after %d attempts", attempts)
	default:
		res.Status = StatusTerminal
		res.Reason = logger.SanitizeError(err)
	}
	return c.finish(span, op, res)
}

// attempt performs one HTTP round trip; non-503 failures are permanent
func (c *Client) attempt(ctx context.Context, method, url string, payload []byte) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set(TokenHeader, c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to call graph service: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return errUnavailable
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("graph service returned %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) finish(span trace.Span, op string, res Result) Result {
	span.SetAttributes(
		attribute.Int("commit.attempts", res.Attempts),
		attribute.String("commit.status", res.Status.String()),
	)
	if !res.OK() {
		span.SetStatus(codes.Error, res.Reason)
		c.logger.Error("graph_service_call_failed",
			zap.String("operation", op),
			zap.Stringer("status", res.Status),
			zap.Int("attempts", res.Attempts),
			zap.String("reason", res.Reason),
		)
	}
	return res
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
