// Package shopgraph is a client for the shop order and customer GraphQL API.
//
//	c, err := shopgraph.New("sk_live_...")
//	if err != nil {
//		return err
//	}
//	order, err := c.CreateOrder(ctx, map[string]interface{}{"reference": "A-1"}, "status")
//
// Errors are one of *InvalidArgumentError, *RequestError or *DomainError and
// match ErrInvalidArgument, ErrRequest or ErrDomain with errors.Is.
package shopgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lablabs/shopgraph/internal/client"
	"github.com/lablabs/shopgraph/internal/document"
	"github.com/lablabs/shopgraph/internal/limiter"
	"github.com/lablabs/shopgraph/internal/logging"
	"github.com/lablabs/shopgraph/internal/metrics"
)

// Version is sent in the User-Agent header.
const Version = "1.0.0"

// Client talks to the API. It is immutable after New and safe for
// concurrent use.
type Client struct {
	config    Config
	transport http.RoundTripper
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	metrics   *metrics.Recorder
	log       *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPTransport sets the RoundTripper requests go through.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithTimeout bounds each round trip. Zero, the default, means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger requests are logged to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l.WithField("component", "shopgraph")
		}
	}
}

// WithMetrics records every request on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// WithRateLimit throttles the client to rps requests per second. Requests
// over the limit wait; they are never dropped or retried.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = limiter.New(rps, burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New validates config (see ParseConfig) and returns a Client.
func New(config interface{}, opts ...Option) (*Client, error) {
	cfg, err := ParseConfig(config)
	if err != nil {
		return nil, err
	}
	c := &Client{
		config:    cfg,
		transport: http.DefaultTransport,
		userAgent: "shopgraph-go/" + Version,
		log:       logging.Logger().WithField("component", "shopgraph"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIKey returns the configured API key.
func (c *Client) APIKey() string { return c.config.APIKey }

// APIBase returns the configured API base URL.
func (c *Client) APIBase() string { return c.config.APIBase }

// ClientID returns the configured client ID, or "" if none was set.
func (c *Client) ClientID() string {
	if c.config.ClientID == nil {
		return ""
	}
	return *c.config.ClientID
}

// Config returns a copy of the validated configuration.
func (c *Client) Config() Config { return c.config }

// GraphQLRequest sends query with variables and returns the "data" object
// of the response. Empty or nil variables are sent as null.
func (c *Client) GraphQLRequest(ctx context.Context, query string, variables map[string]interface{}) (map[string]interface{}, error) {
	op := document.Inspect(query)
	return c.execute(ctx, op.Label(), query, variables)
}

func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]interface{}) (map[string]interface{}, error) {
	if query == "" {
		c.metrics.ObserveInvalidArgument(operation)
		return nil, invalidArgument("query must be a non-empty string")
	}
	if _, err := json.Marshal(variables); err != nil {
		c.metrics.ObserveInvalidArgument(operation)
		return nil, invalidArgument("variables cannot be encoded as JSON: %v", err)
	}

	if err := limiter.Wait(ctx, c.limiter); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("rate limit wait failed: %v", err), err: err}
	}

	fields := logrus.Fields{"operation": operation, "endpoint": c.config.Endpoint()}
	c.log.WithFields(fields).Debug("Sending GraphQL request")

	gql := client.NewGraphQLClient(
		client.WithTransport(c.transport),
		client.WithTimeout(c.timeout),
		client.WithLogger(c.log),
	)
	res := gql.Post(ctx, client.Request{
		Endpoint:  c.config.Endpoint(),
		Query:     query,
		Variables: variables,
		Headers: map[string]string{
			"Authorization": c.config.APIKey,
			"User-Agent":    c.userAgent,
		},
	})

	data, outcome, err := interpret(res)
	c.metrics.ObserveRequest(operation, outcome, res.HTTPStatusCode, res.Duration)

	fields["status_code"] = res.HTTPStatusCode
	fields["duration"] = res.Duration.String()
	if err != nil {
		fields["outcome"] = outcome
		fields["error"] = err.Error()
		c.log.WithFields(fields).Debug("GraphQL request failed")
		return nil, err
	}
	c.log.WithFields(fields).Debug("GraphQL request succeeded")
	return data, nil
}

// interpret classifies a transport result. HTTP failures take precedence
// over the body; a non-empty "errors" array makes "data" unusable.
func interpret(res *client.Result) (map[string]interface{}, string, error) {
	if res.HTTPStatusCode < 200 || res.HTTPStatusCode >= 300 {
		if !res.Error {
			return nil, metrics.OutcomeHTTPError, invalidResponse(res)
		}
		return nil, metrics.OutcomeTransportError, &RequestError{
			Message: res.ErrorMessage,
			Code:    res.ErrorCode,
		}
	}

	var envelope graphQLResponse
	body, isObject := res.Response.(map[string]interface{})
	if !isObject {
		return nil, metrics.OutcomeInvalidBody, invalidResponse(res)
	}
	dec := json.NewDecoder(bytes.NewReader(res.Body))
	if err := dec.Decode(&envelope); err != nil {
		messages := errorMessages(body["errors"])
		if len(messages) == 0 {
			return nil, metrics.OutcomeInvalidBody, invalidResponse(res)
		}
		return nil, metrics.OutcomeGraphQLError, &RequestError{
			Message:    strings.Join(messages, "\n"),
			Code:       res.HTTPStatusCode,
			HTTPStatus: res.HTTPStatusCode,
			Body:       res.Body,
		}
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return nil, metrics.OutcomeGraphQLError, &RequestError{
			Message:       strings.Join(messages, "\n"),
			Code:          res.HTTPStatusCode,
			HTTPStatus:    res.HTTPStatusCode,
			GraphQLErrors: envelope.Errors,
			Body:          res.Body,
		}
	}
	return envelope.Data, metrics.OutcomeSuccess, nil
}

// errorMessages reads the message of each entry of a loosely shaped
// "errors" array.
func errorMessages(raw interface{}) []string {
	entries, _ := raw.([]interface{})
	messages := make([]string, 0, len(entries))
	for _, e := range entries {
		entry, _ := e.(map[string]interface{})
		if msg, ok := entry["message"].(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

func invalidResponse(res *client.Result) *RequestError {
	return &RequestError{
		Message:    fmt.Sprintf("Invalid response from API: %s (HTTP response code was %d)", res.Body, res.HTTPStatusCode),
		Code:       res.HTTPStatusCode,
		HTTPStatus: res.HTTPStatusCode,
		Body:       res.Body,
	}
}
