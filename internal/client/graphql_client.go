package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/machinebox/graphql"
	"github.com/sirupsen/logrus"

	"github.com/lablabs/shopgraph/internal/logging"
)

// Request is a single GraphQL POST.
type Request struct {
	Endpoint  string
	Query     string
	Variables map[string]interface{}
	Headers   map[string]string
}

// Result is what the adapter knows once the round trip is over. HTTP error
// statuses are reported through HTTPStatusCode; Error is only set when no
// response was received at all.
type Result struct {
	HTTPStatusCode int
	// Response holds the decoded JSON body, or the raw body as a string when
	// it is not JSON.
	Response     interface{}
	Body         []byte
	Error        bool
	ErrorMessage string
	ErrorCode    int
	Duration     time.Duration
}

// GraphQLClient issues GraphQL requests through machinebox/graphql.
type GraphQLClient struct {
	transport http.RoundTripper
	timeout   time.Duration
	log       *logrus.Entry
}

// Option configures a GraphQLClient.
type Option func(*GraphQLClient)

// WithTransport sets the base RoundTripper. Defaults to http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(g *GraphQLClient) {
		if rt != nil {
			g.transport = rt
		}
	}
}

// WithTimeout bounds the whole round trip. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *GraphQLClient) {
		g.timeout = d
	}
}

// WithLogger sets the entry machinebox debug output is written to.
func WithLogger(entry *logrus.Entry) Option {
	return func(g *GraphQLClient) {
		if entry != nil {
			g.log = entry
		}
	}
}

// NewGraphQLClient creates and returns a new GraphQLClient.
func NewGraphQLClient(opts ...Option) *GraphQLClient {
	g := &GraphQLClient{
		transport: http.DefaultTransport,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Post executes one request. It never returns an error: every outcome is
// described by the Result.
func (g *GraphQLClient) Post(ctx context.Context, r Request) *Result {
	rec := newRecorder(g.transport)
	gql := graphql.NewClient(r.Endpoint, graphql.WithHTTPClient(&http.Client{
		Transport: rec,
		Timeout:   g.timeout,
	}))
	gql.Log = debugLog(g.log, r.Headers["Authorization"])

	req := graphql.NewRequest(r.Query)
	for k, v := range r.Variables {
		req.Var(k, v)
	}
	req.Header.Set("Accept-Encoding", "gzip")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	// Protocol-level failures are classified by the caller from the recorded
	// response, so the error machinebox derives from the body is not needed.
	runErr := gql.Run(ctx, req, nil)
	res := &Result{Duration: time.Since(start)}

	if !rec.received {
		res.Error = true
		if runErr != nil {
			res.ErrorMessage = runErr.Error()
		} else {
			res.ErrorMessage = "no response received"
		}
		res.ErrorCode = errorCode(runErr)
		return res
	}

	res.HTTPStatusCode = rec.statusCode
	res.Body = rec.body
	var decoded interface{}
	if err := json.Unmarshal(rec.body, &decoded); err != nil {
		res.Response = string(rec.body)
	} else {
		res.Response = decoded
	}
	return res
}

// debugLog forwards machinebox's request trace without variables or
// response bodies, masking the credential wherever it appears.
func debugLog(entry *logrus.Entry, secret string) func(string) {
	return func(s string) {
		if strings.HasPrefix(s, ">> variables:") || strings.HasPrefix(s, "<< ") {
			return
		}
		if secret != "" {
			s = strings.ReplaceAll(s, secret, logging.MaskSecret(secret))
		}
		entry.Debug(s)
	}
}

func errorCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
