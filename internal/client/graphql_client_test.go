package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"syscall"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpoint = "https://api.example.test/graphql/"

func TestPost_SendsHeadersAndBody(t *testing.T) {
	mock := httpmock.NewMockTransport()

	var gotHeader http.Header
	var gotBody map[string]interface{}
	mock.RegisterResponder(http.MethodPost, endpoint, func(req *http.Request) (*http.Response, error) {
		gotHeader = req.Header.Clone()
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &gotBody)
		return httpmock.NewStringResponse(http.StatusOK, `{"data":{"ok":true}}`), nil
	})

	g := NewGraphQLClient(WithTransport(mock))
	res := g.Post(context.Background(), Request{
		Endpoint:  endpoint,
		Query:     "query { ok }",
		Variables: map[string]interface{}{"countryId": "42"},
		Headers:   map[string]string{"Authorization": "sk_123"},
	})

	require.False(t, res.Error)
	assert.Equal(t, http.StatusOK, res.HTTPStatusCode)
	assert.Equal(t, map[string]interface{}{"data": map[string]interface{}{"ok": true}}, res.Response)

	assert.Equal(t, "sk_123", gotHeader.Get("Authorization"))
	assert.Equal(t, "gzip", gotHeader.Get("Accept-Encoding"))
	assert.Contains(t, gotHeader.Get("Content-Type"), "application/json")
	assert.Equal(t, "query { ok }", gotBody["query"])
	assert.Equal(t, map[string]interface{}{"countryId": "42"}, gotBody["variables"])
	assert.Equal(t, 1, mock.GetTotalCallCount())
}

func TestPost_HTTPErrorIsNotTransportError(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, endpoint, httpmock.NewStringResponder(http.StatusNotFound, "page not found"))

	res := NewGraphQLClient(WithTransport(mock)).Post(context.Background(), Request{Endpoint: endpoint, Query: "{ a }"})

	assert.False(t, res.Error)
	assert.Equal(t, http.StatusNotFound, res.HTTPStatusCode)
	assert.Equal(t, "page not found", res.Response)
	assert.Equal(t, []byte("page not found"), res.Body)
}

func TestPost_TransportError(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, endpoint, httpmock.NewErrorResponder(syscall.ECONNREFUSED))

	res := NewGraphQLClient(WithTransport(mock)).Post(context.Background(), Request{Endpoint: endpoint, Query: "{ a }"})

	assert.True(t, res.Error)
	assert.Zero(t, res.HTTPStatusCode)
	assert.Contains(t, res.ErrorMessage, syscall.ECONNREFUSED.Error())
	assert.Equal(t, int(syscall.ECONNREFUSED), res.ErrorCode)
}

func TestPost_TransportErrorWithoutErrno(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, endpoint, httpmock.NewErrorResponder(errors.New("tls handshake failed")))

	res := NewGraphQLClient(WithTransport(mock)).Post(context.Background(), Request{Endpoint: endpoint, Query: "{ a }"})

	assert.True(t, res.Error)
	assert.Contains(t, res.ErrorMessage, "tls handshake failed")
	assert.Equal(t, 0, res.ErrorCode)
}

func TestPost_DecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"data":{"countries":[]}}`))
	require.NoError(t, zw.Close())

	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, endpoint, func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(http.StatusOK, buf.Bytes())
		resp.Header.Set("Content-Encoding", "gzip")
		return resp, nil
	})

	res := NewGraphQLClient(WithTransport(mock)).Post(context.Background(), Request{Endpoint: endpoint, Query: "{ countries { id } }"})

	require.False(t, res.Error)
	assert.Equal(t, `{"data":{"countries":[]}}`, string(res.Body))
	assert.Equal(t, map[string]interface{}{"data": map[string]interface{}{"countries": []interface{}{}}}, res.Response)
}

func TestPost_DebugLogMasksCredential(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, endpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"email":"jane@example.test"}}`))

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	res := NewGraphQLClient(WithTransport(mock), WithLogger(logrus.NewEntry(logger))).Post(context.Background(), Request{
		Endpoint:  endpoint,
		Query:     "query { email }",
		Variables: map[string]interface{}{"email": "jane@example.test"},
		Headers:   map[string]string{"Authorization": "sk_live_SECRET"},
	})

	require.False(t, res.Error)
	assert.Contains(t, buf.String(), "query { email }")
	assert.Contains(t, buf.String(), "sk_l**********")
	assert.NotContains(t, buf.String(), "sk_live_SECRET")
	assert.NotContains(t, buf.String(), "jane@example.test")
}
