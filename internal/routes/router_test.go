package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lablabs/shopgraph"
	"github.com/lablabs/shopgraph/internal/middlewares"
)

type fakeService struct {
	lastParams  map[string]interface{}
	lastFields  []string
	lastCountry string
	err         error
}

func (f *fakeService) CreateOrder(_ context.Context, params map[string]interface{}, extra ...string) (map[string]interface{}, error) {
	f.lastParams, f.lastFields = params, extra
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{"id": "ord_1"}, nil
}

func (f *fakeService) CreateCustomer(_ context.Context, params map[string]interface{}, extra ...string) (map[string]interface{}, error) {
	f.lastParams, f.lastFields = params, extra
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{"id": "cus_1"}, nil
}

func (f *fakeService) ConnectMerchant(_ context.Context, baseURL, vendor string) (*shopgraph.MerchantConnection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &shopgraph.MerchantConnection{Token: baseURL + "|" + vendor}, nil
}

func (f *fakeService) GetCountries(_ context.Context, extra ...string) ([]interface{}, error) {
	f.lastFields = extra
	if f.err != nil {
		return nil, f.err
	}
	return []interface{}{map[string]interface{}{"id": "1"}}, nil
}

func (f *fakeService) GetZones(_ context.Context, countryID string, extra ...string) ([]interface{}, error) {
	f.lastCountry, f.lastFields = countryID, extra
	if f.err != nil {
		return nil, f.err
	}
	return []interface{}{map[string]interface{}{"id": "10"}}, nil
}

func (f *fakeService) GraphQLRequest(_ context.Context, query string, variables map[string]interface{}) (map[string]interface{}, error) {
	f.lastParams = variables
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{"echo": query}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	r := NewRouter(&fakeService{}, Options{})
	w := do(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(middlewares.RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := NewRouter(&fakeService{}, Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middlewares.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(middlewares.RequestIDHeader))
}

func TestCreateOrder(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, Options{})

	w := do(r, http.MethodPost, "/orders", `{"input":{"reference":"R-1"},"fields":["status"]}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, map[string]interface{}{"id": "ord_1"}, decode(t, w)["order"])
	assert.Equal(t, map[string]interface{}{"reference": "R-1"}, svc.lastParams)
	assert.Equal(t, []string{"status"}, svc.lastFields)
}

func TestCreateOrder_BadBody(t *testing.T) {
	r := NewRouter(&fakeService{}, Options{})
	w := do(r, http.MethodPost, "/orders", `{"fields":["status"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCustomer_DomainError(t *testing.T) {
	svc := &fakeService{err: &shopgraph.DomainError{Operation: "createCustomer", Status: "EMAIL_TAKEN"}}
	r := NewRouter(svc, Options{})

	w := do(r, http.MethodPost, "/customers", `{"input":{"email":"a@b.c"}}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "EMAIL_TAKEN", decode(t, w)["error"])
}

func TestConnectMerchant(t *testing.T) {
	r := NewRouter(&fakeService{}, Options{})

	w := do(r, http.MethodPost, "/merchants/connect", `{"base_url":"https://shop.example.test","vendor":"magento"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://shop.example.test|magento", decode(t, w)["token"])

	w = do(r, http.MethodPost, "/merchants/connect", `{"base_url":"nope","vendor":"magento"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCountriesAndZones(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, Options{})

	w := do(r, http.MethodGet, "/countries?field=currency&field=phonePrefix", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"currency", "phonePrefix"}, svc.lastFields)

	w = do(r, http.MethodGet, "/countries/FR/zones", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FR", svc.lastCountry)
	assert.Len(t, decode(t, w)["zones"], 1)
}

func TestGraphQL_RequestError(t *testing.T) {
	svc := &fakeService{err: &shopgraph.RequestError{Message: "A\nB"}}
	r := NewRouter(svc, Options{})

	w := do(r, http.MethodPost, "/graphql", `{"query":"{ countries { id } }"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "A\nB", decode(t, w)["error"])
}

func TestGraphQL_InvalidArgument(t *testing.T) {
	svc := &fakeService{err: &shopgraph.InvalidArgumentError{Message: "invalid field name"}}
	r := NewRouter(svc, Options{})

	w := do(r, http.MethodGet, "/countries?field=a-b", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRouter(&fakeService{}, Options{MetricsPath: "/metrics", Gatherer: reg})

	w := do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
