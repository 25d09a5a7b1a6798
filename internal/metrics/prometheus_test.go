package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------- Test: BuildAllMetricsSet --------
func TestBuildAllMetricsSet(t *testing.T) {
	metricsSet := BuildAllMetricsSet()

	assert.True(t, metricsSet.Has("shopgraph_client_requests_total"))
	assert.True(t, metricsSet.Has("shopgraph_client_request_duration_seconds"))
	assert.False(t, metricsSet.Has("non_existent_metric"))
}

// -------- Test: BuildDeniedMetricsSet --------
func TestBuildDeniedMetricsSet_ValidMetrics(t *testing.T) {
	metricsList := []string{"shopgraph_client_requests_total", "shopgraph_client_response_status_total"}
	set, err := BuildDeniedMetricsSet(metricsList)

	assert.NoError(t, err)
	assert.True(t, set.Has("shopgraph_client_requests_total"))
	assert.True(t, set.Has("shopgraph_client_response_status_total"))
	assert.False(t, set.Has("shopgraph_client_request_duration_seconds"))
}

func TestBuildDeniedMetricsSet_InvalidMetric(t *testing.T) {
	metricsList := []string{"non_existent_metric"}
	set, err := BuildDeniedMetricsSet(metricsList)

	assert.Error(t, err)
	assert.Nil(t, set)
}

// -------- Test: Recorder --------
func TestRecorder_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg, Set{})
	require.NoError(t, err)

	r.ObserveRequest("createOrder", OutcomeSuccess, http.StatusOK, 10*time.Millisecond)
	r.ObserveRequest("createOrder", OutcomeHTTPError, http.StatusBadGateway, 10*time.Millisecond)
	r.ObserveRequest("countries", OutcomeTransportError, 0, time.Millisecond)
	r.ObserveDomainFailure("createOrder")
	r.ObserveInvalidArgument("graphql")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("createOrder", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("countries", OutcomeTransportError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.responseStatus.WithLabelValues("502")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.responseStatus))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.domainFailures.WithLabelValues("createOrder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.invalidArguments.WithLabelValues("graphql")))
}

func TestRecorder_DeniedMetricsAreNotRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	denied, err := BuildDeniedMetricsSet([]string{"shopgraph_client_requests_total"})
	require.NoError(t, err)

	r, err := NewRecorder(reg, denied)
	require.NoError(t, err)
	r.ObserveRequest("countries", OutcomeSuccess, http.StatusOK, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "shopgraph_client_requests_total", f.GetName())
	}
}

func TestRecorder_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg, Set{})
	require.NoError(t, err)

	_, err = NewRecorder(reg, Set{})
	assert.Error(t, err)
	assert.Panics(t, func() { MustNewRecorder(reg, Set{}) })
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveRequest("x", OutcomeSuccess, 200, time.Second)
		r.ObserveDomainFailure("x")
		r.ObserveInvalidArgument("x")
	})
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := MustNewRecorder(reg, Set{})
	r.ObserveRequest("zones", OutcomeSuccess, http.StatusOK, time.Millisecond)

	engine := gin.New()
	engine.GET("/metrics", Handler(reg))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `shopgraph_client_requests_total{operation="zones",outcome="success"} 1`)
}
