package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricName represent metric name
type MetricName string

func (mn MetricName) String() string {
	return string(mn)
}

const (
	requestsTotalMetricName         MetricName = "shopgraph_client_requests_total"
	requestDurationMetricName       MetricName = "shopgraph_client_request_duration_seconds"
	responseStatusMetricName        MetricName = "shopgraph_client_response_status_total"
	domainFailuresTotalMetricName   MetricName = "shopgraph_client_domain_failures_total"
	invalidArgumentsTotalMetricName MetricName = "shopgraph_client_invalid_arguments_total"
)

// Outcome labels for requestsTotalMetricName.
const (
	OutcomeSuccess        = "success"
	OutcomeTransportError = "transport_error"
	OutcomeHTTPError      = "http_error"
	OutcomeGraphQLError   = "graphql_error"
	OutcomeInvalidBody    = "invalid_response"
)

// Set map to check metric name availability.
type Set map[MetricName]struct{}

// Has function check and return bool for metric availability.
func (ms Set) Has(mn MetricName) bool {
	_, exists := ms[mn]
	return exists
}

// Add function add metric name.
func (ms Set) Add(mn MetricName) {
	ms[mn] = struct{}{}
}

// BuildAllMetricsSet returns every metric this package can export.
func BuildAllMetricsSet() Set {
	allMetricsSet := Set{}
	allMetricsSet.Add(requestsTotalMetricName)
	allMetricsSet.Add(requestDurationMetricName)
	allMetricsSet.Add(responseStatusMetricName)
	allMetricsSet.Add(domainFailuresTotalMetricName)
	allMetricsSet.Add(invalidArgumentsTotalMetricName)
	return allMetricsSet
}

// BuildDeniedMetricsSet validates a deny-list against the known metrics.
func BuildDeniedMetricsSet(metricsDenylist []string) (Set, error) {
	deniedMetricsSet := Set{}
	allMetricsSet := BuildAllMetricsSet()
	for _, metric := range metricsDenylist {
		if !allMetricsSet.Has(MetricName(metric)) {
			return nil, fmt.Errorf("metric %s doesn't exists", metric)
		}
		deniedMetricsSet.Add(MetricName(metric))
	}
	return deniedMetricsSet, nil
}

// Recorder observes SDK requests. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	responseStatus   *prometheus.CounterVec
	domainFailures   *prometheus.CounterVec
	invalidArguments *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers the ones not denied.
func NewRecorder(reg prometheus.Registerer, deniedMetrics Set) (*Recorder, error) {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: requestsTotalMetricName.String(),
			Help: "Number of GraphQL requests sent, by operation and outcome",
		}, []string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    requestDurationMetricName.String(),
			Help:    "Round trip duration of GraphQL requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"},
		),
		responseStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: responseStatusMetricName.String(),
			Help: "HTTP status codes returned by the API",
		}, []string{"code"},
		),
		domainFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: domainFailuresTotalMetricName.String(),
			Help: "Operations accepted by the API that did not produce the expected object",
		}, []string{"operation"},
		),
		invalidArguments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: invalidArgumentsTotalMetricName.String(),
			Help: "Calls rejected locally before any request was sent",
		}, []string{"operation"},
		),
	}

	collectors := map[MetricName]prometheus.Collector{
		requestsTotalMetricName:         r.requests,
		requestDurationMetricName:       r.duration,
		responseStatusMetricName:        r.responseStatus,
		domainFailuresTotalMetricName:   r.domainFailures,
		invalidArgumentsTotalMetricName: r.invalidArguments,
	}
	for name, c := range collectors {
		if deniedMetrics.Has(name) {
			continue
		}
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering %s: %w", name, err)
		}
	}
	return r, nil
}

// MustNewRecorder is NewRecorder that panics on registration errors.
func MustNewRecorder(reg prometheus.Registerer, deniedMetrics Set) *Recorder {
	r, err := NewRecorder(reg, deniedMetrics)
	if err != nil {
		panic(err)
	}
	return r
}

// ObserveRequest records one round trip. statusCode is 0 when no response
// was received.
func (r *Recorder) ObserveRequest(operation, outcome string, statusCode int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
	r.duration.With(prometheus.Labels{"operation": operation}).Observe(d.Seconds())
	if statusCode > 0 {
		r.responseStatus.With(prometheus.Labels{"code": fmt.Sprintf("%d", statusCode)}).Inc()
	}
}

// ObserveDomainFailure counts an operation whose status sentinel reported failure.
func (r *Recorder) ObserveDomainFailure(operation string) {
	if r == nil {
		return
	}
	r.domainFailures.With(prometheus.Labels{"operation": operation}).Inc()
}

// ObserveInvalidArgument counts a call rejected before any request.
func (r *Recorder) ObserveInvalidArgument(operation string) {
	if r == nil {
		return
	}
	r.invalidArguments.With(prometheus.Labels{"operation": operation}).Inc()
}
