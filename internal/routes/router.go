package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lablabs/shopgraph/internal/handlers"
	"github.com/lablabs/shopgraph/internal/logging"
	"github.com/lablabs/shopgraph/internal/metrics"
	"github.com/lablabs/shopgraph/internal/middlewares"
)

// Options configures the gateway.
type Options struct {
	Listen      string
	MetricsPath string
	Gatherer    prometheus.Gatherer
}

// NewRouter wires the gateway routes around svc.
func NewRouter(svc handlers.Service, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.AccessLog())
	r.Use(middlewares.CORS())      // For handling CORS requests
	r.Use(handlers.ErrorHandler()) // for handling error

	r.GET("/health", handlers.HealthCheck)
	if opts.Gatherer != nil && opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, metrics.Handler(opts.Gatherer))
	}

	h := handlers.NewShopHandler(svc)
	r.GET("/countries", h.Countries)
	r.GET("/countries/:id/zones", h.Zones)
	r.POST("/orders", h.CreateOrder)
	r.POST("/customers", h.CreateCustomer)
	r.POST("/merchants/connect", h.ConnectMerchant)
	r.POST("/graphql", h.GraphQL)
	return r
}

// RunGateway serves the gateway until ctx is cancelled.
func RunGateway(ctx context.Context, svc handlers.Service, opts Options) error {
	srv := &http.Server{
		Addr:              opts.Listen,
		Handler:           NewRouter(svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Beginning to serve gateway", map[string]interface{}{
			"listen":       opts.Listen,
			"metrics_path": opts.MetricsPath,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info("Shutting down gateway", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
