package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gammazero/workerpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lablabs/shopgraph/internal/logging"
	"github.com/lablabs/shopgraph/internal/metrics"
	"github.com/lablabs/shopgraph/internal/routes"
)

func newCountriesCommand(v *viper.Viper) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(v, nil)
			if err != nil {
				return err
			}
			countries, err := c.GetCountries(cmd.Context(), fields...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), countries)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "field", nil, "extra field to select, repeatable")
	return cmd
}

func newZonesCommand(v *viper.Viper) *cobra.Command {
	var (
		fields  []string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "zones COUNTRY_ID...",
		Short: "List the zones of one or more countries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(v, nil)
			if err != nil {
				return err
			}
			if workers < 1 {
				workers = 1
			}

			pool := workerpool.New(workers)
			ctx := cmd.Context()
			zones := make(map[string][]interface{}, len(args))
			var (
				mu   sync.Mutex
				errs []error
			)
			for _, id := range args {
				countryID := id
				pool.Submit(func() {
					list, err := c.GetZones(ctx, countryID, fields...)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						logging.Debug("Failed to fetch zones", map[string]interface{}{
							"country_id": countryID,
							"error":      err.Error(),
						})
						errs = append(errs, fmt.Errorf("country %s: %w", countryID, err))
						return
					}
					zones[countryID] = list
				})
			}
			pool.StopWait()

			if len(errs) > 0 {
				return errors.Join(errs...)
			}
			if len(args) == 1 {
				return printJSON(cmd.OutOrStdout(), zones[args[0]])
			}
			return printJSON(cmd.OutOrStdout(), zones)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "field", nil, "extra field to select, repeatable")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent requests when several countries are given")
	return cmd
}

func newCreateOrderCommand(v *viper.Viper) *cobra.Command {
	var (
		file   string
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "create-order",
		Short: "Create an order from a YAML or JSON input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := readInput(file)
			if err != nil {
				return err
			}
			c, err := newClient(v, nil)
			if err != nil {
				return err
			}
			order, err := c.CreateOrder(cmd.Context(), params, fields...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "order input file, - for stdin")
	cmd.Flags().StringSliceVar(&fields, "field", nil, "extra field to select, repeatable")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCreateCustomerCommand(v *viper.Viper) *cobra.Command {
	var (
		file   string
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "create-customer",
		Short: "Create a customer from a YAML or JSON input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := readInput(file)
			if err != nil {
				return err
			}
			c, err := newClient(v, nil)
			if err != nil {
				return err
			}
			customer, err := c.CreateCustomer(cmd.Context(), params, fields...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), customer)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "customer input file, - for stdin")
	cmd.Flags().StringSliceVar(&fields, "field", nil, "extra field to select, repeatable")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newConnectMerchantCommand(v *viper.Viper) *cobra.Command {
	var baseURL, vendor string
	cmd := &cobra.Command{
		Use:   "connect-merchant",
		Short: "Connect a merchant store and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(v, nil)
			if err != nil {
				return err
			}
			conn, err := c.ConnectMerchant(cmd.Context(), baseURL, vendor)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), conn)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "merchant store base URL")
	cmd.Flags().StringVar(&vendor, "vendor", "", "merchant platform vendor")
	_ = cmd.MarkFlagRequired("base-url")
	_ = cmd.MarkFlagRequired("vendor")
	return cmd
}

func newQueryCommand(v *viper.Viper) *cobra.Command {
	var query, queryFile, varsFile string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send a raw GraphQL document and print the data object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if queryFile != "" {
				b, err := os.ReadFile(queryFile)
				if err != nil {
					return err
				}
				query = string(b)
			}
			var variables map[string]interface{}
			if varsFile != "" {
				var err error
				if variables, err = readInput(varsFile); err != nil {
					return err
				}
			}
			c, err := newClient(v, nil)
			if err != nil {
				return err
			}
			data, err := c.GraphQLRequest(cmd.Context(), query, variables)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "GraphQL document")
	cmd.Flags().StringVar(&queryFile, "query-file", "", "file holding the GraphQL document")
	cmd.Flags().StringVar(&varsFile, "vars-file", "", "YAML or JSON file holding the variables")
	return cmd
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the SDK operations as a JSON HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var denylist []string
			if s := v.GetString("metrics_denylist"); s != "" {
				denylist = strings.Split(s, ",")
			}
			denied, err := metrics.BuildDeniedMetricsSet(denylist)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			recorder, err := metrics.NewRecorder(reg, denied)
			if err != nil {
				return err
			}
			logging.Info("Metrics registered successfully", map[string]interface{}{"metricsDenylist": denylist})

			c, err := newClient(v, recorder)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return routes.RunGateway(ctx, c, routes.Options{
				Listen:      v.GetString("listen"),
				MetricsPath: v.GetString("metrics_path"),
				Gatherer:    reg,
			})
		},
	}

	flags := cmd.Flags()

	flags.String("listen", ":8080", "listen on addr:port ( default :8080), omit addr to listen on all interfaces")
	v.SetDefault("listen", ":8080")

	flags.String("metrics_path", "/metrics", "path for metrics, default /metrics")
	v.SetDefault("metrics_path", "/metrics")

	flags.String("metrics_denylist", "", "metrics to not expose, comma delimited list")
	v.SetDefault("metrics_denylist", "")

	_ = v.BindPFlags(flags)
	return cmd
}

// readInput decodes a YAML or JSON mapping from path, or stdin for "-".
func readInput(path string) (map[string]interface{}, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	var out map[string]interface{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
