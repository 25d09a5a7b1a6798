package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lablabs/shopgraph"
	"github.com/lablabs/shopgraph/internal/logging"
	"github.com/lablabs/shopgraph/internal/metrics"
)

// Execute initializes and runs the Cobra CLI
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the shopgraph command tree with its own viper
// instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	var cmd = &cobra.Command{
		Use:          "shopgraph",
		Short:        "Command line client for the shop order and customer API",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setup(v)
		},
	}

	v.SetEnvPrefix("shopgraph")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := cmd.PersistentFlags()

	flags.String(shopgraph.KeyAPIKey, "", "API key sent in the Authorization header")
	flags.String(shopgraph.KeyClientID, "", "client id")
	flags.String(shopgraph.KeyAPIBase, "", "API base URL (default "+shopgraph.DefaultAPIBase+")")

	flags.Duration("timeout", 0, "round trip timeout, 0 disables it")
	v.SetDefault("timeout", 0)

	flags.Float64("rate_limit", 0, "maximum requests per second, 0 disables throttling")
	v.SetDefault("rate_limit", 0)

	flags.Int("rate_burst", 1, "burst allowed by rate_limit")
	v.SetDefault("rate_burst", 1)

	flags.String("log_level", "warn", "log level (debug, info, warn, error)")
	v.SetDefault("log_level", "warn")

	flags.String("log_format", "text", "log format (text or json)")
	v.SetDefault("log_format", "text")

	flags.String("env_file", ".env", "dotenv file loaded before reading the environment")
	v.SetDefault("env_file", ".env")

	flags.String("config", "", "config file (yaml, json or toml)")

	_ = v.BindPFlags(flags)

	cmd.AddCommand(
		newCountriesCommand(v),
		newZonesCommand(v),
		newCreateOrderCommand(v),
		newCreateCustomerCommand(v),
		newConnectMerchantCommand(v),
		newQueryCommand(v),
		newServeCommand(v),
	)
	return cmd
}

func setup(v *viper.Viper) error {
	if envFile := v.GetString("env_file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}
	return logging.InitializeLogger(v.GetString("log_level"), v.GetString("log_format"))
}

// clientConfig collects the client options that were explicitly set, so
// unset ones fall back to the SDK defaults.
func clientConfig(v *viper.Viper) map[string]interface{} {
	opts := map[string]interface{}{}
	for _, key := range []string{shopgraph.KeyAPIKey, shopgraph.KeyClientID, shopgraph.KeyAPIBase} {
		if v.IsSet(key) {
			opts[key] = v.GetString(key)
		}
	}
	return opts
}

func newClient(v *viper.Viper, recorder *metrics.Recorder) (*shopgraph.Client, error) {
	return shopgraph.New(clientConfig(v),
		shopgraph.WithTimeout(v.GetDuration("timeout")),
		shopgraph.WithRateLimit(v.GetFloat64("rate_limit"), v.GetInt("rate_burst")),
		shopgraph.WithLogger(logging.Logger()),
		shopgraph.WithMetrics(recorder),
	)
}
