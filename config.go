package shopgraph

import (
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DefaultAPIBase is used when no api_base is configured.
const DefaultAPIBase = "https://api.shopgraph.io"

// Option keys accepted by ParseConfig in mapping form.
const (
	KeyAPIKey   = "api_key"
	KeyClientID = "client_id"
	KeyAPIBase  = "api_base"
)

var validate = validator.New()

// Config is a validated client configuration.
type Config struct {
	APIKey string
	// ClientID is nil when not configured.
	ClientID *string
	APIBase  string
}

func defaultOptions() map[string]interface{} {
	return map[string]interface{}{
		KeyAPIKey:   nil,
		KeyClientID: nil,
		KeyAPIBase:  DefaultAPIBase,
	}
}

// ParseConfig validates raw and returns the canonical Config. raw may be a
// bare API key string, a map keyed by api_key, client_id and api_base, or a
// Config. Any other input is rejected.
func ParseConfig(raw interface{}) (Config, error) {
	var opts map[string]interface{}
	switch v := raw.(type) {
	case string:
		opts = map[string]interface{}{KeyAPIKey: v}
	case map[string]interface{}:
		opts = v
	case map[string]string:
		opts = make(map[string]interface{}, len(v))
		for k, s := range v {
			opts[k] = s
		}
	case Config:
		opts = v.options()
	case *Config:
		if v == nil {
			return Config{}, invalidArgument("config must be a string or a map of options")
		}
		opts = v.options()
	default:
		return Config{}, invalidArgument("config must be a string or a map of options")
	}

	merged := defaultOptions()
	var unknown []string
	for k, v := range opts {
		if _, ok := merged[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		merged[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Config{}, invalidArgument("found unknown key(s) in configuration array: '%s'", strings.Join(unknown, "', '"))
	}

	apiKey := merged[KeyAPIKey]
	if apiKey == nil {
		return Config{}, invalidArgument("api_key cannot be null")
	}
	key, ok := apiKey.(string)
	if !ok {
		return Config{}, invalidArgument("api_key must be a string")
	}
	if key == "" {
		return Config{}, invalidArgument("api_key cannot be the empty string")
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return Config{}, invalidArgument("api_key cannot contain whitespace")
	}

	cfg := Config{APIKey: key}
	switch id := merged[KeyClientID].(type) {
	case nil:
	case string:
		cfg.ClientID = &id
	default:
		return Config{}, invalidArgument("client_id must be null or a string")
	}

	base, ok := merged[KeyAPIBase].(string)
	if !ok {
		return Config{}, invalidArgument("api_base must be a string")
	}
	if err := validate.Var(base, "required,url"); err != nil {
		return Config{}, invalidArgument("api_base must be an absolute URL, got %q", base)
	}
	cfg.APIBase = strings.TrimRight(base, "/")

	return cfg, nil
}

// options converts c back to the mapping form. Empty fields are left out so
// the defaults apply.
func (c Config) options() map[string]interface{} {
	opts := map[string]interface{}{KeyAPIKey: c.APIKey}
	if c.ClientID != nil {
		opts[KeyClientID] = *c.ClientID
	}
	if c.APIBase != "" {
		opts[KeyAPIBase] = c.APIBase
	}
	return opts
}

// Endpoint is the GraphQL URL derived from APIBase.
func (c Config) Endpoint() string {
	return c.APIBase + "/graphql/"
}
