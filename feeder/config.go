package feeder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. ORACLE_FEEDER_RPC_ENDPOINT.
	EnvPrefix = "ORACLE_FEEDER"

	SourceTypeHTTP   = "http"
	SourceTypeStatic = "static"

	defaultListenAddr      = "0.0.0.0:7171"
	defaultSrvWriteTimeout = 15 * time.Second
	defaultSrvReadTimeout  = 15 * time.Second
	defaultRPCTimeout      = 10 * time.Second
	defaultSourceTimeout   = 5 * time.Second
	defaultMaxTickAge      = 2 * time.Minute
	defaultSubmitRate      = 1.0
	defaultBech32Prefix    = "cosmos"
)

var (
	validate = validator.New()

	// ErrEmptyConfigPath defines a sentinel error for an empty config path.
	ErrEmptyConfigPath = errors.New("empty configuration file path")
)

type (
	// Config defines all necessary oracle-feeder configuration parameters.
	Config struct {
		ChainID         string         `mapstructure:"chain_id" validate:"required"`
		Bech32Prefix    string         `mapstructure:"bech32_prefix"`
		Reporter        string         `mapstructure:"reporter" validate:"required"`
		OperatorKeyFile string         `mapstructure:"operator_key_file"`
		RPC             RPCConfig      `mapstructure:"rpc"`
		Server          ServerConfig   `mapstructure:"server"`
		Sources         []SourceConfig `mapstructure:"sources" validate:"required,gt=0,dive"`
		SourceTimeout   string         `mapstructure:"source_timeout"`
		// SubmitRate caps broadcasts per second.
		SubmitRate float64 `mapstructure:"submit_rate" validate:"gte=0"`
		// ResubmitEachBlock re-reports on every block instead of once per round.
		ResubmitEachBlock bool `mapstructure:"resubmit_each_block"`
		// PricePrecision rounds the combined source price before it is submitted.
		PricePrecision uint32 `mapstructure:"price_precision" validate:"lte=18"`
	}

	// RPCConfig defines the node endpoint used to read oracle state and broadcast.
	RPCConfig struct {
		Endpoint string `mapstructure:"endpoint" validate:"required,url"`
		Timeout  string `mapstructure:"timeout"`
	}

	// ServerConfig defines the health and metrics server configuration.
	ServerConfig struct {
		ListenAddr     string   `mapstructure:"listen_addr"`
		WriteTimeout   string   `mapstructure:"write_timeout"`
		ReadTimeout    string   `mapstructure:"read_timeout"`
		VerboseCORS    bool     `mapstructure:"verbose_cors"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
		// MaxTickAge marks the feeder unhealthy when no block was handled for this long.
		MaxTickAge string `mapstructure:"max_tick_age"`
	}

	// SourceConfig defines one external price source.
	SourceConfig struct {
		Name string `mapstructure:"name" validate:"required"`
		Type string `mapstructure:"type" validate:"required,oneof=http static"`
		URL  string `mapstructure:"url" validate:"omitempty,url"`
		// Path is the dot separated location of the price in the JSON response,
		// e.g. "data.amount".
		Path  string `mapstructure:"path"`
		Value string `mapstructure:"value"`
	}
)

// ParseConfig attempts to read and parse configuration from the given file path.
// An error is returned if reading or parsing the config fails.
func ParseConfig(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		return cfg, ErrEmptyConfigPath
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Allow nested env vars to be read with underscore separators.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	// AutomaticEnv only applies to keys viper already knows about, so bind
	// the top level scalars explicitly.
	for _, key := range []string{"chain_id", "reporter", "operator_key_file", "rpc.endpoint", "submit_rate"} {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.setDefaults()

	return cfg, cfg.Validate()
}

func (c *Config) setDefaults() {
	if c.Bech32Prefix == "" {
		c.Bech32Prefix = defaultBech32Prefix
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = defaultSrvWriteTimeout.String()
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = defaultSrvReadTimeout.String()
	}
	if c.Server.MaxTickAge == "" {
		c.Server.MaxTickAge = defaultMaxTickAge.String()
	}
	if c.RPC.Timeout == "" {
		c.RPC.Timeout = defaultRPCTimeout.String()
	}
	if c.SourceTimeout == "" {
		c.SourceTimeout = defaultSourceTimeout.String()
	}
	if c.SubmitRate == 0 {
		c.SubmitRate = defaultSubmitRate
	}
	if c.PricePrecision == 0 {
		c.PricePrecision = math.LegacyPrecision
	}
}

// Validate returns an error if the Config object is invalid.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	for _, d := range []struct{ name, value string }{
		{"rpc.timeout", c.RPC.Timeout},
		{"source_timeout", c.SourceTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.max_tick_age", c.Server.MaxTickAge},
	} {
		if _, err := cast.ToDurationE(d.value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, src := range c.Sources {
		if _, ok := seen[src.Name]; ok {
			return fmt.Errorf("duplicate source name %s", src.Name)
		}
		seen[src.Name] = struct{}{}

		switch src.Type {
		case SourceTypeHTTP:
			if src.URL == "" || src.Path == "" {
				return fmt.Errorf("source %s: http sources need url and path", src.Name)
			}
		case SourceTypeStatic:
			value, err := math.LegacyNewDecFromStr(src.Value)
			if err != nil {
				return fmt.Errorf("source %s: static value must be a decimal: %w", src.Name, err)
			}
			if value.IsNegative() {
				return fmt.Errorf("source %s: static value must not be negative", src.Name)
			}
		}
	}

	return nil
}

// Duration returns a duration setting that Validate already checked.
func Duration(s string) time.Duration {
	return cast.ToDuration(s)
}
