package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the gateway startup configuration. It is loaded once in main
// and shared read-only by all components.
type Config struct {
	Port            int       `mapstructure:"port"`
	Stage           string    `mapstructure:"stage"`
	GatewayID       string    `mapstructure:"gateway_id"`
	Domain          string    `mapstructure:"domain"`
	LogLevel        string    `mapstructure:"log_level"`
	ConfigPath      string    `mapstructure:"config_path"`
	ProxyPathPrefix string    `mapstructure:"proxy_path_prefix"`
	Upstream        Upstream  `mapstructure:"upstream"`
	Auth            Auth      `mapstructure:"auth"`
	Cors            Cors      `mapstructure:"cors"`
	RateLimit       RateLimit `mapstructure:"ratelimit"`
	Audit           Audit     `mapstructure:"audit"`
}

// Upstream describes the backend the proxy route forwards to.
// The address is resolved once at startup and assumed stable.
type Upstream struct {
	Address      string        `mapstructure:"address"`
	PathTemplate string        `mapstructure:"path_template"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Auth holds the identity provider parameters for the authorizer
type Auth struct {
	Authority   string        `mapstructure:"authority"`
	Audience    string        `mapstructure:"audience"`
	TokenHeader string        `mapstructure:"token_header"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type Cors struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimit struct {
	Enabled bool `mapstructure:"enabled"`
	Limit   int  `mapstructure:"limit"`
}

// Audit configures the optional NATS Streaming access event publisher
type Audit struct {
	Enabled  bool   `mapstructure:"enabled"`
	NatsURL  string `mapstructure:"nats_url"`
	Cluster  string `mapstructure:"cluster"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// LoadConfig reads the configuration from config.json in the working
// directory, with GATEWAY_* environment variables taking precedence.
// A missing file is not an error; defaults and environment apply.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("config.json")
}

func LoadConfigFrom(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("json")

	setDefaults(v)

	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigParseError); ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("stage", "prod")
	v.SetDefault("gateway_id", "")
	v.SetDefault("domain", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("config_path", "/config/v1")
	v.SetDefault("proxy_path_prefix", "/api/v1")
	v.SetDefault("upstream.address", "")
	v.SetDefault("upstream.path_template", "/{proxy}")
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("auth.authority", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.token_header", "")
	v.SetDefault("auth.timeout", 10*time.Second)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.limit", 5000)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.nats_url", "")
	v.SetDefault("audit.cluster", "")
	v.SetDefault("audit.client_id", "edge-gateway")
	v.SetDefault("audit.topic", "gateway.access")
}
