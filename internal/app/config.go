package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (ORDERFLOW_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8000" usage:"Server listen address"`
	Stream    StreamConfig
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

// StreamConfig holds the protocol defaults applied when a command omits a
// field, plus the per-session outbound queue size.
type StreamConfig struct {
	Frequency time.Duration `default:"2s"  usage:"Default delay between streamed orders"`
	MaxOrders int           `default:"500" usage:"Default order cap for start_stream"`
	BatchSize int           `default:"20"  usage:"Default generate_batch count"`
	OutBuffer int           `default:"32"  usage:"Outbound event queue capacity per session"`
}

// RateLimitConfig controls the per-client limit on HTTP requests, which
// bounds connection churn on the upgrade endpoint.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and flags, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDERFLOW",
		Files:     []string{"config.yaml", "/etc/orderflow/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps the PORT variable that hosting platforms
// provide to the listen address when it has not been set explicitly.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8000" {
		c.Addr = "0.0.0.0:" + port
	}
}
