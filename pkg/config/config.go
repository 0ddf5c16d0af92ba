// Package config loads lemmy-lite settings. Sources, highest priority first:
//  1. an explicit --config path;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. environment only.
//
// Environment variables always overlay the file.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Upstream UpstreamConfig `yaml:"upstream"`
	NATS     NATSConfig     `yaml:"nats"`

	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"30s"`
	CORSOrigin     string        `yaml:"cors_origin" env:"CORS_ORIGIN" env-default:"*"`
}

// HTTPConfig is the public JSON server.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// GRPCConfig is the optional gRPC health endpoint. An empty port disables it.
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT"`
}

func (g GRPCConfig) Enabled() bool { return g.Port != "" }

func (g GRPCConfig) Addr() string { return net.JoinHostPort(g.Host, g.Port) }

// UpstreamConfig is the outbound policy towards remote instances.
type UpstreamConfig struct {
	APIVersion       string        `yaml:"api_version" env:"API_VERSION" env-default:"v3"`
	UserAgent        string        `yaml:"user_agent" env:"USER_AGENT" env-default:"lemmy-lite/1.0"`
	Timeout          time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"10s"`
	MaxPayload       int64         `yaml:"max_payload_bytes" env:"MAX_PAYLOAD_BYTES" env-default:"83886080"`
	RPS              float64       `yaml:"rps" env:"UPSTREAM_RPS" env-default:"5"`
	Burst            int           `yaml:"burst" env:"UPSTREAM_BURST" env-default:"10"`
	Retries          int           `yaml:"retries" env:"UPSTREAM_RETRIES" env-default:"1"`
	BreakerThreshold int           `yaml:"breaker_threshold" env:"BREAKER_THRESHOLD" env-default:"5"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" env:"BREAKER_COOLDOWN" env-default:"30s"`
	CommentPageSize  int           `yaml:"comment_page_size" env:"COMMENT_PAGE_SIZE" env-default:"50"`
	CommentMaxPages  int           `yaml:"comment_max_pages" env:"COMMENT_MAX_PAGES" env-default:"40"`
}

// NATSConfig is where snapshots are published. An empty URL means stdout.
type NATSConfig struct {
	URL     string `yaml:"url" env:"NATS_URL"`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"lemmy.snapshots"`
}

// MustLoad panics when Load fails.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the first available source.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		return readFile(path)
	}
	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

// readFile parses the YAML file; cleanenv overlays the environment itself.
func readFile(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return &cfg, nil
}
