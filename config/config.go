package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"circulation-desk/logger"
)

type HTTPServer struct {
	Host string `envconfig:"LIBRARY_HTTP_HOST" default:"0.0.0.0"`
	Port string `envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	// RPS limits API requests per second per client.
	RPS float64 `envconfig:"LIBRARY_HTTP_RPS" default:"50"`
}

type Config struct {
	DBFile string `envconfig:"LIBRARY_DB_FILE" default:"library.db"`
	Server HTTPServer
	Log    logger.Config
}

type Option func(*Config)

func WithDBFile(path string) Option {
	return func(c *Config) { c.DBFile = path }
}

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) { c.Log.Level = level }
}

func WithHTTPPort(port string) Option {
	return func(c *Config) { c.Server.Port = port }
}

// Load reads .env (when present) and the environment, then applies ops.
func Load(ops ...Option) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}
	for _, op := range ops {
		op(&cfg)
	}
	return cfg, nil
}
