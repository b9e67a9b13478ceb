package observability

import (
	"os"
	"strings"

	"github.com/baselinedocs/baselinedocs/internal/config"
)

// Config carries the observability settings shared by the logger, tracer
// and metrics.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
}

func (c Config) Debug() bool {
	return c.Environment != "production"
}

// LoadConfig derives observability settings from the application config
// plus its own environment knobs.
func LoadConfig(app config.Config) Config {
	return Config{
		ServiceName:          app.AppName,
		Environment:          app.Environment,
		Version:              app.AppVersion,
		LogLevel:             getenv("LOG_LEVEL", "info"),
		LogFormat:            getenv("LOG_FORMAT", "json"),
		OtelEnabled:          strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != "",
		OtelExporterEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
