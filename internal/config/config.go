package config

import (
	"os"
	"strconv"
	"strings"

	"healthinsights/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `validate:"required"`
	Data    DataConfig    `validate:"required"`
	Logging LoggingConfig `validate:"required"`
	Metrics MetricsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	UIPort  string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// DataConfig holds dataset loading and widget settings
type DataConfig struct {
	File          string `validate:"required"`
	DateLayouts   []string
	HistogramBins int `validate:"min=1,max=500"`
	ChartTopN     int `validate:"min=1"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// MetricsConfig holds prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
}

// Defaults used when the environment does not say otherwise.
const (
	DefaultDataFile      = "healthcare_dataset.csv"
	DefaultPort          = "8080"
	DefaultUIPort        = "8081"
	DefaultHistogramBins = 20
	DefaultChartTopN     = 20
)

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  *loadServerConfig(),
		Data:    *loadDataConfig(),
		Logging: *loadLoggingConfig(),
		Metrics: *loadMetricsConfig(),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Validate checks struct tags and reports the first failing field.
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ConfigInvalid(fe.Namespace() + " failed " + fe.Tag() + " (value " + strconv.Quote(toString(fe.Value())) + ")")
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", DefaultPort),
		UIPort:  getEnvOrDefault("UI_PORT", DefaultUIPort),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:          getEnvOrDefault("DATA_FILE", DefaultDataFile),
		DateLayouts:   getEnvListOrDefault("DATE_LAYOUTS", nil),
		HistogramBins: getEnvIntOrDefault("HISTOGRAM_BINS", DefaultHistogramBins),
		ChartTopN:     getEnvIntOrDefault("CHART_TOP_N", DefaultChartTopN),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}
}

func loadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}
