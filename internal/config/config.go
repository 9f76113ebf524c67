// Package config loads application configuration from a YAML file with
// environment variable overrides, validates it, and serves hot-reloadable
// snapshots to the rest of the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. A Config value is immutable
// once loaded; hot reload replaces the whole snapshot through Provider.
type Config struct {
	Environment   string              `yaml:"environment" validate:"required,oneof=development staging production"`
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Graph         GraphConfig         `yaml:"graph"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	TextGen       TextGenConfig       `yaml:"textgen"`
	AWS           AWSConfig           `yaml:"aws"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// AuthConfig controls JWT validation
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"omitempty,min=32"`
	Issuer    string `yaml:"issuer"`
}

// GraphConfig tunes similarity graph construction. Threshold and
// calibration are hot-reloadable.
type GraphConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gt=0,lte=1"`
	MaxCorpusSize       int     `yaml:"max_corpus_size" validate:"min=2"`
	CalibrateSimilarity bool    `yaml:"calibrate_similarity"`
}

// SchedulerConfig tunes review scheduling. All fields are hot-reloadable.
type SchedulerConfig struct {
	Alpha            float64 `yaml:"alpha" validate:"gt=0,lte=1"`
	PassCutoff       int     `yaml:"pass_cutoff" validate:"min=1,max=100"`
	BaseIntervalDays int     `yaml:"base_interval_days" validate:"min=1"`
	GrowthFactor     float64 `yaml:"growth_factor" validate:"gt=1"`
	MaxIntervalDays  int     `yaml:"max_interval_days" validate:"min=1"`
}

// TextGenConfig points at the external flashcard generation service
type TextGenConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	Enabled  bool          `yaml:"enabled"`
}

// AWSConfig holds DynamoDB and EventBridge settings
type AWSConfig struct {
	Region        string `yaml:"region"`
	TableName     string `yaml:"table_name"`
	EventBusName  string `yaml:"event_bus_name"`
	PublishEvents bool   `yaml:"publish_events"`
}

// ObservabilityConfig controls metrics and tracing
type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	ServiceName    string `yaml:"service_name"`
}

// Default returns the development baseline; file and environment values
// override it.
func Default() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Auth: AuthConfig{
			Issuer: "studyflow",
		},
		Graph: GraphConfig{
			SimilarityThreshold: 0.15,
			MaxCorpusSize:       2000,
			CalibrateSimilarity: false,
		},
		Scheduler: SchedulerConfig{
			Alpha:            0.3,
			PassCutoff:       60,
			BaseIntervalDays: 1,
			GrowthFactor:     2.0,
			MaxIntervalDays:  90,
		},
		TextGen: TextGenConfig{
			Timeout: 20 * time.Second,
		},
		AWS: AWSConfig{
			Region:    "us-east-1",
			TableName: "studyflow",
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: true,
			ServiceName:    "studyflow-backend",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration with struct tags plus the
// cross-field rules tags cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Environment == "production" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid configuration: jwt_secret is required in production")
	}
	if c.Scheduler.MaxIntervalDays < c.Scheduler.BaseIntervalDays {
		return fmt.Errorf("invalid configuration: max_interval_days below base_interval_days")
	}
	if c.TextGen.Enabled && c.TextGen.Endpoint == "" {
		return fmt.Errorf("invalid configuration: textgen enabled without endpoint")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Graph.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("TABLE_NAME"); v != "" {
		cfg.AWS.TableName = v
	}
	if v := os.Getenv("EVENT_BUS_NAME"); v != "" {
		cfg.AWS.EventBusName = v
		cfg.AWS.PublishEvents = true
	}
	if v := os.Getenv("TEXTGEN_ENDPOINT"); v != "" {
		cfg.TextGen.Endpoint = v
		cfg.TextGen.Enabled = true
	}
	if v := os.Getenv("TEXTGEN_API_KEY"); v != "" {
		cfg.TextGen.APIKey = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
		cfg.Observability.TracingEnabled = true
	}
}
