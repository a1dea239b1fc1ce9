package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bibbank/scamshield/internal/domain/service"
)

// FileEnv names the optional YAML file read before environment overrides.
const FileEnv = "SCAMSHIELD_CONFIG"

// Config holds all configuration for scamshield. Values come from defaults, then the
// YAML file named by SCAMSHIELD_CONFIG, then environment variables.
type Config struct {
	GRPCPort    string `yaml:"grpc_port"`
	HTTPPort    string `yaml:"http_port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	Scorer ScorerConfig `yaml:"scorer"`
	Kafka  KafkaConfig  `yaml:"kafka"`

	ClassifyTimeout   time.Duration `yaml:"classify_timeout"`
	RiskFlagThreshold float64       `yaml:"risk_flag_threshold"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// GRPC TLS is enabled when both files are set.
	GRPCTLSCertFile string `yaml:"grpc_tls_cert_file"`
	GRPCTLSKeyFile  string `yaml:"grpc_tls_key_file"`
}

// ScorerConfig selects the scoring strategy and, for the model strategy, its bundle.
type ScorerConfig struct {
	Strategy          string `yaml:"strategy"` // lexical | model
	ModelDir          string `yaml:"model_dir"`
	MaxTokens         int    `yaml:"max_tokens"`
	SharedLibraryPath string `yaml:"onnxruntime_shared_library_path"`
}

// KafkaConfig configures event publishing. No brokers means events are only logged.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	TLS     bool     `yaml:"tls"`

	// SASL is disabled while SASLMechanism is empty.
	SASLMechanism string `yaml:"sasl_mechanism"`
	SASLUsername  string `yaml:"sasl_username"`
	SASLPassword  string `yaml:"sasl_password"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GRPCPort:    "8090",
		HTTPPort:    "9090",
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "json",
		Scorer: ScorerConfig{
			Strategy:  service.StrategyLexical,
			MaxTokens: service.DefaultMaxTokens,
		},
		Kafka: KafkaConfig{
			Topic: "scamshield.events",
		},
		ClassifyTimeout:   2 * time.Second,
		RiskFlagThreshold: 0.7,
	}
}

// Load reads configuration from the optional YAML file and environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.Scorer.Strategy = getEnv("SCORER_STRATEGY", c.Scorer.Strategy)
	c.Scorer.ModelDir = getEnv("MODEL_DIR", c.Scorer.ModelDir)
	c.Scorer.SharedLibraryPath = getEnv("ONNXRUNTIME_SHARED_LIBRARY_PATH", c.Scorer.SharedLibraryPath)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.GRPCTLSCertFile = getEnv("GRPC_TLS_CERT_FILE", c.GRPCTLSCertFile)
	c.GRPCTLSKeyFile = getEnv("GRPC_TLS_KEY_FILE", c.GRPCTLSKeyFile)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.SASLMechanism = getEnv("KAFKA_SASL_MECHANISM", c.Kafka.SASLMechanism)
	c.Kafka.SASLUsername = getEnv("KAFKA_SASL_USERNAME", c.Kafka.SASLUsername)
	c.Kafka.SASLPassword = getEnv("KAFKA_SASL_PASSWORD", c.Kafka.SASLPassword)

	if v, ok := os.LookupEnv("KAFKA_TLS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid KAFKA_TLS %q: %w", v, err)
		}
		c.Kafka.TLS = b
	}

	if v, ok := os.LookupEnv("MAX_TOKENS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid MAX_TOKENS %q: %w", v, err)
		}
		c.Scorer.MaxTokens = n
	}

	if v, ok := os.LookupEnv("CLASSIFY_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid CLASSIFY_TIMEOUT %q: %w", v, err)
		}
		c.ClassifyTimeout = d
	}

	if v, ok := os.LookupEnv("RISK_FLAG_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid RISK_FLAG_THRESHOLD %q: %w", v, err)
		}
		c.RiskFlagThreshold = f
	}

	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Scorer.Strategy {
	case service.StrategyLexical:
	case service.StrategyModel:
		if strings.TrimSpace(c.Scorer.ModelDir) == "" {
			errs = append(errs, errors.New("MODEL_DIR is required for the model strategy"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown scorer strategy %q (want %s or %s)",
			c.Scorer.Strategy, service.StrategyLexical, service.StrategyModel))
	}

	if c.Scorer.MaxTokens < 2 {
		errs = append(errs, fmt.Errorf("max tokens must be at least 2, got %d", c.Scorer.MaxTokens))
	}
	if c.ClassifyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("classify timeout must be positive, got %s", c.ClassifyTimeout))
	}
	if c.RiskFlagThreshold < 0 || c.RiskFlagThreshold > 1 || math.IsNaN(c.RiskFlagThreshold) {
		errs = append(errs, fmt.Errorf("risk flag threshold must be within [0,1], got %v", c.RiskFlagThreshold))
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when brokers are set"))
	}
	switch strings.ToUpper(c.Kafka.SASLMechanism) {
	case "":
	case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		if c.Kafka.SASLUsername == "" {
			errs = append(errs, errors.New("KAFKA_SASL_USERNAME is required when SASL is enabled"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported KAFKA_SASL_MECHANISM %q", c.Kafka.SASLMechanism))
	}
	if (c.GRPCTLSCertFile == "") != (c.GRPCTLSKeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// PublishesToKafka reports whether events go to Kafka rather than the log.
func (c *Config) PublishesToKafka() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
