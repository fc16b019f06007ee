package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	xutil "FinTrain/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Logging struct {
		Level          string        `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format         string        `yaml:"format" default:"console" validate:"oneof=console json"`
		Output         string        `yaml:"output" default:"stdout"`
		Topic          string        `yaml:"topic" default:"training.logs"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
		CountThreshold int           `yaml:"count_threshold" default:"100"`
	} `yaml:"logging"`
	Training  Training `yaml:"training"`
	Artifacts struct {
		ModelsDir string `yaml:"models_dir" default:"./persistent/models" validate:"required"`
		Timezone  string `yaml:"timezone" default:"Asia/Seoul"`
		// UTC offset used when the timezone database is unavailable.
		FallbackOffsetHours int `yaml:"fallback_offset_hours" default:"9"`
	} `yaml:"artifacts"`
	Window struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout" default:"5s"`
		Attempts   int           `yaml:"attempts" default:"3"`
		CacheTTL   time.Duration `yaml:"cache_ttl" default:"1h"`
		Cache      string        `yaml:"cache" default:"memory" validate:"oneof=memory redis"` // redis shares windows across trainers
		CacheSize  int           `yaml:"cache_size" default:"1024" validate:"gt=0"`
	} `yaml:"window"`
	ClickHouse struct {
		Host             string        `yaml:"host" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fintrain"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		HistoryLimit     int           `yaml:"history_limit" default:"1500" validate:"gt=0"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379" validate:"required"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"fintrain"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers       []string `yaml:"brokers" validate:"required,min=1,dive,required"`
		OutcomesTopic string   `yaml:"outcomes_topic" default:"training.outcomes"`
		WrongTopic    string   `yaml:"wrong_predictions_topic" default:"predictions.wrong"`
		Compression   string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Consumer      struct {
			GroupID    string        `yaml:"group_id" default:"fintrain"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Queue struct {
		Workers    int           `yaml:"workers" default:"1" validate:"gte=1"`
		RetryLimit int           `yaml:"retry_limit" default:"1"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"1m"`
	} `yaml:"queue"`
	Cooldown struct {
		All  time.Duration `yaml:"all" default:"1h"`
		Unit time.Duration `yaml:"unit" default:"10m"`
	} `yaml:"cooldown"`
}

// Training holds the knobs of the orchestration loop.
type Training struct {
	Symbols                    []string `yaml:"symbols" validate:"required,min=1,dive,required"`
	Horizons                   []string `yaml:"horizons" default:"[\"short\",\"medium\",\"long\"]" validate:"required,min=1,dive,oneof=short medium long"`
	Architectures              []string `yaml:"architectures" default:"[\"lstm\",\"cnn_lstm\",\"transformer\"]" validate:"required,min=1,dive,oneof=lstm cnn_lstm transformer"`
	NumClasses                 int      `yaml:"num_classes" default:"16" validate:"gte=2"`
	CorrectivePasses           int      `yaml:"corrective_passes" default:"6" validate:"gte=0"`
	PrimaryEpochs              int      `yaml:"primary_epochs" default:"20" validate:"gte=1"`
	CorrectiveBatchSize        int      `yaml:"corrective_batch_size" default:"16" validate:"gte=1"`
	PrimaryBatchSize           int      `yaml:"primary_batch_size" default:"32" validate:"gte=1"`
	MinFeatureRows             int      `yaml:"min_feature_rows" default:"30"`
	MinSequences               int      `yaml:"min_sequences" default:"5"`
	ValidationFraction         float64  `yaml:"validation_fraction" default:"0.2" validate:"gt=0,lt=1"`
	FrequentFailureThreshold   int      `yaml:"frequent_failure_threshold" default:"5" validate:"gte=1"`
	OverfitLabelDiversityLimit int      `yaml:"overfit_label_diversity_limit" default:"2"`
	LearningRate               float64  `yaml:"learning_rate" default:"0.001" validate:"gt=0"`
	HiddenSize                 int      `yaml:"hidden_size" default:"32" validate:"gte=1"`
	Seed                       int64    `yaml:"seed" default:"42"`
	Workers                    int      `yaml:"workers" default:"1" validate:"gte=1"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, then applies .env and environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides selected keys from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("SYMBOLS"); v != "" {
		c.Training.Symbols = splitList(v)
	}
	if v := getenv("HORIZONS"); v != "" {
		c.Training.Horizons = splitList(v)
	}
	if v := getenv("TRAINING_WORKERS"); v != "" {
		c.Training.Workers = xutil.ParseIntDefault(v, c.Training.Workers)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("MODELS_DIR"); v != "" {
		c.Artifacts.ModelsDir = v
	}
	if v := getenv("WINDOW_SERVICE_URL"); v != "" {
		c.Window.ServiceURL = v
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Port = xutil.ParseIntDefault(v, c.Server.Port)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Training.NumClasses > 255 {
		return fmt.Errorf("training.num_classes must fit in a byte, got %d", c.Training.NumClasses)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
