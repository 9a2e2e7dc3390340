package config

import (
	"fmt"
	"os"
	"time"

	"image-resizer/internal/domain"
	"image-resizer/internal/provider/native"
	"image-resizer/internal/usecase/resizer"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Images ImagesConfig `yaml:"images"`
	Minio  MinioConfig  `yaml:"minio"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	DB     DBConfig     `yaml:"db"`
	Worker WorkerConfig `yaml:"worker"`
	Retry  RetryConfig  `yaml:"retry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	MaxBodySize     int64         `yaml:"max_body_size" env:"SERVER_MAX_BODY_SIZE" env-default:"33554432"`
	EnableJobs      bool          `yaml:"enable_jobs" env:"SERVER_ENABLE_JOBS" env-default:"true"`
}

type ImagesConfig struct {
	Quality     map[string]int  `yaml:"quality"`
	Optimize    map[string]bool `yaml:"optimize"`
	MemoryLimit int64           `yaml:"memory_limit" env:"IMAGES_MEMORY_LIMIT" env-default:"536870912"`
	Resampling  string          `yaml:"resampling" env:"IMAGES_RESAMPLING" env-default:"lanczos"`
	StorageRoot string          `yaml:"storage_root" env:"IMAGES_STORAGE_ROOT"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"images"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	JobsTopic    string   `yaml:"jobs_topic" env:"KAFKA_JOBS_TOPIC"`
	ResultsTopic string   `yaml:"results_topic" env:"KAFKA_RESULTS_TOPIC"`
	GroupID      string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"image_resizer"`
	SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"4"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"500ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads the file named by CONFIG_PATH, falling back to the
// environment alone when the file does not exist.
func MustLoad() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Kafka.JobsTopic == "" {
		c.Kafka.JobsTopic = domain.KafkaTopicJobs
	}
	if c.Kafka.ResultsTopic == "" {
		c.Kafka.ResultsTopic = domain.KafkaTopicResults
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = domain.KafkaGroupID
	}
	if c.Server.MaxBodySize <= 0 {
		c.Server.MaxBodySize = domain.DefaultMaxBodySize
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 1
	}
}

func (c *Config) validate() error {
	for imageType, q := range c.Images.Quality {
		if q < 1 || q > 100 {
			return fmt.Errorf("%w: quality %d for %s", ErrInvalidConfig, q, imageType)
		}
	}
	if c.Images.MemoryLimit < 0 {
		return fmt.Errorf("%w: negative memory limit", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

// ResizerOptions returns the per-type quality and optimize defaults.
func (c *Config) ResizerOptions() resizer.Options {
	return resizer.Options{
		Quality:  c.Images.Quality,
		Optimize: c.Images.Optimize,
	}
}

func (c *Config) ProviderConfig() native.Config {
	return native.Config{
		MemoryLimit: c.Images.MemoryLimit,
		Resampling:  c.Images.Resampling,
	}
}
