package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Detection MonitorConfig
	VQA       MonitorConfig
	Evidently EvidentlyConfig
	Upstream  UpstreamConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// MonitorConfig sizes the drift windows for one monitored domain.
type MonitorConfig struct {
	ReferenceSize  int
	DetectionSize  int
	DriftThreshold float64
}

// EvidentlyConfig points at the external drift-comparison service.
type EvidentlyConfig struct {
	BaseURL    string
	TimeoutSec int
}

type UpstreamConfig struct {
	Detection DetectionUpstream
	VQA       VQAUpstream
}

type DetectionUpstream struct {
	BaseURL       string
	ConfThreshold float64
	TimeoutSec    int
}

type VQAUpstream struct {
	BaseURL    string
	MaxLength  int
	NumBeams   int
	TimeoutSec int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled              bool
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/inferwatch")

	viper.SetEnvPrefix("INFERWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 20971520)

	viper.SetDefault("detection.referenceSize", 30)
	viper.SetDefault("detection.detectionSize", 20)
	viper.SetDefault("detection.driftThreshold", 0.5)

	viper.SetDefault("vqa.referenceSize", 30)
	viper.SetDefault("vqa.detectionSize", 20)
	viper.SetDefault("vqa.driftThreshold", 0.5)

	viper.SetDefault("evidently.baseURL", "http://localhost:8085")
	viper.SetDefault("evidently.timeoutSec", 15)

	viper.SetDefault("upstream.detection.baseURL", "http://localhost:9090")
	viper.SetDefault("upstream.detection.confThreshold", 0.25)
	viper.SetDefault("upstream.detection.timeoutSec", 30)

	viper.SetDefault("upstream.vqa.baseURL", "http://localhost:9091")
	viper.SetDefault("upstream.vqa.maxLength", 50)
	viper.SetDefault("upstream.vqa.numBeams", 5)
	viper.SetDefault("upstream.vqa.timeoutSec", 60)

	viper.SetDefault("sqlite.path", "./data/inferwatch.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.maxRequestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
