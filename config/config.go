package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OSS       OSSConfig       `mapstructure:"oss"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Models    []ModelConfig   `mapstructure:"models"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Path         string `mapstructure:"path"` // sqlite file
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"` // dev only
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

// Enabled reports whether annotation archiving to OSS is configured.
func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.BucketName != ""
}

type QueueConfig struct {
	AnalysisQueue string        `mapstructure:"analysis_queue"`
	MaxWorkers    int           `mapstructure:"max_workers"`
	PopTimeout    time.Duration `mapstructure:"pop_timeout"`
}

// PipelineConfig controls retries, timeouts and recovery of analysis jobs.
type PipelineConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	InitialBackoff   time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff       time.Duration `mapstructure:"max_backoff"`
	JobTimeout       time.Duration `mapstructure:"job_timeout"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
	RecoveryInterval time.Duration `mapstructure:"recovery_interval"`
	RetainDays       int           `mapstructure:"retain_days"`
}

type AnalysisConfig struct {
	TopEmotions            int     `mapstructure:"top_emotions"`
	TopTopics              int     `mapstructure:"top_topics"`
	LowConfidenceThreshold float64 `mapstructure:"low_confidence_threshold"`
	TruncationPenalty      float64 `mapstructure:"truncation_penalty"`
}

// ModelConfig declares one adapter. Kind is sentiment, emotion or topic;
// Provider is lexicon (built-in) or remote.
type ModelConfig struct {
	Name           string        `mapstructure:"name"`
	Kind           string        `mapstructure:"kind"`
	Provider       string        `mapstructure:"provider"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxInputTokens int           `mapstructure:"max_input_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Endpoint       string        `mapstructure:"endpoint"`
	APIKey         string        `mapstructure:"api_key"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type RateLimitConfig struct {
	AnalyzePerMinute int `mapstructure:"analyze_per_minute"`
	Burst            int `mapstructure:"burst"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WorkerAddr string `mapstructure:"worker_addr"`
}

func Load(configPath string) (*Config, error) {
	// config.local.yaml carries real secrets and is never committed
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with the pipeline defaults.
func (c *Config) ApplyDefaults() {
	if c.Queue.AnalysisQueue == "" {
		c.Queue.AnalysisQueue = "ml_tasks"
	}
	if c.Queue.MaxWorkers <= 0 {
		c.Queue.MaxWorkers = 4
	}
	if c.Queue.PopTimeout <= 0 {
		c.Queue.PopTimeout = 5 * time.Second
	}

	p := &c.Pipeline
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 200 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 5 * time.Second
	}
	if p.JobTimeout <= 0 {
		p.JobTimeout = 30 * time.Second
	}
	if p.StaleAfter <= 0 {
		p.StaleAfter = 5 * time.Minute
	}
	if p.RecoveryInterval <= 0 {
		p.RecoveryInterval = time.Minute
	}
	if p.RetainDays <= 0 {
		p.RetainDays = 30
	}

	a := &c.Analysis
	if a.TopEmotions <= 0 {
		a.TopEmotions = 5
	}
	if a.TopTopics <= 0 {
		a.TopTopics = 5
	}
	if a.LowConfidenceThreshold <= 0 {
		a.LowConfidenceThreshold = 0.4
	}
	if a.TruncationPenalty <= 0 || a.TruncationPenalty > 1 {
		a.TruncationPenalty = 0.85
	}

	if len(c.Models) == 0 {
		c.Models = DefaultModels()
	}
	for i := range c.Models {
		m := &c.Models[i]
		if m.Provider == "" {
			m.Provider = "lexicon"
		}
		if m.MaxRetries <= 0 {
			m.MaxRetries = p.MaxRetries
		}
		if m.Timeout <= 0 {
			m.Timeout = 2 * time.Second
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// DefaultModels returns the built-in lexicon adapters.
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{Name: "lexicon-sentiment", Kind: "sentiment", Provider: "lexicon", Enabled: true, MaxInputTokens: 512, Timeout: 2 * time.Second},
		{Name: "lexicon-emotion", Kind: "emotion", Provider: "lexicon", Enabled: true, MaxInputTokens: 512, Timeout: 2 * time.Second},
		{Name: "keyword-topic", Kind: "topic", Provider: "lexicon", Enabled: true, MaxInputTokens: 2048, Timeout: 3 * time.Second},
	}
}
