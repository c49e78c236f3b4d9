package config

import (
	"os"

	redis_wrapper "github.com/joripage/lob-engine/pkg/infra/redis"
	kafkawrapper "github.com/joripage/lob-engine/pkg/kafka_wrapper"
	"github.com/joripage/lob-engine/pkg/riskrule"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string       `yaml:"service_name"`
	LogLevel    string       `yaml:"log_level"`
	Engine      EngineConfig `yaml:"engine"`
	Audit       AuditConfig  `yaml:"audit"`
	Input       InputConfig  `yaml:"input"`
}

type EngineConfig struct {
	Workers  int    `yaml:"workers"`
	Mode     string `yaml:"mode"`
	TickSize string `yaml:"tick_size"`
	MaxBatch int    `yaml:"max_batch"`

	Risk riskrule.Config `yaml:"risk"`
}

type AuditConfig struct {
	Enabled     bool                         `yaml:"enabled"`
	BufferSize  int                          `yaml:"buffer_size"`
	BatchSize   int                          `yaml:"batch_size"`
	FilePath    string                       `yaml:"file_path"`
	Kafka       *kafkawrapper.ProducerConfig `yaml:"kafka"`
	Redis       *redis_wrapper.RedisConfig   `yaml:"redis"`
	RedisStream string                       `yaml:"redis_stream"`
	RedisMaxLen int64                        `yaml:"redis_max_len"`
}

type InputConfig struct {
	Path       string `yaml:"path"`
	DefaultQty int64  `yaml:"default_qty"`
}

// Default is the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *AppConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "lob-engine"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Engine.Mode == "" {
		c.Engine.Mode = "batch"
	}
	if c.Audit.FilePath == "" {
		c.Audit.FilePath = "trading_engine.log"
	}
	if c.Audit.RedisStream == "" {
		c.Audit.RedisStream = "trading_engine"
	}
	if c.Input.Path == "" {
		c.Input.Path = "market_data.csv"
	}
	if c.Input.DefaultQty <= 0 {
		c.Input.DefaultQty = 10
	}
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}
	if len(filePath) == 0 {
		zap.S().Debug("no config file, using defaults")
		return Default(), nil
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}
	cfg.applyDefaults()

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}
