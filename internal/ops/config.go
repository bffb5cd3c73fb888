package ops

import (
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/yanun0323/errors"

	"main/internal/gateway"
	"main/internal/ingest"
	"main/internal/source"
	"main/internal/window"
	"main/pkg/conn"
)

// FileConfig mirrors the JSON config layout. Durations are strings in
// time.ParseDuration form ("30s", "1m").
type FileConfig struct {
	Window    WindowConfig        `json:"window"`
	Pipeline  PipelineConfig      `json:"pipeline"`
	Kafka     KafkaConfig         `json:"kafka"`
	Postgres  conn.PostgresOption `json:"postgres"`
	Redis     RedisConfig         `json:"redis"`
	Gateway   GatewayConfig       `json:"gateway"`
	Generator GeneratorConfig     `json:"generator"`
	Profiling ProfilingConfig     `json:"profiling"`
}

// WindowConfig describes windowing and anomaly scoring.
type WindowConfig struct {
	Size               string  `json:"size"`
	Slide              string  `json:"slide"`
	BaselineDecay      float64 `json:"baselineDecay"`
	MinBaselineWindows int     `json:"minBaselineWindows"`
	VolumeWeight       float64 `json:"volumeWeight"`
	PriceWeight        float64 `json:"priceWeight"`
	Threshold          float64 `json:"threshold"`
}

// PipelineConfig describes the bus, hub, and ingestion loop.
type PipelineConfig struct {
	PartitionCount            int    `json:"partitionCount" envconfig:"PARTITION_COUNT"`
	PartitionQueueCapacity    int    `json:"partitionQueueCapacity"`
	SubscriptionQueueCapacity int    `json:"subscriptionQueueCapacity"`
	GracePeriod               string `json:"gracePeriod"`
}

// KafkaConfig describes the change-log topic.
type KafkaConfig struct {
	Brokers []string `json:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic   string   `json:"topic" envconfig:"KAFKA_TOPIC"`
	GroupID string   `json:"groupId" envconfig:"KAFKA_GROUP_ID"`
}

// RedisConfig wraps the connection options with cache policy.
type RedisConfig struct {
	conn.RedisOption
	Enabled  bool   `json:"enabled" envconfig:"REDIS_ENABLED"`
	CacheTTL string `json:"cacheTtl"`
}

// GatewayConfig describes the HTTP edge.
type GatewayConfig struct {
	Addr              string `json:"addr" envconfig:"GATEWAY_ADDR"`
	HeartbeatInterval string `json:"heartbeatInterval"`
}

// GeneratorConfig describes the synthetic trade stream.
type GeneratorConfig struct {
	Tickers        []string `json:"tickers"`
	MarketCode     string   `json:"marketCode"`
	CurrencyCode   string   `json:"currencyCode"`
	PriceMin       float64  `json:"priceMin"`
	PriceMax       float64  `json:"priceMax"`
	VolumeMin      int64    `json:"volumeMin"`
	VolumeMax      int64    `json:"volumeMax"`
	TradesPerBatch int      `json:"tradesPerBatch"`
	BatchSpread    string   `json:"batchSpread"`
	Seed           int64    `json:"seed"`
}

// ProfilingConfig enables continuous profiling.
type ProfilingConfig struct {
	Enabled       bool   `json:"enabled" envconfig:"PROFILING_ENABLED"`
	ServerAddress string `json:"serverAddress" envconfig:"PROFILING_SERVER_ADDRESS"`
}

// Config is the resolved configuration ready for use.
type Config struct {
	Window window.Config

	PartitionCount            int
	PartitionQueueCapacity    int
	SubscriptionQueueCapacity int

	Kafka  source.KafkaConfig
	Runner ingest.RunnerConfig

	Postgres conn.PostgresOption
	Redis    conn.RedisOption
	// RedisEnabled gates the latest-tick snapshot cache; without it the
	// pipeline runs with connect snapshots disabled.
	RedisEnabled bool
	CacheTTL     time.Duration

	Gateway gateway.Config

	Generator GeneratorSpec

	ProfilingEnabled       bool
	ProfilingServerAddress string
}

// GeneratorSpec is the resolved synthetic stream definition.
type GeneratorSpec struct {
	Tickers        []string
	MarketCode     string
	CurrencyCode   string
	PriceMin       float64
	PriceMax       float64
	VolumeMin      int64
	VolumeMax      int64
	TradesPerBatch int
	BatchSpread    time.Duration
	Seed           int64
}

// Load reads the JSON config file, applies environment overrides, and
// resolves it. A missing path yields a default config from environment
// and built-in defaults alone. A .env file is honored when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var file FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := sonic.Unmarshal(data, &file); err != nil {
			return Config{}, errors.Wrap(err, "parse config")
		}
	}
	if err := envconfig.Process("", &file); err != nil {
		return Config{}, errors.Wrap(err, "env overrides")
	}
	return resolve(file)
}

func resolve(file FileConfig) (Config, error) {
	windowCfg, err := resolveWindow(file.Window)
	if err != nil {
		return Config{}, err
	}

	gracePeriod, err := duration(file.Pipeline.GracePeriod, 30*time.Second)
	if err != nil {
		return Config{}, errors.Wrap(err, "pipeline.gracePeriod")
	}
	cacheTTL, err := duration(file.Redis.CacheTTL, time.Hour)
	if err != nil {
		return Config{}, errors.Wrap(err, "redis.cacheTtl")
	}
	heartbeat, err := duration(file.Gateway.HeartbeatInterval, 15*time.Second)
	if err != nil {
		return Config{}, errors.Wrap(err, "gateway.heartbeatInterval")
	}
	batchSpread, err := duration(file.Generator.BatchSpread, time.Second)
	if err != nil {
		return Config{}, errors.Wrap(err, "generator.batchSpread")
	}

	cfg := Config{
		Window:                    windowCfg,
		PartitionCount:            file.Pipeline.PartitionCount,
		PartitionQueueCapacity:    file.Pipeline.PartitionQueueCapacity,
		SubscriptionQueueCapacity: file.Pipeline.SubscriptionQueueCapacity,
		Kafka: source.KafkaConfig{
			Brokers: file.Kafka.Brokers,
			Topic:   file.Kafka.Topic,
			GroupID: file.Kafka.GroupID,
		},
		Runner: ingest.RunnerConfig{
			GracePeriod: gracePeriod,
			Backoff:     source.DefaultBackoff(),
		},
		Postgres:     file.Postgres,
		Redis:        file.Redis.RedisOption,
		RedisEnabled: file.Redis.Enabled,
		CacheTTL:     cacheTTL,
		Gateway: gateway.Config{
			Addr:              file.Gateway.Addr,
			HeartbeatInterval: heartbeat,
		},
		Generator: GeneratorSpec{
			Tickers:        file.Generator.Tickers,
			MarketCode:     file.Generator.MarketCode,
			CurrencyCode:   file.Generator.CurrencyCode,
			PriceMin:       file.Generator.PriceMin,
			PriceMax:       file.Generator.PriceMax,
			VolumeMin:      file.Generator.VolumeMin,
			VolumeMax:      file.Generator.VolumeMax,
			TradesPerBatch: file.Generator.TradesPerBatch,
			BatchSpread:    batchSpread,
			Seed:           file.Generator.Seed,
		},
		ProfilingEnabled:       file.Profiling.Enabled,
		ProfilingServerAddress: file.Profiling.ServerAddress,
	}

	if cfg.PartitionCount <= 0 {
		cfg.PartitionCount = 4
	}
	if cfg.PartitionQueueCapacity <= 0 {
		cfg.PartitionQueueCapacity = 1024
	}
	if cfg.SubscriptionQueueCapacity <= 0 {
		cfg.SubscriptionQueueCapacity = 64
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "stock-trades-cdc"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "streamd"
	}
	if cfg.Generator.TradesPerBatch <= 0 {
		cfg.Generator.TradesPerBatch = 100
	}
	if len(cfg.Generator.Tickers) == 0 {
		cfg.Generator.Tickers = defaultTickers()
	}
	return cfg, nil
}

func resolveWindow(file WindowConfig) (window.Config, error) {
	size, err := duration(file.Size, time.Minute)
	if err != nil {
		return window.Config{}, errors.Wrap(err, "window.size")
	}
	slide, err := duration(file.Slide, 0)
	if err != nil {
		return window.Config{}, errors.Wrap(err, "window.slide")
	}
	if slide < 0 || slide > size {
		return window.Config{}, errors.Errorf("window.slide %s must be within (0, %s]", slide, size)
	}

	cfg := window.Config{
		Size:          size,
		Slide:         slide,
		BaselineDecay: file.BaselineDecay,
		Score: window.ScoreConfig{
			Weights: window.Weights{
				Volume: file.VolumeWeight,
				Price:  file.PriceWeight,
			},
			Threshold:          file.Threshold,
			MinBaselineWindows: file.MinBaselineWindows,
		},
	}
	if cfg.Score.Weights.Volume == 0 && cfg.Score.Weights.Price == 0 {
		cfg.Score.Weights = window.Weights{Volume: 0.6, Price: 0.4}
	}
	if cfg.Score.Weights.Volume < 0 || cfg.Score.Weights.Price < 0 {
		return window.Config{}, errors.New("score weights must be >= 0")
	}
	if cfg.Score.Threshold <= 0 {
		cfg.Score.Threshold = 3
	}
	if cfg.Score.MinBaselineWindows <= 0 {
		cfg.Score.MinBaselineWindows = 1
	}
	return cfg, nil
}

func duration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

func defaultTickers() []string {
	return []string{
		"AAPL", "MSFT", "GOOG", "AMZN", "META", "NVDA", "TSLA",
		"JPM", "BAC", "V", "JNJ", "PFE", "XOM", "CVX", "WMT",
	}
}
