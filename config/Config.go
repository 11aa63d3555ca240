package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mohitkumar/flower/analytics"
	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/lb"
)

var validate = validator.New()

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig        RedisStorageConfig            `mapstructure:"redis"`
	HttpPort           int                           `mapstructure:"http-port" default:"8080" validate:"gt=0,lte=65535"`
	StorageType        StorageType                   `mapstructure:"storage-type" default:"memory" validate:"oneof=memory redis"`
	EncoderDecoderType codec.Type                    `mapstructure:"encoder-decoder-type" default:"JSON" validate:"oneof=JSON PROTO"`
	LoadBalanceType    lb.Type                       `mapstructure:"load-balance-type" default:"round_robin" validate:"oneof=round_robin random consistent_hash"`
	RouterConfig       RouterConfig                  `mapstructure:"router"`
	AnalyticsConfig    analytics.DataCollectorConfig `mapstructure:"analytics"`
	FlowFile           string                        `mapstructure:"flow-file"`
	LogLevel           string                        `mapstructure:"log-level" default:"info" validate:"oneof=debug info warn error"`
}

// RouterConfig tunes the worker pools and the synchronous call bookkeeping.
type RouterConfig struct {
	PoolSize              int           `mapstructure:"pool-size" default:"128" validate:"gt=0"`
	MailboxSize           int           `mapstructure:"mailbox-size" default:"1024" validate:"gt=0"`
	DefaultTimeout        time.Duration `mapstructure:"default-timeout" default:"3s" validate:"gt=1ms"`
	CorrelationTTL        time.Duration `mapstructure:"correlation-ttl" default:"60s" validate:"gt=0"`
	CleanupInterval       time.Duration `mapstructure:"cleanup-interval" default:"30s" validate:"gt=0"`
	DeliveryRetries       uint64        `mapstructure:"delivery-retries" default:"5"`
	DeliveryRetryInterval time.Duration `mapstructure:"delivery-retry-interval" default:"10ms" validate:"gt=0"`
}

type RedisStorageConfig struct {
	Addrs     []string `mapstructure:"addrs"`
	Namespace string   `mapstructure:"namespace" default:"flower"`
	PoolSize  int      `mapstructure:"pool-size"`
	Password  string   `mapstructure:"password"`
}

// Prepare fills unset fields with their defaults and validates the result.
func (c *Config) Prepare() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.StorageType == STORAGE_TYPE_REDIS && len(c.RedisConfig.Addrs) == 0 {
		return fmt.Errorf("invalid config: redis storage needs at least one address")
	}
	if c.AnalyticsConfig.CollectorType == analytics.LOG_FILE_DATA_COLLECTOR && c.AnalyticsConfig.FileName == "" {
		return fmt.Errorf("invalid config: log file data collector needs a file name")
	}
	return nil
}
