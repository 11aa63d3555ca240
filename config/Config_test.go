package config

import (
	"testing"
	"time"

	"github.com/mohitkumar/flower/analytics"
	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/lb"
	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"defaults are applied": func(t *testing.T) {
			var c Config
			require.NoError(t, c.Prepare())
			require.Equal(t, 8080, c.HttpPort)
			require.Equal(t, STORAGE_TYPE_INMEM, c.StorageType)
			require.Equal(t, codec.JSON, c.EncoderDecoderType)
			require.Equal(t, lb.ROUND_ROBIN, c.LoadBalanceType)
			require.Equal(t, 128, c.RouterConfig.PoolSize)
			require.Equal(t, 60*time.Second, c.RouterConfig.CorrelationTTL)
			require.Equal(t, analytics.NOOP_DATA_COLLECTOR, c.AnalyticsConfig.CollectorType)
		},
		"set values are kept": func(t *testing.T) {
			c := Config{HttpPort: 9090, LoadBalanceType: lb.CONSISTENT_HASH}
			c.RouterConfig.PoolSize = 4
			require.NoError(t, c.Prepare())
			require.Equal(t, 9090, c.HttpPort)
			require.Equal(t, lb.CONSISTENT_HASH, c.LoadBalanceType)
			require.Equal(t, 4, c.RouterConfig.PoolSize)
		},
		"unknown storage type is rejected": func(t *testing.T) {
			c := Config{StorageType: "dynamo"}
			require.Error(t, c.Prepare())
		},
		"redis storage needs addresses": func(t *testing.T) {
			c := Config{StorageType: STORAGE_TYPE_REDIS}
			require.Error(t, c.Prepare())
			c.RedisConfig.Addrs = []string{"localhost:6379"}
			require.NoError(t, c.Prepare())
		},
		"log file collector needs a file": func(t *testing.T) {
			c := Config{}
			c.AnalyticsConfig.CollectorType = analytics.LOG_FILE_DATA_COLLECTOR
			require.Error(t, c.Prepare())
		},
	} {
		t.Run(scenario, fn)
	}
}
