package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohitkumar/flower/agent"
	"github.com/mohitkumar/flower/analytics"
	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/config"
	"github.com/mohitkumar/flower/lb"
	"github.com/mohitkumar/flower/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("flow-file", "", "yaml file with flows and builtin services to load at startup")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "flower", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "memory", "implementation of flow definition storage, memory or redis")
	cmd.Flags().String("encoder-decoder", "JSON", "encoder decoder used to convert payloads, JSON or PROTO")
	cmd.Flags().String("load-balance", "round_robin", "worker selection, round_robin, random or consistent_hash")
	cmd.Flags().Int("pool-size", 128, "workers per service")
	cmd.Flags().Int("mailbox-size", 1024, "mailbox capacity of a worker")
	cmd.Flags().Duration("default-timeout", 0, "timeout of services without one, defaults to 3s")
	cmd.Flags().Duration("correlation-ttl", 0, "how long a sync call waits to be resolved, defaults to 60s")
	cmd.Flags().String("analytics-file", "", "write service outcomes to this file")
	cmd.Flags().String("log-level", "info", "debug, info, warn or error")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return err
		}
	}

	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.EncoderDecoderType = codec.Type(viper.GetString("encoder-decoder"))
	c.cfg.LoadBalanceType = lb.Type(viper.GetString("load-balance"))
	c.cfg.RouterConfig.PoolSize = viper.GetInt("pool-size")
	c.cfg.RouterConfig.MailboxSize = viper.GetInt("mailbox-size")
	c.cfg.RouterConfig.DefaultTimeout = viper.GetDuration("default-timeout")
	c.cfg.RouterConfig.CorrelationTTL = viper.GetDuration("correlation-ttl")
	c.cfg.FlowFile = viper.GetString("flow-file")
	c.cfg.LogLevel = viper.GetString("log-level")
	if file := viper.GetString("analytics-file"); file != "" {
		c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{
			FileName:      file,
			CollectorType: analytics.LOG_FILE_DATA_COLLECTOR,
		}
	}
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	agent, err := agent.New(c.cfg.Config, service.NewRegistry())
	if err != nil {
		return err
	}
	if err = agent.Start(); err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "flower",
		Short:   "runs flows of services behind a rest api",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
