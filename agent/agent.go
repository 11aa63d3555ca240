package agent

import (
	"io"
	"sync"

	"github.com/mohitkumar/flower/analytics"
	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/config"
	"github.com/mohitkumar/flower/engine"
	"github.com/mohitkumar/flower/flow"
	"github.com/mohitkumar/flower/lb"
	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/persistence"
	rd "github.com/mohitkumar/flower/persistence/redis"
	"github.com/mohitkumar/flower/rest"
	"github.com/mohitkumar/flower/service"
	"go.uber.org/zap"
)

type Agent struct {
	Config       config.Config
	registry     *service.Registry
	storage      persistence.MetadataStorage
	collector    analytics.DataCollector
	flows        *flow.Repository
	factory      *engine.Factory
	httpServer   *rest.Server
	shutdown     bool
	shutdownLock sync.Mutex
}

// New wires an agent from conf. Services registered in registry are
// available to every flow, next to the builtin services of the flow file.
func New(conf config.Config, registry *service.Registry) (*Agent, error) {
	if err := conf.Prepare(); err != nil {
		return nil, err
	}
	logger.SetLevel(conf.LogLevel)
	if registry == nil {
		registry = service.NewRegistry()
	}
	a := &Agent{
		Config:   conf,
		registry: registry,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupCollector,
		a.setupFactory,
		a.setupFlowFile,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.storage = rd.NewRedisMetadataStorage(rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
			PoolSize:  a.Config.RedisConfig.PoolSize,
			Password:  a.Config.RedisConfig.Password,
		})
	default:
		a.storage = persistence.NewInMemoryMetadataStorage()
	}
	return nil
}

func (a *Agent) setupCollector() error {
	var err error
	a.collector, err = analytics.NewDataCollector(a.Config.AnalyticsConfig)
	return err
}

func (a *Agent) setupFactory() error {
	c, err := codec.New(a.Config.EncoderDecoderType)
	if err != nil {
		return err
	}
	balance, err := lb.New(a.Config.LoadBalanceType)
	if err != nil {
		return err
	}
	a.flows = flow.NewRepository(a.storage, a.Config.RouterConfig.DefaultTimeout)
	a.factory = engine.NewFactory(a.Config.RouterConfig, a.registry, a.flows, c, balance, a.collector)
	a.flows.OnReload(a.factory.Invalidate)
	return nil
}

func (a *Agent) setupFlowFile() error {
	if a.Config.FlowFile == "" {
		return nil
	}
	file, err := flow.LoadFile(a.Config.FlowFile)
	if err != nil {
		return err
	}
	if err := a.registry.RegisterDefinitions(file.Services); err != nil {
		return err
	}
	if err := file.Store(a.flows); err != nil {
		return err
	}
	logger.Info("flow file loaded", zap.String("file", a.Config.FlowFile), zap.Int("flows", len(file.Flows)), zap.Int("services", len(file.Services)))
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.factory, a.flows, a.Config.RouterConfig.CorrelationTTL)
	return err
}

func (a *Agent) Factory() *engine.Factory {
	return a.factory
}

func (a *Agent) Flows() *flow.Repository {
	return a.flows
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server failed", zap.Error(err))
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	logger.Info("shutting down server")

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			a.factory.Shutdown()
			return nil
		},
		func() error {
			if c, ok := a.storage.(io.Closer); ok {
				return c.Close()
			}
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	_ = logger.Sync()
	return nil
}
