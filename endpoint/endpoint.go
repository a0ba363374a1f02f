package endpoint

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/letterbox/mailbox-data-api/config"
	"github.com/letterbox/mailbox-data-api/db"
	"github.com/letterbox/mailbox-data-api/filter"
	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/rest"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/service"
	"github.com/letterbox/mailbox-data-api/types"
)

const DefaultPath = "/api/crud"

type DataEndpointConfig struct {
	driver          string
	dsn             string
	maxLimit        uint64
	filterCacheSize int
	filterOps       config.FilterOperators
	prePing         bool
	migrate         bool
	sender          service.Sender
	logger          log.Logger
}

func (cfg DataEndpointConfig) MaxLimit() uint64 {
	return cfg.maxLimit
}

func (cfg DataEndpointConfig) FilterCacheSize() int {
	return cfg.filterCacheSize
}

func (cfg DataEndpointConfig) FilterOperators() config.FilterOperators {
	return cfg.filterOps
}

func (cfg DataEndpointConfig) PrePing() bool {
	return cfg.prePing
}

func (cfg DataEndpointConfig) Logger() log.Logger {
	return cfg.logger
}

func (cfg *DataEndpointConfig) WithMaxLimit(maxLimit uint64) *DataEndpointConfig {
	cfg.maxLimit = maxLimit
	return cfg
}

// WithFilterCacheSize sets the number of compiled queries kept, 0 disables the cache
func (cfg *DataEndpointConfig) WithFilterCacheSize(size int) *DataEndpointConfig {
	cfg.filterCacheSize = size
	return cfg
}

func (cfg *DataEndpointConfig) WithFilterOperators(ops config.FilterOperators) *DataEndpointConfig {
	cfg.filterOps = ops
	return cfg
}

func (cfg *DataEndpointConfig) WithPrePing(prePing bool) *DataEndpointConfig {
	cfg.prePing = prePing
	return cfg
}

// WithMigrate creates the mailbox tables when the endpoint is created
func (cfg *DataEndpointConfig) WithMigrate(migrate bool) *DataEndpointConfig {
	cfg.migrate = migrate
	return cfg
}

// WithSender enables the send command of letters
func (cfg *DataEndpointConfig) WithSender(sender service.Sender) *DataEndpointConfig {
	cfg.sender = sender
	return cfg
}

func (cfg DataEndpointConfig) NewEndpoint() (*DataEndpoint, error) {
	dbClient, err := db.Open(cfg.driver, cfg.dsn, cfg)
	if err != nil {
		return nil, err
	}
	endpoint, err := cfg.newEndpointWithDb(dbClient)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}
	return endpoint, nil
}

func (cfg DataEndpointConfig) newEndpointWithDb(dbClient *db.Db) (*DataEndpoint, error) {
	if cfg.migrate {
		if err := dbClient.Migrate(context.Background()); err != nil {
			return nil, err
		}
		cfg.logger.Info("schema migrated", "dialect", dbClient.Dialect())
	}

	s, err := schema.NewMailboxSchema()
	if err != nil {
		return nil, err
	}
	registries, err := filter.NewMailboxRegistries(s, cfg.filterOps)
	if err != nil {
		return nil, err
	}
	compiler, err := filter.NewCompiler(registries, cfg)
	if err != nil {
		return nil, err
	}

	services := make([]service.Service, 0, len(s.Tables()))
	for _, table := range s.Tables() {
		entity, err := s.Entity(table)
		if err != nil {
			return nil, err
		}
		svc := service.NewEntityService(dbClient.Repository(entity), compiler, cfg.logger)
		if table == schema.TableLetter && cfg.sender != nil {
			svc.WithSender(cfg.sender)
		}
		services = append(services, svc)
	}

	return &DataEndpoint{
		db:           dbClient,
		compiler:     compiler,
		services:     services,
		restRouteGen: rest.NewRouteGenerator(cfg.logger, services...),
	}, nil
}

type DataEndpoint struct {
	db           *db.Db
	compiler     *filter.Compiler
	services     []service.Service
	restRouteGen *rest.RouteGenerator
}

func NewEndpointConfig(driver, dsn string) (*DataEndpointConfig, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewEndpointConfigWithLogger(log.NewZapLogger(logger), driver, dsn), nil
}

func NewEndpointConfigWithLogger(logger log.Logger, driver, dsn string) *DataEndpointConfig {
	return &DataEndpointConfig{
		driver:          driver,
		dsn:             dsn,
		maxLimit:        config.DefaultMaxLimit,
		filterCacheSize: config.DefaultFilterCacheSize,
		prePing:         true,
		logger:          logger,
	}
}

func (e *DataEndpoint) RoutesRest(prefix string) []types.Route {
	return e.restRouteGen.Routes(prefix)
}

// Service returns the service of an entity
func (e *DataEndpoint) Service(entity string) (service.Service, error) {
	for _, s := range e.services {
		if s.Entity().Name() == entity {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no service for '%s'", entity)
}

// CacheStats reports the hits and misses of the filter compile cache
func (e *DataEndpoint) CacheStats() (int64, int64) {
	return e.compiler.CacheStats()
}

func (e *DataEndpoint) Close() error {
	return e.db.Close()
}
