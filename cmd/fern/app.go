package main

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/internal/repositories/canonicalunit"
	"github.com/Ramsey-B/fern/internal/repositories/importrun"
	"github.com/Ramsey-B/fern/internal/repositories/memory"
	"github.com/Ramsey-B/fern/internal/repositories/stagedunit"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/ingest"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/promotion"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/startup"
)

const (
	depDatabase   = "database"
	depMigrations = "migrations"
	depRedis      = "redis"
	depKafka      = "kafka"
	depGraph      = "graph"
)

type appOptions struct {
	// inMemory replaces Postgres with map-backed stores.
	inMemory bool
	migrate  bool
	// platform brings up the Redis, Kafka and graph integrations that are
	// enabled in config.
	platform bool
}

// app owns the connections of one process and the services built on them.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger
	opts   appOptions
	boot   *startup.Startup
	health *health.Checker

	db       *database.DatabaseInstance
	redis    *redis.Client
	producer *kafka.Producer
	graph    *graph.Client

	staged    repositories.StagedUnitRepo
	canonical repositories.CanonicalUnitRepo
	runs      repositories.ImportRunRepo
}

func newApp(cfg *config.Config, logger ectologger.Logger, opts appOptions) *app {
	a := &app{
		cfg:    cfg,
		logger: logger,
		opts:   opts,
		boot:   startup.NewStartup(logger, cfg.StartupMaxAttempts),
		health: health.NewChecker(cfg.Version),
	}

	if !opts.inMemory {
		a.boot.AddDependency(&startup.Dependency{
			Name:      depDatabase,
			StartFunc: a.startDatabase,
			StopFunc: func(context.Context) error {
				return a.db.Close()
			},
		})
		if opts.migrate {
			a.boot.AddDependency(&startup.Dependency{
				Name:      depMigrations,
				Requires:  []string{depDatabase},
				StartFunc: a.runMigrations,
			})
		}
	}

	if opts.platform && cfg.RedisEnabled {
		a.boot.AddDependency(&startup.Dependency{
			Name:      depRedis,
			StartFunc: a.startRedis,
			StopFunc: func(context.Context) error {
				return a.redis.Close()
			},
		})
	}
	if opts.platform && cfg.KafkaEnabled {
		a.boot.AddDependency(&startup.Dependency{
			Name:      depKafka,
			StartFunc: a.startKafka,
			StopFunc: func(context.Context) error {
				return a.producer.Close()
			},
		})
	}
	if opts.platform && cfg.GraphEnabled {
		a.boot.AddDependency(&startup.Dependency{
			Name:      depGraph,
			StartFunc: a.startGraph,
			StopFunc: func(ctx context.Context) error {
				return a.graph.Close(ctx)
			},
		})
	}

	return a
}

func (a *app) startDatabase(ctx context.Context) error {
	db, err := database.Connect(ctx, a.cfg.Database(), a.logger)
	if err != nil {
		return err
	}
	a.db = db
	a.health.AddCheck(depDatabase, db.PingContext)
	return nil
}

func (a *app) runMigrations(context.Context) error {
	return database.NewMigrationService(a.logger, a.cfg.Migration()).MigratePostgres(a.db.DB, a.cfg.DatabaseName)
}

func (a *app) startRedis(ctx context.Context) error {
	client, err := redis.Connect(ctx, a.cfg.Redis(), a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	a.health.AddCheck(depRedis, client.Ping)
	return nil
}

func (a *app) startKafka(ctx context.Context) error {
	if err := kafka.Ping(ctx, a.cfg.KafkaBrokers); err != nil {
		return err
	}
	a.producer = kafka.NewProducer(a.cfg.Kafka(), a.logger)
	a.health.AddCheck(depKafka, func(ctx context.Context) error {
		return kafka.Ping(ctx, a.cfg.KafkaBrokers)
	})
	return nil
}

func (a *app) startGraph(ctx context.Context) error {
	client, err := graph.NewClient(a.cfg.Graph(), a.logger)
	if err != nil {
		return err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return err
	}
	a.graph = client
	a.health.AddCheck(depGraph, client.VerifyConnectivity)
	return nil
}

// start brings every dependency up and builds the stores on top of them.
func (a *app) start(ctx context.Context) error {
	if err := a.boot.Start(ctx); err != nil {
		return err
	}

	if a.opts.inMemory {
		a.logger.Warn("Using in-memory stores; data is lost on exit")
		a.staged = memory.NewStagedUnitRepository()
		a.canonical = memory.NewCanonicalUnitRepository()
		a.runs = memory.NewImportRunRepository()
		return nil
	}

	a.staged = stagedunit.NewRepository(a.db, a.logger)
	a.canonical = canonicalunit.NewRepository(a.db, a.logger)
	a.runs = importrun.NewRepository(a.db, a.logger)
	return nil
}

func (a *app) stop(ctx context.Context) {
	if err := a.boot.Stop(ctx); err != nil {
		a.logger.WithError(err).Warn("Failed to stop all dependencies")
	}
}

func (a *app) emitter() *events.Emitter {
	if a.producer == nil {
		return nil
	}
	return events.NewEmitter(a.producer, a.logger)
}

func (a *app) importer() *ingest.Importer {
	opts := []ingest.Option{ingest.WithRunRecorder(a.runs)}
	if emitter := a.emitter(); emitter != nil {
		opts = append(opts, ingest.WithEmitter(emitter))
	}
	return ingest.NewImporter(a.staged, a.logger, opts...)
}

func (a *app) promotion() *promotion.Service {
	var opts []promotion.Option
	if a.redis != nil {
		opts = append(opts, promotion.WithLocker(redis.NewLocker(a.redis, a.cfg.RedisLockPrefix, a.cfg.PromotionLockWait)))
	}
	if emitter := a.emitter(); emitter != nil {
		opts = append(opts, promotion.WithEmitter(emitter))
	}
	if a.graph != nil {
		opts = append(opts, promotion.WithProjector(graph.NewUnitService(a.graph, a.logger)))
	}
	return promotion.NewService(a.staged, a.canonical, a.logger, opts...)
}
