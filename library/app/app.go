package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/config"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/events"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/handler"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/repository"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/server"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/service"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/migrations"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/circuit_breaker"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/database"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/kafka"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/logger"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/metrics"
)

func Run(ctx context.Context, cfg config.Config) error {
	log := logger.NewLogger(cfg.Log, "library")
	defer log.Sync() //nolint:errcheck

	db, err := database.NewDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return errors.Wrap(err, "db init")
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return errors.Wrap(err, "repo")
	}

	publisher, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := service.NewLibrary(repo, publisher, log, service.WithMetrics(m))
	h := handler.New(svc, log,
		handler.WithMetrics(m),
		handler.WithMaxWorkers(cfg.Server.MaxWorkers),
	)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ", zap.String("addr", srv.Addr()))

	runErr := make(chan error, 1)
	go func() {
		runErr <- srv.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case termSig := <-sig:
		log.Debug("Graceful shutdown", zap.Any("signal", termSig))
	case <-ctx.Done():
		log.Debug("Graceful shutdown", zap.Error(ctx.Err()))
	case err := <-runErr:
		return errors.Wrap(err, "server run")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newPublisher(cfg config.Config, log *zap.Logger) (events.Publisher, func(), error) {
	if !cfg.Kafka.Enabled() {
		log.Info("kafka disabled, lending events are dropped")
		return events.Noop{}, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, errors.Wrap(err, "kafka.NewProducer")
	}
	p := events.NewKafkaPublisher(producer, cfg.Kafka.Topic, circuit_breaker.New(cfg.Breaker), log)
	return p, func() {
		if err := p.Close(); err != nil {
			log.Error("producer close", zap.Error(err))
		}
	}, nil
}
