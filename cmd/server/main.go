package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/manolisliolios/rwa-standard/internal/audit"
	"github.com/manolisliolios/rwa-standard/internal/idempotency"
	"github.com/manolisliolios/rwa-standard/internal/namespace"
	"github.com/manolisliolios/rwa-standard/internal/platform/config"
	"github.com/manolisliolios/rwa-standard/internal/platform/httpserver"
	"github.com/manolisliolios/rwa-standard/internal/platform/logger"
	"github.com/manolisliolios/rwa-standard/internal/platform/metrics"
	platformredis "github.com/manolisliolios/rwa-standard/internal/platform/redis"
	ruleservice "github.com/manolisliolios/rwa-standard/internal/rule/service"
	rulestore "github.com/manolisliolios/rwa-standard/internal/rule/store"
	"github.com/manolisliolios/rwa-standard/internal/transfer"
	httptransport "github.com/manolisliolios/rwa-standard/internal/transport/http"
	vaultservice "github.com/manolisliolios/rwa-standard/internal/vault/service"
	vaultstore "github.com/manolisliolios/rwa-standard/internal/vault/store"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in the internal
// services packages.
func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	if dev := cfg.DevSecretsInUse(); len(dev) > 0 {
		if cfg.PostgresDSN != "" {
			return fmt.Errorf("refusing to start against postgres with development secrets; set %s",
				strings.Join(dev, ", "))
		}
		log.Warn("development secrets in use, do not deploy like this", "vars", dev)
	}

	root, err := domain.ParseIdentity(cfg.NamespaceRoot)
	if err != nil {
		return err
	}
	ns := namespace.New(root)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)

	// Audit trail: Kafka sink behind a non-blocking inbox when brokers are
	// configured, otherwise events stay in process.
	var publisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}
		inbox := audit.NewInbox(1024)
		worker := audit.NewWorker(sink, inbox, log)
		group.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		publisher = inbox
	} else {
		log.Warn("no kafka brokers configured, audit trail stays in process")
		publisher = audit.NewMemory()
	}
	emitter := audit.NewEmitter(publisher, log)

	// Stores and the atomic unit runner: Postgres when a DSN is
	// configured, in-memory twins otherwise.
	var (
		vaults vaultstore.Store
		rules  rulestore.Store
		runner transfer.UnitRunner
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		vaultsPg := vaultstore.NewPostgres(db)
		rulesPg := rulestore.NewPostgres(db)
		if err := vaultsPg.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := rulesPg.EnsureSchema(ctx); err != nil {
			return err
		}
		vaults, rules = vaultsPg, rulesPg
		runner = transfer.NewPostgresUnit(db, emitter, m)
	} else {
		vaultsMem := vaultstore.NewInMemory()
		rulesMem := rulestore.NewInMemory()
		vaults, rules = vaultsMem, rulesMem
		runner = transfer.NewMemoryUnit(emitter, m, vaultsMem, rulesMem)
	}

	// Idempotency records: Redis when configured, per-process otherwise.
	var idem idempotency.Store
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		idem = idempotency.NewRedis(redisClient.Client)
	} else {
		idem = idempotency.NewInMemory()
	}

	vaultSvc := vaultservice.New(ns, vaults, emitter, log)
	ruleSvc := ruleservice.New(ns, rules, vaults, emitter, m, log)
	transferSvc := transfer.New(ns, vaults, rules, emitter, m, log)
	executor := transfer.NewExecutor(runner, transferSvc, ruleSvc, vaultSvc)

	router := httptransport.NewRouter(
		httptransport.NewAssetsHandler(ruleSvc, log),
		httptransport.NewVaultsHandler(vaultSvc, log),
		httptransport.NewUnitsHandler(executor, idem, config.IdempotencyTTL, []byte(cfg.JWTSigningKey), log),
	)
	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting custody server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
