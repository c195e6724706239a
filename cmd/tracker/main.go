package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/2beens/gymrank/internal/config"
	"github.com/2beens/gymrank/internal/db"
	"github.com/2beens/gymrank/internal/logging"
	"github.com/2beens/gymrank/internal/store"
	"github.com/2beens/gymrank/internal/telemetry/metrics"
	"github.com/2beens/gymrank/internal/tracker"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	dataDir := flag.String("data-dir", "", "use the disk store in this dir, ignoring the config file")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Usage = usage
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{LogLevel: *logLevel})

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	kv, location, closeStore, err := openStore(ctx, *env, *configPath, *dataDir)
	if err != nil {
		log.Fatalf("open records store: %s", err)
	}
	defer closeStore()

	repo := store.NewRepo(kv)
	service := tracker.NewService(tracker.NewServiceParams{
		Snapshot: repo.Load(ctx),
		Saver:    repo,
		Metrics:  metrics.NewManager("gymrank", "cli", prometheus.NewRegistry()),
		Location: location,
	})

	if err := runCommand(ctx, service, os.Stdout, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		closeStore()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, env, configPath, dataDir string) (store.KV, *time.Location, func(), error) {
	noop := func() {}
	if dataDir != "" {
		kv, err := store.NewDiskStore(dataDir)
		return kv, time.Local, noop, err
	}

	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, nil, noop, err
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, nil, noop, err
	}

	switch cfg.StoreBackend {
	case config.StoreRedis:
		rdb := store.NewRedisClient(store.NewRedisClientParams{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: os.Getenv("GYMRANK_REDIS_PASS"),
			DB:       cfg.RedisDB,
		})
		return store.NewRedisStore(rdb), location, closeRedis(rdb), nil
	case config.StorePostgres:
		pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:     cfg.PostgresHost,
			DBPort:     cfg.PostgresPort,
			DBName:     cfg.PostgresDBName,
			DBPassword: os.Getenv("GYMRANK_POSTGRES_PASS"),
		})
		if err != nil {
			return nil, nil, noop, err
		}
		psqlStore := store.NewPsqlStore(pool)
		if err := psqlStore.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, noop, err
		}
		return psqlStore, location, pool.Close, nil
	default:
		kv, err := store.NewDiskStore(cfg.DataDir)
		return kv, location, noop, err
	}
}

func closeRedis(rdb *redis.Client) func() {
	return func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: tracker [flags] <command> [args]

commands:
  summary                     today and the running month
  calendar [YYYY-MM]          month grid (default: this month)
  export [YYYY-MM]            shareable month text
  add <date> [reps] [sets]    log an activity entry (defaults from settings)
  remove <date> <id>          remove an activity entry
  attend <date> <menu>        record attendance
  clear <date>                clear attendance
  reserve <date>              toggle a reservation
  workout <menu>              check every set of a menu and finish it today

dates are YYYY-MM-DD, "today" or "yesterday"

flags:
`)
	flag.PrintDefaults()
}
