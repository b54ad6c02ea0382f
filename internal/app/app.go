package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/presence/internal/config"
	"github.com/MrSnakeDoc/presence/internal/domain"
	"github.com/MrSnakeDoc/presence/internal/httpserver"
	"github.com/MrSnakeDoc/presence/internal/httpserver/deps"
	"github.com/MrSnakeDoc/presence/internal/index"
	"github.com/MrSnakeDoc/presence/internal/logger"
	"github.com/MrSnakeDoc/presence/internal/redis"
	"github.com/MrSnakeDoc/presence/internal/scheduler"
	"github.com/MrSnakeDoc/presence/internal/sources/avahi"
	"github.com/MrSnakeDoc/presence/internal/sources/vocabulary"
	"github.com/MrSnakeDoc/presence/internal/sources/zeroconf"
	redisstore "github.com/MrSnakeDoc/presence/internal/store/redis"
	"github.com/MrSnakeDoc/presence/internal/utils"
	"github.com/MrSnakeDoc/presence/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	memIndex    *index.MemoryIndex
	runner      *scheduler.ScanRunner
	gc          *scheduler.GarbageCollector
}

// New wires every component from the environment. Persistence is optional:
// without PRESENCE_REDIS_ADDR the index only lives in memory.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	loggerClient.Debugf("configuration: %+v", cfg.Redacted())

	vocab, err := vocabulary.Resolve(cfg.VocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	if cfg.VocabularyFile != "" {
		loggerClient.Info("vocabulary extension loaded",
			logger.String("file", cfg.VocabularyFile),
			logger.Int("info_tags", len(vocab.InfoRules)),
			logger.Int("protocol_tags", len(vocab.ProtocolRules)),
			logger.Int("ignored_names", len(vocab.IgnoredNames)))
	}

	var (
		redisClient *goredis.Client
		store       *redisstore.Store
	)
	if cfg.PersistenceEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisstore.NewStore(redisClient)
		loggerClient.Info("Redis initialized successfully")
	} else {
		loggerClient.Info("PRESENCE_REDIS_ADDR not set, results are kept in memory only")
	}

	memIndex := index.NewMemoryIndex()

	syncer := scheduler.NewRedisSyncer(store, memIndex, loggerClient)
	if err := syncer.Sync(ctx); err != nil {
		loggerClient.Warn("failed to restore from redis, waiting for first scan",
			logger.Error(err))
	}

	scanner := newScanner(cfg, loggerClient.Named("scanner"))
	runner := scheduler.NewScanRunner(
		scanner,
		domain.NewAggregator(vocab),
		store,
		memIndex,
		loggerClient.Named("scan"),
		cfg.ScanInterval,
		cfg.ScanTimeout,
	)

	gc := scheduler.NewGarbageCollector(
		store,
		memIndex,
		loggerClient.Named("gc"),
		cfg.GCInterval,
		cfg.ForgetAfter,
	)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		RedisClient:  redisClient,
		MemoryIndex:  memIndex,
		Scanner:      scanner.Name(),
		ScanInterval: cfg.ScanInterval,
		Rescan:       runner,
		RescanBurst:  cfg.RescanBurst,
		RescanPerMin: cfg.RescanPerMin,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		memIndex:    memIndex,
		runner:      runner,
		gc:          gc,
	}, nil
}

func newScanner(cfg *config.Config, log logger.Logger) scheduler.Scanner {
	switch cfg.Scanner {
	case config.ScannerZeroconf:
		return zeroconf.NewBrowser(cfg.ZeroconfServices, cfg.ZeroconfWindow, cfg.ZeroconfInterface, log)
	case config.ScannerFile:
		return avahi.NewDumpScanner(cfg.ScanFile, log)
	default:
		return avahi.NewBrowseScanner(cfg.AvahiBrowse, cfg.AvahiArgs, log)
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Presence %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scan runner: %w", err)
	}
	a.logger.Info("scan runner started",
		logger.String("scanner", a.cfg.Scanner),
		logger.Duration("interval", a.cfg.ScanInterval))

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval),
		logger.Duration("forget_after", a.cfg.ForgetAfter))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.runner.Stop()
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.MustClose(a.redisClient, a.logger, "redis")
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Presence stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
