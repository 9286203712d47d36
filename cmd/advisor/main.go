package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"BitcoinAdvisor/internal/advisor"
	"BitcoinAdvisor/internal/cache"
	"BitcoinAdvisor/internal/collector"
	"BitcoinAdvisor/internal/config"
	"BitcoinAdvisor/internal/currency"
	"BitcoinAdvisor/internal/httpclient"
	"BitcoinAdvisor/internal/logger"
	"BitcoinAdvisor/internal/metrics"
	"BitcoinAdvisor/internal/model"
	"BitcoinAdvisor/internal/notifier"
	"BitcoinAdvisor/internal/recorder"
	"BitcoinAdvisor/internal/scheduler"
	"BitcoinAdvisor/internal/server"
	"BitcoinAdvisor/internal/strategy"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.New(logger.Config{}).Fatal("load config", zap.Error(err))
	}

	undo := logger.Init(cfg.Log)
	defer undo()
	log := zap.L()
	log.Info("BitcoinAdvisor starting...", zap.String("config", cfgPath))

	if err := cfg.Validate(); err != nil {
		log.Fatal("config validation", zap.Error(err))
	}

	m := metrics.New()

	// Init fetcher
	client := httpclient.NewClient(httpclient.ClientOptions{
		Timeout:        cfg.DataSource.Timeout,
		RequestsPerSec: cfg.DataSource.RequestsPerSec,
		ProxyURL:       cfg.Proxy,
	})
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, client)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 60000}
	default:
		fetcher = collector.NewYahooFetcher(client)
	}
	log.Info("data source selected", zap.String("provider", fetcher.Name()))

	seriesCache := cache.Open(cache.RedisConfig{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
		TTL:      cfg.Cache.TTL,
	})
	if rc, ok := seriesCache.(*cache.RedisCache); ok {
		defer rc.Close()
	}

	// Init recorder
	rec, err := recorder.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	health := metrics.NewHealthStatus(seriesCache.Name(), rec.Name())
	col := collector.NewCollector(fetcher, seriesCache, m, health)

	table, err := strategy.Resolve(cfg.Rules.Preset, cfg.Rules.Custom)
	if err != nil {
		log.Fatal("resolve rule table", zap.Error(err))
	}
	engine, err := strategy.NewEngine(table)
	if err != nil {
		log.Fatal("init recommendation engine", zap.Error(err))
	}
	log.Info("rule table loaded", zap.String("name", table.Name), zap.Int("bands", len(table.Bands)))

	// Currency display conversion
	var converter currency.Converter = currency.NewHTTPConverter(cfg.Currency.BaseURL, client, cfg.Currency.TTL)
	converter = currency.NewFallbackConverter(converter, currency.FallbackPolicy{
		Allow: cfg.Currency.AllowFallback,
		Rates: map[string]float64{"USD/" + cfg.Currency.Display: cfg.Currency.FallbackRate},
	}, m)

	period, _ := model.ParsePeriod(cfg.DataSource.DefaultPeriod)
	svc := advisor.NewService(advisor.Options{
		Source:          col,
		Engine:          engine,
		Params:          cfg.Indicators,
		Recorder:        rec,
		Converter:       converter,
		DisplayCurrency: cfg.Currency.Display,
		DefaultSymbol:   cfg.DataSource.Symbol,
		DefaultPeriod:   period,
		DefaultInterval: cfg.DCA.Interval,
		Metrics:         m,
		Health:          health,
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram is optional
	var sender notifier.Sender
	if cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
		commands := &notifier.Commands{Advisor: svc, DefaultAmount: cfg.DCA.Amount}
		go tn.StartPolling(ctx, commands.Handle)
		log.Info("telegram polling started")
	}

	sched := scheduler.NewScheduler(ctx, svc, sender, cfg.DCA.Amount)
	if err := sched.RegisterAll(cfg.Schedule.AnalysisCron, cfg.Schedule.DCACron); err != nil {
		log.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing analysis now")
		go sched.RunAnalysisNow()
	}

	srv := server.NewServer(cfg.Server.Port, svc, m, health, cfg.DCA.Amount)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server stopped", zap.Error(err))
			cancel()
		}
	}()

	log.Info("BitcoinAdvisor is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	log.Info("BitcoinAdvisor stopped", zap.Duration("uptime", time.Since(health.Snapshot().StartedAt)))
}
