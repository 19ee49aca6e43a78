// cmd/worker-manager/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"engagement-letters/internal/common/aws"
	"engagement-letters/internal/common/camunda"
	"engagement-letters/internal/common/config"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/engagement/dates"
	"engagement-letters/internal/engagement/generator"
	"engagement-letters/internal/engagement/notify"
	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/engagement/vendors"

	cdd "engagement-letters/internal/workers/engagement/compute-delivery-date"
	gl "engagement-letters/internal/workers/engagement/generate-letter"
	rv "engagement-letters/internal/workers/engagement/resolve-vendor"
	st "engagement-letters/internal/workers/engagement/select-template"
	sl "engagement-letters/internal/workers/engagement/send-letter"
	"engagement-letters/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		zapLog.Warn("falling back to stdout logging", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	var obsOpts []observability.Option
	if cfg.Tracing.Enabled {
		obsOpts = append(obsOpts, observability.WithTracing(cfg.Tracing.SampleRatio))
	}
	obs := observability.New(cfg.Tracing.ServiceName, obsOpts...)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe client with retry ---
	zeebe, err := camunda.NewClient(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Vendor dataset, loaded once ---
	src, closeVendors, err := vendors.NewSource(cfg, log)
	if err != nil {
		zapLog.Fatal("vendor source setup failed", zap.Error(err))
	}
	defer closeVendors()
	resolver := vendors.NewResolver(vendors.LoadDataset(ctx, src, log), log)

	dateEngine, err := dates.New(cfg.Letters.Timezone)
	if err != nil {
		zapLog.Fatal("invalid letters.timezone", zap.Error(err))
	}

	gen := generator.New(templates.NewStore(cfg.Letters.TemplateDir), cfg.Letters.OutputDir,
		generator.WithLogger(log),
		generator.WithObservability(obs))

	// --- Notifications ---
	var mailer sl.Mailer
	if cfg.Notifications.SES.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		mailer = notify.NewMailer(client, cfg.Notifications.SES.FromEmail, log)
	}
	var publisher *notify.Publisher
	if cfg.Notifications.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = notify.NewPublisher(client, cfg.Notifications.SNS.TopicARN, log)
	}

	catalog := registry.Default()
	for taskType := range cfg.Workers {
		if _, ok := catalog.Find(taskType); !ok {
			zapLog.Warn("No worker for configured task type", zap.String("taskType", taskType))
		}
	}

	workers := camunda.NewWorkers(zeebe.GetClient(), log)
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	// Compute Delivery Date
	{
		c := cdd.LoadConfig()
		c.Timezone = cfg.Letters.Timezone
		c.Timeout = timeout(cdd.TaskType)
		workers.Start(cdd.TaskType, config.GetWorkerConfig(cfg, cdd.TaskType), cdd.NewHandler(c, dateEngine, log, obs))
	}

	// Resolve Vendor
	{
		c := rv.LoadConfig()
		c.Timeout = timeout(rv.TaskType)
		workers.Start(rv.TaskType, config.GetWorkerConfig(cfg, rv.TaskType), rv.NewHandler(c, resolver, log, obs))
	}

	// Select Template
	{
		c := st.LoadConfig()
		c.TemplateDir = cfg.Letters.TemplateDir
		c.Timeout = timeout(st.TaskType)
		workers.Start(st.TaskType, config.GetWorkerConfig(cfg, st.TaskType), st.NewHandler(c, log, obs))
	}

	// Generate Letter
	{
		c := gl.LoadConfig()
		c.PublishEvents = publisher != nil
		c.Timeout = timeout(gl.TaskType)
		var events gl.EventPublisher
		if publisher != nil {
			events = publisher
		}
		workers.Start(gl.TaskType, config.GetWorkerConfig(cfg, gl.TaskType), gl.NewHandler(c, gen, events, log, obs))
	}

	// Send Letter
	if mailer != nil {
		c := sl.LoadConfig()
		c.PublishEvents = publisher != nil
		c.Timeout = timeout(sl.TaskType)
		var events sl.EventPublisher
		if publisher != nil {
			events = publisher
		}
		workers.Start(sl.TaskType, config.GetWorkerConfig(cfg, sl.TaskType), sl.NewHandler(c, mailer, events, log, obs))
	} else {
		zapLog.Info("send-letter not started: notifications.ses is disabled")
	}

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.Running()))

	// --- Health & Metrics Server ---
	srv := newServer(":8080", zeebe, workers)
	go func() {
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	workers.Close()
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
