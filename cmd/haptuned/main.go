package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"haptune/internal/config"
	"haptune/internal/daemon"
	"haptune/internal/history"
	"haptune/internal/httpapi"
	"haptune/internal/ipc"
	"haptune/internal/logging"
	"haptune/internal/player"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.LogFilePath(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	hist, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return
	}
	defer hist.Close()

	resolver, err := buildResolver(cfg, logger)
	if err != nil {
		logger.Error("build asset resolver", logging.Error(err))
		return
	}

	p, err := player.New(player.Options{
		Config:   cfg,
		Vibrator: buildVibrator(cfg, logger),
		Sink:     buildSink(logger),
		Assets:   resolver,
		History:  hist,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("create player", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, p, hist, buildMonitor(logger), logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if api := httpapi.New(cfg, d, logger); api != nil {
		if err := api.Start(ctx); err != nil {
			logger.Warn("start http api", logging.Error(err))
		} else {
			defer api.Stop()
		}
	}

	<-ctx.Done()
	logger.Info("haptuned shutting down")
}
