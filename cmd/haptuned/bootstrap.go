package main

import (
	"context"
	"strings"

	"log/slog"

	"haptune/internal/assets"
	"haptune/internal/config"
	"haptune/internal/device"
	"haptune/internal/logging"
)

// buildResolver picks the asset resolver from [assets] config. Local scene
// directory search is the default.
func buildResolver(cfg *config.Config, logger *slog.Logger) (assets.Resolver, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Assets.Mode), "s3") {
		return assets.NewS3Resolver(cfg.Assets, logger)
	}
	return assets.NewLocalResolver(cfg.Paths.SceneDirs), nil
}

// buildVibrator wires the actuator driver. Hardware drivers register through
// the same Vibrator interface; without one the static descriptor from config
// stands in, which is also how probe mode "static" runs.
func buildVibrator(cfg *config.Config, logger *slog.Logger) device.Vibrator {
	desc := device.DescriptorFromConfig(cfg.Device)
	if !strings.EqualFold(strings.TrimSpace(cfg.Device.Probe), "static") {
		logger.Info("no hardware probe available, using configured descriptor",
			logging.String("probe", cfg.Device.Probe))
	}
	return device.NewStaticVibrator(desc, logger)
}

func buildSink(logger *slog.Logger) device.AudioSink {
	return device.NewNullSink(logger)
}

// buildMonitor watches for actuator hotplug. Events only log; a capability
// change applies when the next daemon session probes the device.
func buildMonitor(logger *slog.Logger) *device.Monitor {
	return device.NewMonitor(logger, func(_ context.Context, event device.HotplugEvent) {
		logger.Info("device hotplug",
			logging.String("device", event.Device),
			logging.Bool("removed", event.Removed))
	})
}
