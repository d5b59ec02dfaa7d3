package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nazarious-ucu/weather-bot/internal/app"
	"github.com/Nazarious-ucu/weather-bot/internal/config"
	metricsSvc "github.com/Nazarious-ucu/weather-bot/internal/services/metrics"
	"github.com/Nazarious-ucu/weather-bot/pkg/logger"
)

const serviceName = "weather_bot"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file found, using process environment")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	l, err := logger.NewLogger(cfg.Log.Path, serviceName, cfg.Log.Level)
	if err != nil {
		log.Error().Err(err).Msg("failed to create logger")
		os.Exit(1)
	}
	zerolog.DefaultContextLogger = &l

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(*cfg, l, metricsSvc.NewMetrics(serviceName))

	if err := application.Start(ctx); err != nil {
		l.Error().Err(err).Msg("application failed to run")
		stop()
		os.Exit(1)
	}
}
