package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/weather-bot/internal/config"
	httpHandlers "github.com/Nazarious-ucu/weather-bot/internal/handlers/http"
	"github.com/Nazarious-ucu/weather-bot/internal/handlers/telegram"
	"github.com/Nazarious-ucu/weather-bot/internal/reply"
	loggerT "github.com/Nazarious-ucu/weather-bot/internal/services/logger"
	metricsSvc "github.com/Nazarious-ucu/weather-bot/internal/services/metrics"
	"github.com/Nazarious-ucu/weather-bot/internal/services/responder"
	serviceWeather "github.com/Nazarious-ucu/weather-bot/internal/services/weather"
	fLogger "github.com/Nazarious-ucu/weather-bot/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type poller interface {
	StartPolling(ctx context.Context) error
	StopPolling()
}

// ServiceContainer holds initialized dependencies for the bot and the HTTP server.
type ServiceContainer struct {
	Responder *responder.Service
	Formatter *reply.Formatter
	Bot       poller

	Router     *gin.Engine
	Srv        *http.Server
	fileLogger *zap.Logger
}

// App ties together config, logger, and metrics for startup/shutdown.
type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metricsSvc.Metrics
}

func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics) *App {
	return &App{
		cfg: cfg,
		l:   logger,
		m:   met,
	}
}

// Start connects to Telegram, serves HTTP and blocks until ctx is cancelled
// or the HTTP server fails.
func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.init()
	if err != nil {
		return err
	}
	return a.Run(ctx, srvContainer)
}

// Run starts polling and the HTTP server of an initialized container.
func (a *App) Run(ctx context.Context, srvContainer ServiceContainer) error {
	a.routes(srvContainer)

	httpErr := make(chan error, 1)
	if a.cfg.Server.Enabled {
		go func() {
			a.l.Info().Str("address", srvContainer.Srv.Addr).Msg("HTTP server running")
			if err := srvContainer.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
			}
		}()
	}

	pollDone := make(chan error, 1)
	go func() {
		pollDone <- srvContainer.Bot.StartPolling(ctx)
	}()

	a.l.Info().Msg("weather bot started successfully")

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info().Msg("shutdown signal received, stopping weather bot")
	case runErr = <-httpErr:
		a.l.Error().Err(runErr).Msg("HTTP server failed")
	case runErr = <-pollDone:
		if runErr == nil && ctx.Err() == nil {
			runErr = errors.New("telegram polling stopped unexpectedly")
		}
		pollDone <- nil
	}

	if err := a.Shutdown(srvContainer, pollDone); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown application")
		return errors.Join(runErr, err)
	}
	a.l.Info().Msg("application shutdown successfully")
	return runErr
}

// Shutdown stops polling, waits for the workers and closes the HTTP server.
func (a *App) Shutdown(srvContainer ServiceContainer, pollDone <-chan error) error {
	a.l.Info().Msg("stopping weather bot…")

	defer func(logger *zap.Logger) {
		if logger == nil {
			return
		}
		if err := logger.Sync(); err != nil {
			a.l.Debug().Err(err).Msg("failed to sync file logger")
		}
	}(srvContainer.fileLogger)

	srvContainer.Bot.StopPolling()
	if err := <-pollDone; err != nil {
		a.l.Warn().Err(err).Msg("telegram polling returned an error")
	}

	if !a.cfg.Server.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.l.Info().Msg("shutting down HTTP server")
	if err := srvContainer.Srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *App) routes(srvContainer ServiceContainer) {
	router := srvContainer.Router
	router.Use(a.m.HTTPMiddleware())

	h := httpHandlers.NewHandler(srvContainer.Responder, srvContainer.Formatter)
	router.GET("/metrics", gin.WrapH(a.m.Handler()))
	router.GET("/healthz", h.Health)

	api := router.Group("/api")
	{
		api.GET("/weather", h.GetWeather)
	}
}

// init builds the lookup pipeline and the Telegram adapter without starting them.
func (a *App) init() (ServiceContainer, error) {
	a.l.Info().
		Str("bot_token", config.Redact(a.cfg.Bot.Token)).
		Str("weather_api_key", config.Redact(a.cfg.Weather.APIKey)).
		Str("weather_url", a.cfg.Weather.URL).
		Dur("weather_timeout", a.cfg.Weather.Timeout).
		Int("workers", a.cfg.Bot.Workers).
		Msg("initializing weather bot")

	fileLogger, err := fLogger.NewFileLogger(a.cfg.Log.HTTPLogsPath)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to create file logger, outbound requests will not be audited")
		fileLogger = zap.NewNop()
	}

	// Outbound HTTP logging over a transport bounded by the lookup timeout
	httpLogClient := &http.Client{
		Transport: loggerT.NewRoundTripper(fileLogger, serviceWeather.NewTransport(a.cfg.Weather.Timeout)),
	}

	var looker serviceWeather.Looker = serviceWeather.NewClientOpenWeatherMap(
		a.cfg.Weather.URL,
		a.cfg.Weather.Lang,
		httpLogClient,
		a.l,
	)
	if a.cfg.Breaker.Enabled {
		looker = serviceWeather.NewBreakerClient("OpenWeather", serviceWeather.BreakerConfig{
			TimeInterval: time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
			TimeTimeOut:  time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
			RepeatNumber: a.cfg.Breaker.RepeatNumber,
		}, looker, a.l)
	}

	catalog, err := reply.DefaultCatalog()
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("load reply catalog: %w", err)
	}
	formatter := reply.NewFormatter(catalog)

	responderSvc := responder.NewService(looker, formatter, a.m, a.cfg.Weather.APIKey, a.cfg.Weather.Timeout, a.l)

	bot, err := telegram.NewBot(a.cfg.Bot.Token, a.cfg.Bot.Debug, a.l)
	if err != nil {
		return ServiceContainer{}, err
	}
	a.l.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")

	botHandler := telegram.NewHandler(bot, responderSvc, formatter, a.m, telegram.Options{
		Workers:     a.cfg.Bot.Workers,
		PollTimeout: a.cfg.Bot.PollTimeout,
		DropPending: a.cfg.Bot.DropPending,
	}, a.l)

	router := gin.New()
	router.Use(gin.Recovery())

	httpServer := &http.Server{
		Addr:        a.cfg.ServerAddress(),
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	return ServiceContainer{
		Responder:  responderSvc,
		Formatter:  formatter,
		Bot:        botHandler,
		Router:     router,
		Srv:        httpServer,
		fileLogger: fileLogger,
	}, nil
}
