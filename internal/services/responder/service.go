package responder

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-bot/internal/models"
	"github.com/Nazarious-ucu/weather-bot/internal/reply"
	"github.com/Nazarious-ucu/weather-bot/internal/services/weather"
)

type formatter interface {
	Format(result models.WeatherResult) string
	Text(key string) string
}

type recorder interface {
	ObserveLookup(outcome string, d time.Duration)
}

// Service answers one chat message with one reply text.
type Service struct {
	looker    weather.Looker
	formatter formatter
	metrics   recorder
	apiKey    string
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewService(
	looker weather.Looker,
	f formatter,
	m recorder,
	apiKey string,
	timeout time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		looker:    looker,
		formatter: f,
		metrics:   m,
		apiKey:    apiKey,
		timeout:   timeout,
		logger:    logger,
	}
}

// Reply looks up the weather for text. Blank text gets a prompt and no lookup.
func (s *Service) Reply(ctx context.Context, text string) string {
	query, err := models.NewWeatherQuery(text)
	if errors.Is(err, models.ErrEmptyQuery) {
		return s.formatter.Text(reply.KeyEnterCity)
	}

	result := s.Lookup(ctx, query)
	return s.formatter.Format(result)
}

// Lookup performs exactly one provider lookup and records its outcome.
func (s *Service) Lookup(ctx context.Context, query models.WeatherQuery) models.WeatherResult {
	start := time.Now()
	result := s.looker.Lookup(ctx, query, s.apiKey, s.timeout)
	outcome := models.Outcome(result)

	if s.metrics != nil {
		s.metrics.ObserveLookup(outcome, time.Since(start))
	}

	s.logger.Info().
		Ctx(ctx).
		Str("query", query.String()).
		Str("outcome", outcome).
		Dur("took", time.Since(start)).
		Msg("weather lookup finished")

	return result
}
