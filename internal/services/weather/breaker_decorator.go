package weather

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/Nazarious-ucu/weather-bot/internal/models"
)

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// errTransport marks a lookup the breaker counts as a failure.
type errTransport struct {
	result models.TransportFailure
}

func (e errTransport) Error() string {
	return "transport failure: " + e.result.Reason.String()
}

// BreakerClient stops calling the provider after RepeatNumber consecutive
// transport failures. Provider answers (not found, API errors) count as successes.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped Looker
	logger  zerolog.Logger
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped Looker, logger zerolog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
		logger:  logger,
	}
}

func (b *BreakerClient) Lookup(
	ctx context.Context,
	query models.WeatherQuery,
	apiKey string,
	timeout time.Duration,
) models.WeatherResult {
	result, err := b.cb.Execute(func() (interface{}, error) {
		res := b.wrapped.Lookup(ctx, query, apiKey, timeout)
		if tf, ok := res.(models.TransportFailure); ok {
			return res, errTransport{result: tf}
		}
		return res, nil
	})

	var te errTransport
	switch {
	case errors.As(err, &te):
		return te.result
	case err != nil:
		// open or half-open with too many requests: the provider is not called
		b.logger.Warn().
			Ctx(ctx).
			Str("breaker", b.name).
			Str("city", query.String()).
			Err(err).
			Msg("lookup short-circuited")
		return models.TransportFailure{Reason: models.NetworkError}
	}

	res, ok := result.(models.WeatherResult)
	if !ok || res == nil {
		return models.TransportFailure{Reason: models.Unexpected}
	}
	return res
}

func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
