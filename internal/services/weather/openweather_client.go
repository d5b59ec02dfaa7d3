package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-bot/internal/models"
)

const (
	codeFound    = "200"
	codeNotFound = "404"

	unitsMetric = "metric"
)

type apiResponse struct {
	Cod     providerCode `json:"cod"`
	Message string       `json:"message"`
	Name    string       `json:"name"`
	Sys     struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// providerCode accepts "cod" both as a JSON number (200) and a string ("404").
type providerCode string

func (c *providerCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = providerCode(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = providerCode(n.String())
	return nil
}

// ClientOpenWeatherMap fetches current weather from the OpenWeatherMap API.
type ClientOpenWeatherMap struct {
	apiURL string
	lang   string
	client HTTPClient
	logger zerolog.Logger
}

// NewClientOpenWeatherMap constructs a new OpenWeatherMap client.
func NewClientOpenWeatherMap(apiURL, lang string,
	httpClient HTTPClient, logger zerolog.Logger,
) *ClientOpenWeatherMap {
	return &ClientOpenWeatherMap{apiURL: apiURL, lang: lang, client: httpClient, logger: logger}
}

// Lookup issues exactly one request for query and maps the answer to a WeatherResult.
// It never returns nil.
func (s *ClientOpenWeatherMap) Lookup(
	ctx context.Context,
	query models.WeatherQuery,
	apiKey string,
	timeout time.Duration,
) models.WeatherResult {
	start := time.Now()
	city := query.String()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	params := url.Values{
		"q":     {city},
		"appid": {apiKey},
		"units": {unitsMetric},
		"lang":  {s.lang},
	}

	s.logger.Debug().
		Ctx(ctx).
		Str("city", city).
		Dur("timeout", timeout).
		Msg("starting OpenWeatherMap request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		s.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("city", city).
			Msg("failed to create HTTP request")
		return models.TransportFailure{Reason: models.Unexpected}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		reason := classifyTransportError(ctx, err)
		s.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("city", city).
			Stringer("reason", reason).
			Msg("error sending HTTP request to OpenWeatherMap")
		return models.TransportFailure{Reason: reason}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Error().
				Ctx(ctx).
				Err(cerr).
				Str("city", city).
				Msg("failed to close response body")
		}
	}()

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		reason := models.Unexpected
		if isTimeout(ctx, err) {
			reason = models.Timeout
		}
		s.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("city", city).
			Int("status_code", resp.StatusCode).
			Msg("failed to decode OpenWeatherMap response")
		return models.TransportFailure{Reason: reason}
	}

	result := toResult(query, raw, resp.StatusCode)

	s.logger.Info().
		Ctx(ctx).
		Str("city", city).
		Str("outcome", models.Outcome(result)).
		Dur("duration_ms", time.Since(start)).
		Msg("OpenWeatherMap lookup finished")

	return result
}

func toResult(query models.WeatherQuery, raw apiResponse, status int) models.WeatherResult {
	code := string(raw.Cod)
	if code == "" {
		code = strconv.Itoa(status)
	}

	switch code {
	case codeFound:
		// a success without a place name carries no usable reading
		if strings.TrimSpace(raw.Name) == "" {
			return models.TransportFailure{Reason: models.Unexpected}
		}
		var description string
		if len(raw.Weather) > 0 {
			description = capitalize(raw.Weather[0].Description)
		}
		return models.Found{
			Location:     raw.Name,
			Country:      raw.Sys.Country,
			TemperatureC: raw.Main.Temp,
			FeelsLikeC:   raw.Main.FeelsLike,
			HumidityPct:  raw.Main.Humidity,
			PressureHPa:  raw.Main.Pressure,
			WindSpeedMS:  raw.Wind.Speed,
			Description:  description,
		}
	case codeNotFound:
		return models.NotFound{Query: query.String()}
	default:
		message := raw.Message
		if message == "" {
			message = http.StatusText(status)
		}
		return models.ProviderError{Code: code, Message: message}
	}
}

func classifyTransportError(ctx context.Context, err error) models.FailureReason {
	if isTimeout(ctx, err) {
		return models.Timeout
	}
	return models.NetworkError
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
