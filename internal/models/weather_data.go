package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned for blank user input; no lookup is made for it.
var ErrEmptyQuery = errors.New("empty weather query")

// WeatherQuery is a user supplied location, "City" or "City, CountryCode".
type WeatherQuery string

// NewWeatherQuery trims raw input and rejects it when nothing is left.
func NewWeatherQuery(raw string) (WeatherQuery, error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return WeatherQuery(q), nil
}

func (q WeatherQuery) String() string {
	return string(q)
}

// WeatherResult is one of Found, NotFound, ProviderError or TransportFailure.
type WeatherResult interface {
	weatherResult()
}

type Found struct {
	Location     string  `json:"location"`
	Country      string  `json:"country,omitempty"`
	TemperatureC float64 `json:"temperature_c"`
	FeelsLikeC   float64 `json:"feels_like_c"`
	HumidityPct  int     `json:"humidity_pct"`
	PressureHPa  int     `json:"pressure_hpa"`
	WindSpeedMS  float64 `json:"wind_speed_ms"`
	Description  string  `json:"description"`
}

// Place is the location with the country code appended when known.
func (f Found) Place() string {
	if f.Country == "" {
		return f.Location
	}
	return f.Location + ", " + f.Country
}

type NotFound struct {
	Query string `json:"query"`
}

type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FailureReason int

const (
	Timeout FailureReason = iota
	NetworkError
	Unexpected
)

func (r FailureReason) String() string {
	switch r {
	case Timeout:
		return "timeout"
	case NetworkError:
		return "network_error"
	default:
		return "unexpected"
	}
}

type TransportFailure struct {
	Reason FailureReason `json:"reason"`
}

func (Found) weatherResult()            {}
func (NotFound) weatherResult()         {}
func (ProviderError) weatherResult()    {}
func (TransportFailure) weatherResult() {}

// Outcome returns a short label for logs and metrics.
func Outcome(r WeatherResult) string {
	switch v := r.(type) {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case ProviderError:
		return "provider_error"
	case TransportFailure:
		return v.Reason.String()
	default:
		return "unknown"
	}
}
