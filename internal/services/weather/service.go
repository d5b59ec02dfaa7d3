package weather

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Nazarious-ucu/weather-bot/internal/models"
)

// Looker performs a single current-weather lookup.
type Looker interface {
	Lookup(ctx context.Context, query models.WeatherQuery, apiKey string, timeout time.Duration) models.WeatherResult
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewTransport returns an http.Transport whose dial and response-header
// phases are bounded by timeout.
func NewTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	return t
}
