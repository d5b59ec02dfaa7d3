package reply

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Nazarious-ucu/weather-bot/internal/models"
)

// escape neutralizes user and provider text for the legacy Markdown parse mode.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// Formatter turns lookup results into Markdown chat messages.
type Formatter struct {
	catalog *Catalog
}

func NewFormatter(catalog *Catalog) *Formatter {
	return &Formatter{catalog: catalog}
}

// Format renders one reply per result variant. A nil result is treated as unexpected.
func (f *Formatter) Format(result models.WeatherResult) string {
	switch r := result.(type) {
	case models.Found:
		return f.catalog.T(KeyWeather,
			SelectIcon(r.Description),
			escape(r.Place()),
			r.TemperatureC,
			r.FeelsLikeC,
			r.HumidityPct,
			r.WindSpeedMS,
			r.PressureHPa,
			escape(r.Description),
		)
	case models.NotFound:
		return f.catalog.T(KeyNotFound, escape(r.Query))
	case models.ProviderError:
		return f.catalog.T(KeyProviderError, escape(r.Message))
	case models.TransportFailure:
		switch r.Reason {
		case models.Timeout:
			return f.catalog.T(KeyTransportTimeout)
		case models.NetworkError:
			return f.catalog.T(KeyTransportNetwork)
		default:
			return f.catalog.T(KeyTransportUnexpected)
		}
	default:
		return f.catalog.T(KeyTransportUnexpected)
	}
}

// Text returns a fixed catalog message such as the welcome or help text.
func (f *Formatter) Text(key string) string {
	return f.catalog.T(key)
}
