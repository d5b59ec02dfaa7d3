package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nazarious-ucu/weather-bot/internal/models"
)

type lookupService interface {
	Lookup(ctx context.Context, query models.WeatherQuery) models.WeatherResult
}

type formatter interface {
	Format(result models.WeatherResult) string
}

type Handler struct {
	service   lookupService
	formatter formatter
}

func NewHandler(svc lookupService, f formatter) *Handler {
	return &Handler{service: svc, formatter: f}
}

type weatherResponse struct {
	City    string `json:"city"`
	Outcome string `json:"outcome"`
	Reply   string `json:"reply"`
}

// GetWeather answers with the same text a chat user would get for city.
func (h *Handler) GetWeather(c *gin.Context) {
	query, err := models.NewWeatherQuery(c.Query("city"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city query parameter is required"})
		return
	}

	result := h.service.Lookup(c.Request.Context(), query)

	c.JSON(statusFor(result), weatherResponse{
		City:    query.String(),
		Outcome: models.Outcome(result),
		Reply:   h.formatter.Format(result),
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(result models.WeatherResult) int {
	switch r := result.(type) {
	case models.Found:
		return http.StatusOK
	case models.NotFound:
		return http.StatusNotFound
	case models.ProviderError:
		return http.StatusBadGateway
	case models.TransportFailure:
		if r.Reason == models.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
