package weather_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-bot/internal/models"
	"github.com/Nazarious-ucu/weather-bot/internal/services/weather"
)

const (
	testAPIKey  = "1234567890"
	testTimeout = 2 * time.Second
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, ok := args.Get(0).(*http.Response)
	if !ok {
		return nil, args.Error(1)
	}
	return resp, args.Error(1)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newClient(httpClient weather.HTTPClient) *weather.ClientOpenWeatherMap {
	return weather.NewClientOpenWeatherMap("https://api.openweathermap.org/data/2.5/weather", "ru", httpClient, zerolog.Nop())
}

const londonResponse = `{
	"cod": 200,
	"name": "London",
	"sys": {"country": "GB"},
	"main": {"temp": 15.3, "feels_like": 14.1, "humidity": 70, "pressure": 1012},
	"wind": {"speed": 3.2},
	"weather": [{"main": "Rain", "description": "light rain"}]
}`

func Test_OpenWeather_Lookup_Found(t *testing.T) {
	ctx, _ := gin.CreateTestContext(nil)

	m := &mockHTTPClient{}
	m.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		q := req.URL.Query()
		return req.Method == http.MethodGet &&
			q.Get("q") == "London" &&
			q.Get("appid") == testAPIKey &&
			q.Get("units") == "metric" &&
			q.Get("lang") == "ru"
	})).Return(jsonResponse(http.StatusOK, londonResponse), nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	result := newClient(m).Lookup(ctx, "London", testAPIKey, testTimeout)

	assert.Equal(t, models.Found{
		Location:     "London",
		Country:      "GB",
		TemperatureC: 15.3,
		FeelsLikeC:   14.1,
		HumidityPct:  70,
		PressureHPa:  1012,
		WindSpeedMS:  3.2,
		Description:  "Light rain",
	}, result)
	m.AssertNumberOfCalls(t, "Do", 1)
}

func Test_OpenWeather_Lookup_CyrillicDescriptionCapitalized(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK,
		`{"cod":200,"name":"Москва","main":{"temp":-3},"weather":[{"description":"небольшой снег"}]}`), nil).Once()

	result := newClient(m).Lookup(context.Background(), "Москва", testAPIKey, testTimeout)

	found, ok := result.(models.Found)
	require.True(t, ok)
	assert.Equal(t, "Небольшой снег", found.Description)
	assert.Empty(t, found.Country)
}

func Test_OpenWeather_Lookup_NoWeatherEntries(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK, `{"cod":200,"name":"Nowhere"}`), nil).Once()

	result := newClient(m).Lookup(context.Background(), "Nowhere", testAPIKey, testTimeout)

	found, ok := result.(models.Found)
	require.True(t, ok)
	assert.Equal(t, "", found.Description)
}

func Test_OpenWeather_Lookup_SuccessWithoutPlaceIsUnexpected(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "cod without name", body: `{"cod":200,"main":{"temp":12}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockHTTPClient{}
			m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK, tc.body), nil).Once()

			result := newClient(m).Lookup(context.Background(), "Kyiv", testAPIKey, testTimeout)

			assert.Equal(t, models.TransportFailure{Reason: models.Unexpected}, result)
			m.AssertExpectations(t)
		})
	}
}

func Test_OpenWeather_Lookup_NotFound(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(
		jsonResponse(http.StatusNotFound, `{"cod":"404","message":"city not found"}`), nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	result := newClient(m).Lookup(context.Background(), "Zzzznotacity", testAPIKey, testTimeout)

	assert.Equal(t, models.NotFound{Query: "Zzzznotacity"}, result)
}

func Test_OpenWeather_Lookup_ProviderError(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		want   models.ProviderError
	}{
		{
			name:   "invalid api key",
			status: http.StatusUnauthorized,
			body:   `{"cod":401,"message":"Invalid API key. Please see https://openweathermap.org/faq#error401 for more info."}`,
			want: models.ProviderError{
				Code:    "401",
				Message: "Invalid API key. Please see https://openweathermap.org/faq#error401 for more info.",
			},
		},
		{
			name:   "string code",
			status: http.StatusTooManyRequests,
			body:   `{"cod":"429","message":"rate limited"}`,
			want:   models.ProviderError{Code: "429", Message: "rate limited"},
		},
		{
			name:   "no code in body",
			status: http.StatusInternalServerError,
			body:   `{}`,
			want:   models.ProviderError{Code: "500", Message: "Internal Server Error"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockHTTPClient{}
			m.On("Do", mock.Anything).Return(jsonResponse(tc.status, tc.body), nil).Once()

			result := newClient(m).Lookup(context.Background(), "London", testAPIKey, testTimeout)

			assert.Equal(t, tc.want, result)
			m.AssertExpectations(t)
		})
	}
}

func Test_OpenWeather_Lookup_MalformedBody(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK, `<html>oops</html>`), nil).Once()

	result := newClient(m).Lookup(context.Background(), "London", testAPIKey, testTimeout)

	assert.Equal(t, models.TransportFailure{Reason: models.Unexpected}, result)
}

func Test_OpenWeather_Lookup_NetworkError(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}).Once()

	result := newClient(m).Lookup(context.Background(), "London", testAPIKey, testTimeout)

	assert.Equal(t, models.TransportFailure{Reason: models.NetworkError}, result)
	m.AssertNumberOfCalls(t, "Do", 1)
}

func Test_OpenWeather_Lookup_DeadlineFromClient(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(nil, context.DeadlineExceeded).Once()

	result := newClient(m).Lookup(context.Background(), "London", testAPIKey, testTimeout)

	assert.Equal(t, models.TransportFailure{Reason: models.Timeout}, result)
}

func Test_OpenWeather_Lookup_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := weather.NewClientOpenWeatherMap(srv.URL, "ru", srv.Client(), zerolog.Nop())

	start := time.Now()
	result := client.Lookup(context.Background(), "London", testAPIKey, 50*time.Millisecond)

	assert.Equal(t, models.TransportFailure{Reason: models.Timeout}, result)
	assert.Less(t, time.Since(start), time.Second)
}

func Test_OpenWeather_Lookup_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client := weather.NewClientOpenWeatherMap(addr, "ru", &http.Client{}, zerolog.Nop())

	result := client.Lookup(context.Background(), "London", testAPIKey, time.Second)

	assert.Equal(t, models.TransportFailure{Reason: models.NetworkError}, result)
}

func Test_OpenWeather_Lookup_QueryWithCountryIsEscaped(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cod":200,"name":"Paris","sys":{"country":"FR"},"weather":[{"description":"clear sky"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := weather.NewClientOpenWeatherMap(srv.URL, "ru", srv.Client(), zerolog.Nop())

	result := client.Lookup(context.Background(), "Paris, FR", testAPIKey, time.Second)

	assert.Equal(t, "Paris, FR", gotQuery)
	found, ok := result.(models.Found)
	require.True(t, ok)
	assert.Equal(t, "Paris, FR", found.Place())
}
