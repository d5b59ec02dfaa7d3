package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// maxLoggedBody caps how much of a response body goes to the audit log.
const maxLoggedBody = 4 << 10

// secretParams are query parameters masked before a URL is logged.
var secretParams = []string{"appid", "key", "token"}

// RoundTripper writes every outbound request and the head of its response body to a zap logger.
type RoundTripper struct {
	Logger *zap.Logger
	Proxy  http.RoundTripper
}

func NewRoundTripper(logger *zap.Logger, proxy http.RoundTripper) *RoundTripper {
	if proxy == nil {
		proxy = http.DefaultTransport
	}
	return &RoundTripper{
		Logger: logger,
		Proxy:  proxy,
	}
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.Logger.Error("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", RedactURL(req.URL)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	snippet, err := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	if err != nil {
		_ = resp.Body.Close()
		l.Logger.Error("Failed to read response body",
			zap.String("method", req.Method),
			zap.String("url", RedactURL(req.URL)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	// the caller still reads the whole body: the logged prefix, then the rest of the stream
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(snippet), resp.Body), resp.Body}

	l.Logger.Info("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("url", RedactURL(req.URL)),
		zap.ByteString("body_snipped", snippet),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// RedactURL renders u with credential query parameters replaced by "***".
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clone := *u
	q := clone.Query()
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "***")
		}
	}
	clone.RawQuery = q.Encode()
	return clone.String()
}
