package logging

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that logs each outbound request.
type Transport struct {
	// Base performs the request. Nil means http.DefaultTransport.
	Base http.RoundTripper
	// Logger receives the log lines. Nil means slog.Default().
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		logger.Log(req.Context(), slog.LevelError, "upstream request failed",
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"duration", duration.String(),
			"error", err,
		)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelError
	} else if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}

	logger.Log(req.Context(), level, "upstream request",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", duration.String(),
	)

	return resp, nil
}
