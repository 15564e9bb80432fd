package logger

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is the header carrying the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Transport is an http.RoundTripper that tags every outgoing request with a
// request ID and logs its outcome.
type Transport struct {
	Base http.RoundTripper
	Log  *zap.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, log *zap.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Log: log}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := GetRequestID(req.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(ContextWithRequestID(req.Context(), requestID))
	req.Header.Set(RequestIDHeader, requestID)

	log := WithContext(req.Context(), t.Log).With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("api request failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	}
	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn("api request returned error status", fields...)
	} else {
		log.Debug("api request", fields...)
	}

	return resp, nil
}
