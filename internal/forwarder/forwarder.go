package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spounge-ai/logshipper/internal/domain"
	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://api.logit.io/v2"
	DefaultLogType  = "BucketAudit"

	headerAPIKey  = "ApiKey"
	headerLogType = "LogType"

	maxErrorBody = 512
)

// Options configures a Forwarder.
type Options struct {
	Endpoint        string
	LogType         string
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Forwarder ships log payloads to the log ingestion API.
type Forwarder struct {
	client   *http.Client
	endpoint string
	logType  string
	logger   *zap.Logger
}

// NewHTTPClient returns a client that keeps connections to the ingestion
// API open between invocations.
func NewHTTPClient(opts Options) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.MaxIdleConns > 0 {
		transport.MaxIdleConns = opts.MaxIdleConns
		transport.MaxIdleConnsPerHost = opts.MaxIdleConns
	}
	if opts.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = opts.IdleConnTimeout
	}
	return &http.Client{Transport: transport}
}

func New(client *http.Client, opts Options, logger *zap.Logger) *Forwarder {
	if client == nil {
		client = NewHTTPClient(opts)
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	logType := opts.LogType
	if logType == "" {
		logType = DefaultLogType
	}
	return &Forwarder{
		client:   client,
		endpoint: endpoint,
		logType:  logType,
		logger:   logger,
	}
}

// Forward POSTs payload once. Transport errors and non-2xx responses are
// returned as ErrForwardFailure; nothing is retried.
func (f *Forwarder) Forward(ctx context.Context, payload domain.LogPayload, apiKey string) error {
	if apiKey == "" {
		return app_errors.ErrMissingSecret
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal log payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, apiKey)
	req.Header.Set(headerLogType, f.logType)

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.ForwardDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ForwardRequests.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %w", app_errors.ErrForwardFailure, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	metrics.ForwardRequests.WithLabelValues(statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s returned %d: %s", app_errors.ErrForwardFailure, f.endpoint, resp.StatusCode, bytes.TrimSpace(excerpt))
	}

	// Drain so the connection goes back to the pool.
	_, _ = io.Copy(io.Discard, resp.Body)

	f.logger.Debug("log forwarded",
		zap.Int("status", resp.StatusCode),
		zap.String("subject_id", payload.SubjectID),
	)
	return nil
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
