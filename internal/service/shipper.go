package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/spounge-ai/logshipper/internal/domain"
	"github.com/spounge-ai/logshipper/internal/identity"
	"github.com/spounge-ai/logshipper/internal/message"
	"github.com/spounge-ai/logshipper/internal/metrics"
	"go.uber.org/zap"
)

// SecretSource supplies the api key for the ingestion API.
type SecretSource interface {
	Ensure(ctx context.Context) (string, error)
	Loaded() bool
}

// IdentityTables supplies the principal to subject id table.
type IdentityTables interface {
	Table() (identity.Table, bool)
	Ensure(ctx context.Context) (identity.Table, error)
}

// LogForwarder ships a payload to the ingestion API.
type LogForwarder interface {
	Forward(ctx context.Context, payload domain.LogPayload, apiKey string) error
}

// Result describes a shipped log.
type Result struct {
	InvocationID string
	Payload      domain.LogPayload
	Method       identity.Method
}

// LogShipper handles one trigger event at a time.
type LogShipper interface {
	Handle(ctx context.Context, event *domain.Event) (*Result, error)
	Ready() bool
}

type shipper struct {
	secrets   SecretSource
	tables    IdentityTables
	forwarder LogForwarder
	logger    *zap.Logger
}

func NewShipper(secrets SecretSource, tables IdentityTables, forwarder LogForwarder, logger *zap.Logger) LogShipper {
	return &shipper{
		secrets:   secrets,
		tables:    tables,
		forwarder: forwarder,
		logger:    logger,
	}
}

// Ready reports whether the api key has been cached.
func (s *shipper) Ready() bool {
	return s.secrets.Loaded()
}

// Handle ships the audit record carried by event. Every failure is returned
// to the caller as is; the trigger decides whether to redeliver.
func (s *shipper) Handle(ctx context.Context, event *domain.Event) (*Result, error) {
	invocationID := uuid.New().String()
	logger := s.logger.With(zap.String("invocation_id", invocationID))

	result, err := s.handle(ctx, logger, event)
	if err != nil {
		metrics.EventsHandled.WithLabelValues("failed").Inc()
		return nil, err
	}
	result.InvocationID = invocationID
	metrics.EventsHandled.WithLabelValues("forwarded").Inc()
	return result, nil
}

func (s *shipper) handle(ctx context.Context, logger *zap.Logger, event *domain.Event) (*Result, error) {
	apiKey, err := s.secrets.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	record, err := message.Decode(event)
	if err != nil {
		return nil, err
	}

	table, loaded := s.tables.Table()
	res := identity.Resolve(record, table, loaded)
	if res.NeedsIdentityTable {
		logger.Debug("subject needs identity table", zap.String("principal", record.PrincipalEmail))
		table, err = s.tables.Ensure(ctx)
		if err != nil {
			return nil, err
		}
		res = identity.Resolve(record, table, true)
	}
	metrics.SubjectResolutions.WithLabelValues(string(res.Method)).Inc()

	payload := domain.NewLogPayload(record, res.SubjectID, res.ManualLookup)

	if err := s.forwarder.Forward(ctx, payload, apiKey); err != nil {
		return nil, err
	}

	logger.Info("audit log forwarded",
		zap.String("subject_id", payload.SubjectID),
		zap.Bool("manual_lookup", payload.ManualLookup),
		zap.String("method", string(res.Method)),
	)

	return &Result{Payload: payload, Method: res.Method}, nil
}
