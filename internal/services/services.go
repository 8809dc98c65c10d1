// Package services provides business logic
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-mlwrapper/internal/clients"
	"go-mlwrapper/internal/domain"
	"go-mlwrapper/internal/metrics"

	"go.uber.org/zap"
)

// ErrAuditDisabled is returned by Recent when no audit store is configured
var ErrAuditDisabled = errors.New("prediction audit log is disabled")

const auditWriteTimeout = 2 * time.Second

// MLClient is the downstream prediction service
type MLClient interface {
	Predict(ctx context.Context, req domain.PredictionRequest) (domain.PredictionResult, error)
	HealthCheck(ctx context.Context) domain.HealthStatus
}

// AuditStore persists forwarded predictions
type AuditStore interface {
	Insert(ctx context.Context, entry domain.PredictionLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.PredictionLog, error)
}

// PredictionService forwards validated requests and records their outcome
type PredictionService struct {
	client MLClient
	audit  AuditStore
	logger *zap.Logger
}

// NewPredictionService creates a new prediction service. audit may be nil.
func NewPredictionService(client MLClient, audit AuditStore, logger *zap.Logger) *PredictionService {
	return &PredictionService{client: client, audit: audit, logger: logger}
}

// Predict forwards req to the ML service. The client error is returned
// unchanged so callers can inspect its kind.
func (s *PredictionService) Predict(ctx context.Context, requestID string, req domain.PredictionRequest) (domain.PredictionResult, error) {
	log := s.logger.With(
		zap.String("request_id", requestID),
		zap.String("flight_number", req.FlightNumber))

	start := time.Now()
	result, err := s.client.Predict(ctx, req)
	elapsed := time.Since(start)

	outcome := outcomeOf(err)
	metrics.ForwardRequests.WithLabelValues(outcome).Inc()
	metrics.ForwardDuration.Observe(elapsed.Seconds())

	if err != nil {
		log.Error("Prediction failed", zap.String("outcome", outcome), zap.Error(err))
	} else {
		summary := result.Summarize()
		log.Info("Prediction received from ML service",
			zap.Any("prediction", summary.Prediction),
			zap.Any("probability", summary.Probability),
			zap.Duration("latency", elapsed))
	}

	s.record(requestID, req, outcome, result, err, elapsed)
	return result, err
}

// HealthCheck returns the ML service liveness. The error is non-nil only
// when the probe could not be run at all.
func (s *PredictionService) HealthCheck(ctx context.Context) (domain.HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.HealthStatus{}, err
	}

	status := s.client.HealthCheck(ctx)
	if status.IsUp() {
		metrics.MLServiceUp.Set(1)
	} else {
		metrics.MLServiceUp.Set(0)
	}
	return status, nil
}

// AuditEnabled reports whether predictions are persisted
func (s *PredictionService) AuditEnabled() bool {
	return s.audit != nil
}

// Recent lists the latest audit rows
func (s *PredictionService) Recent(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	return s.audit.ListRecent(ctx, limit)
}

// record writes the audit row. Failures are logged and counted only.
func (s *PredictionService) record(requestID string, req domain.PredictionRequest, outcome string,
	result domain.PredictionResult, callErr error, elapsed time.Duration) {
	if s.audit == nil {
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		s.logger.Warn("Cannot encode audit request", zap.Error(err))
		return
	}

	entry := domain.PredictionLog{
		RequestID:    requestID,
		FlightNumber: req.FlightNumber,
		Request:      payload,
		Outcome:      outcome,
		Result:       json.RawMessage(result),
		LatencyMs:    elapsed.Milliseconds(),
	}
	var ferr *clients.ForwardingError
	if errors.As(callErr, &ferr) && ferr.Kind == clients.KindHTTPError {
		code := ferr.StatusCode
		entry.StatusCode = &code
		entry.Result = ferr.Detail
	}

	// detached from the request context so a client disconnect still gets logged
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := s.audit.Insert(ctx, entry); err != nil {
		metrics.AuditWriteFailures.Inc()
		s.logger.Warn("Failed to write prediction log",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	var ferr *clients.ForwardingError
	if errors.As(err, &ferr) {
		return ferr.Kind.String()
	}
	return clients.KindUnknown.String()
}
