// Package handlers provides HTTP request handlers
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go-mlwrapper/internal/domain"
	"go-mlwrapper/internal/metrics"
	"go-mlwrapper/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20

	defaultListLimit = 20
	maxListLimit     = 100
)

// PredictionService is what the handlers need from the service layer
type PredictionService interface {
	Predict(ctx context.Context, requestID string, req domain.PredictionRequest) (domain.PredictionResult, error)
	HealthCheck(ctx context.Context) (domain.HealthStatus, error)
	AuditEnabled() bool
	Recent(ctx context.Context, limit int) ([]domain.PredictionLog, error)
}

// Handler holds all service dependencies
type Handler struct {
	Service     PredictionService
	ServiceName string
	logger      *zap.Logger
}

// NewHandler creates a new handler with services
func NewHandler(svc PredictionService, serviceName string, logger *zap.Logger) *Handler {
	return &Handler{
		Service:     svc,
		ServiceName: serviceName,
		logger:      logger,
	}
}

// Predict validates the flight payload and forwards it to the ML service
func (h *Handler) Predict(c *gin.Context) {
	requestID := RequestIDFrom(c)
	log := h.logger.With(zap.String("request_id", requestID))

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.ValidationFailures.WithLabelValues("body").Inc()
			c.JSON(http.StatusBadRequest, domain.ValidationErrorResponse{
				Error:   domain.MsgInvalidData,
				Details: []domain.Violation{{Field: "body", Message: "request body too large"}},
			})
			return
		}
		log.Error("Cannot read request body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, wrapperError(err))
		return
	}

	req, err := validation.Validate(body)
	if err != nil {
		var verr *validation.ValidationError
		switch {
		case errors.Is(err, validation.ErrEmptyBody):
			log.Warn("Empty request body")
			c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: domain.MsgEmptyBody})
		case errors.As(err, &verr):
			for _, field := range verr.Fields() {
				metrics.ValidationFailures.WithLabelValues(field).Inc()
			}
			log.Warn("Validation error", zap.Strings("fields", verr.Fields()))
			c.JSON(http.StatusBadRequest, domain.ValidationErrorResponse{
				Error:   domain.MsgInvalidData,
				Details: verr.Violations,
			})
		default:
			log.Error("Processing error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, wrapperError(err))
		}
		return
	}

	log.Info("Prediction request received", zap.String("flight_number", req.FlightNumber))

	result, err := h.Service.Predict(c.Request.Context(), requestID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, wrapperError(err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", result)
}

// Health reports the wrapper status derived from the ML service probe
func (h *Handler) Health(c *gin.Context) {
	status, err := h.Service.HealthCheck(c.Request.Context())
	if err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, domain.HealthResponse{
			Status:  domain.StatusDown,
			Service: h.ServiceName,
			Error:   err.Error(),
		})
		return
	}

	if status.IsUp() {
		c.JSON(http.StatusOK, domain.HealthResponse{
			Status:    domain.StatusUp,
			Service:   h.ServiceName,
			MLService: &status,
		})
		return
	}

	c.JSON(http.StatusServiceUnavailable, domain.HealthResponse{
		Status:    domain.StatusDegraded,
		Service:   h.ServiceName,
		MLService: &status,
	})
}

// ListPredictions returns the most recent audit rows
func (h *Handler) ListPredictions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, err := h.Service.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Cannot list predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "Internal error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func wrapperError(err error) domain.ErrorResponse {
	return domain.ErrorResponse{Error: domain.MsgWrapper, Message: err.Error()}
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic while handling request", zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   domain.MsgWrapper,
			Message: "internal error",
		})
	}))
	r.Use(RequestID())
	r.Use(AccessLog(logger))
	r.Use(Metrics())

	SetupRoutes(r, h)
	return r
}

// SetupRoutes configures all routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	r.POST("/predict", h.Predict)
	r.GET("/health", h.Health)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Audit log
	if h.Service.AuditEnabled() {
		r.GET("/predictions/recent", h.ListPredictions)
	}
}
