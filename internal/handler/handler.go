// Package handler содержит HTTP-обработчики API и форм сервиса заказов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mmeshcher/rsalgados/internal/middleware"
	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/service"
	"github.com/mmeshcher/rsalgados/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterClient(ctx context.Context, reg service.Registration) (*model.Client, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Profile(ctx context.Context, caller model.Caller) (*model.Client, error)

	CreateOrder(ctx context.Context, caller model.Caller, clientID uuid.UUID, items []model.NewItem) (*model.Order, error)
	GetOrder(ctx context.Context, caller model.Caller, orderID uuid.UUID) (*model.Order, error)
	MarkPaid(ctx context.Context, caller model.Caller, orderID uuid.UUID) (*model.Order, error)
	AddItem(ctx context.Context, caller model.Caller, orderID uuid.UUID, item model.NewItem) (*model.Item, error)
	UpdateItem(ctx context.Context, caller model.Caller, orderID, itemID uuid.UUID, item model.NewItem) (*model.Item, bool, error)
	RemoveItem(ctx context.Context, caller model.Caller, orderID, itemID uuid.UUID) error
	ReplaceOrder(ctx context.Context, caller model.Caller, orderID uuid.UUID, clientID *uuid.UUID, items []model.NewItem) (*model.Order, error)
	ListOrders(ctx context.Context, caller model.Caller) ([]model.OrderSummary, error)
	DeleteOrder(ctx context.Context, caller model.Caller, orderID uuid.UUID) error

	Ping(ctx context.Context) error
}

// Handler реализует HTTP-обработчики сервиса заказов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	registry       *prometheus.Registry
	metrics        *middleware.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// Если reg не nil, HTTP-метрики регистрируются в нём и отдаются на /metrics.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, reg *prometheus.Registry) *Handler {
	h := &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		registry:       reg,
	}
	if reg != nil {
		h.metrics = middleware.NewMetrics(reg)
	}
	return h
}

// statusFor сопоставляет ошибку бизнес-логики с кодом HTTP-ответа.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated),
		errors.Is(err, service.ErrInactiveUser),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrWrongRole),
		errors.Is(err, service.ErrOwnershipMismatch):
		return http.StatusForbidden
	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrItemMismatch):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotEditable):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrPasswordTooLong),
		errors.Is(err, service.ErrValueOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
	}
	http.Error(w, http.StatusText(code), code)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

type validationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// decodeJSON читает тело запроса и проверяет его. При ошибке ответ уже записан.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, validationErrorResponse{Errors: validation.FormatValidationError(err)})
		return false
	}
	return true
}

func callerFrom(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, ok := middleware.GetCallerFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return model.Caller{}, false
	}
	return caller, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// Health проверяет доступность базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
