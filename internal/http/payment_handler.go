package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkpay/internal/domain"
	"checkpay/internal/service"
)

// PaymentHandler atiende el registro y la consulta de pagos.
type PaymentHandler struct {
	logger   *zap.Logger
	payments *service.PaymentService
	metrics  *Metrics
}

func NewPaymentHandler(logger *zap.Logger, payments *service.PaymentService, metrics *Metrics) *PaymentHandler {
	return &PaymentHandler{
		logger:   logger,
		payments: payments,
		metrics:  metrics,
	}
}

type createPaymentRequest struct {
	BusinessName     string   `json:"businessName"`
	QuantitySold     *float64 `json:"quantitySold"`
	CheckImageBase64 string   `json:"checkImageBase64"`
}

// CreatePayment maneja POST /api/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid payment request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	if req.QuantitySold == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "quantitySold is required"})
		return
	}

	payment, err := h.payments.Create(c.Request.Context(), user, service.CreatePaymentInput{
		BusinessName:     req.BusinessName,
		QuantitySold:     *req.QuantitySold,
		CheckImageBase64: req.CheckImageBase64,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidBusinessName),
			errors.Is(err, service.ErrBusinessNameControl),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidImage),
			errors.Is(err, service.ErrImageTooLarge):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		default:
			h.logger.Error("create payment failed", zap.String("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to save payment"})
		}
		return
	}

	h.metrics.observePayment()
	c.JSON(http.StatusOK, payment)
}

// ListPayments maneja GET /api/payments?limit=N.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "limit must be an integer"})
			return
		}
		limit = n
	}

	payments, err := h.payments.List(c.Request.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error("list payments failed", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load payments"})
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	c.JSON(http.StatusOK, payments)
}
