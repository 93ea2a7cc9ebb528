// internal/handlers/payment/payment_handler.go
package payment

import (
	"errors"
	"net/http"
	"time"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/middleware"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/ratelimit"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/response"
	service "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	limiter        *ratelimit.Limiter
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, limiter *ratelimit.Limiter, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, limiter: limiter, logger: logger}
}

// Initialize starts a purchase: reserves the transaction and returns
// either a card payment link or a mobile money charge handle.
func (h *PaymentHandler) Initialize(c *gin.Context) {
	buyerID := middleware.MustGetUserID(c)

	allowed, err := h.limiter.CheckEndpoint(c.Request.Context(), buyerID, "payments:initialize", 10, time.Minute)
	if err != nil {
		h.logger.Warn("payment rate limit check failed", zap.Error(err))
	} else if !allowed {
		response.Error(c, http.StatusTooManyRequests, "too many payment attempts", nil)
		return
	}

	var input transaction.InitializePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.paymentService.Initialize(c.Request.Context(), buyerID, &input)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrDuplicatePurchase):
			response.Error(c, http.StatusConflict, "you already own this product", err)
		case errors.Is(err, xerrors.ErrProductUnavailable):
			response.Error(c, http.StatusBadRequest, "product is not available for purchase", err)
		case errors.Is(err, xerrors.ErrInvalidPaymentMethod):
			response.Error(c, http.StatusBadRequest, "invalid payment method", err)
		case errors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "product not found")
		case errors.Is(err, xerrors.ErrGatewayUnavailable):
			response.Error(c, http.StatusBadGateway, "payment provider unavailable, please retry", err)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to initialize payment", err)
		}
		return
	}

	response.Success(c, http.StatusCreated, "payment initialized", result)
}
