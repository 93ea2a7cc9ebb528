// internal/handlers/webhook/webhook_handler.go
package webhook

import (
	"errors"
	"io"
	"net/http"

	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/response"
	service "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// signatureHeader carries the provider's hash of the raw body.
const signatureHeader = "verif-hash"

type WebhookHandler struct {
	reconciler *service.ReconcilerService
	logger     *zap.Logger
}

func NewWebhookHandler(reconciler *service.ReconcilerService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, logger: logger}
}

// HandleFlutterwave is the provider-facing settlement callback. Status
// codes are chosen so the provider retries only what is worth retrying:
// signature and shape failures are definitive rejections, verification
// outages return 5xx so the delivery is retried later.
func (h *WebhookHandler) HandleFlutterwave(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read body", err)
		return
	}
	signature := c.GetHeader(signatureHeader)

	outcome, err := h.reconciler.HandleEvent(c.Request.Context(), body, signature)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrInvalidSignature):
			response.Unauthorized(c, "invalid signature")
		case errors.Is(err, xerrors.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "malformed event", err)
		default:
			h.logger.Error("webhook processing failed", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "webhook processing failed", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "webhook processed", gin.H{"outcome": outcome})
}
