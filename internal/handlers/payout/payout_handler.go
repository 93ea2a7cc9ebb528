// internal/handlers/payout/payout_handler.go
package payout

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/middleware"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/response"
	service "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/payout"

	"github.com/gin-gonic/gin"
)

type PayoutHandler struct {
	dispatcherService *service.DispatcherService
}

func NewPayoutHandler(dispatcherService *service.DispatcherService) *PayoutHandler {
	return &PayoutHandler{dispatcherService: dispatcherService}
}

// ListMine returns the authenticated seller's payouts
func (h *PayoutHandler) ListMine(c *gin.Context) {
	sellerID := middleware.MustGetUserID(c)

	result, err := h.dispatcherService.ListBySeller(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list payouts", err)
		return
	}

	response.Success(c, http.StatusOK, "payouts retrieved", result)
}

// ListPending returns payouts awaiting dispatch or manual retry (admin)
func (h *PayoutHandler) ListPending(c *gin.Context) {
	result, err := h.dispatcherService.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list pending payouts", err)
		return
	}

	response.Success(c, http.StatusOK, "pending payouts retrieved", result)
}

// Retry re-dispatches a payout whose earlier dispatch was rejected (admin)
func (h *PayoutHandler) Retry(c *gin.Context) {
	payoutID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payout ID", err)
		return
	}

	p, err := h.dispatcherService.Retry(c.Request.Context(), payoutID)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "payout not found")
		case errors.Is(err, xerrors.ErrConflict):
			response.Error(c, http.StatusConflict, "payout is not pending", err)
		case errors.Is(err, xerrors.ErrPayoutRejected):
			// The failure reason is recorded on the payout for audit.
			response.Error(c, http.StatusBadGateway, "payout rejected by gateway", err)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to retry payout", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "payout dispatched", p)
}

// SyncStatus refreshes a dispatched payout from the gateway transfer state (admin)
func (h *PayoutHandler) SyncStatus(c *gin.Context) {
	payoutID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payout ID", err)
		return
	}

	p, err := h.dispatcherService.SyncStatus(c.Request.Context(), payoutID)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "payout not found")
		case errors.Is(err, xerrors.ErrConflict):
			response.Error(c, http.StatusConflict, "payout has no transfer in flight", err)
		case errors.Is(err, xerrors.ErrGatewayUnavailable):
			response.Error(c, http.StatusBadGateway, "gateway unavailable", err)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to sync payout status", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "payout status synced", p)
}
