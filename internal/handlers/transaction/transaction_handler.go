// internal/handlers/transaction/transaction_handler.go
package transaction

import (
	"net/http"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/middleware"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/response"
	service "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/ledger"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	ledgerService *service.LedgerService
}

func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// ListPurchases returns the authenticated buyer's purchase attempts
func (h *TransactionHandler) ListPurchases(c *gin.Context) {
	buyerID := middleware.MustGetUserID(c)

	var filters transaction.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.ledgerService.ListPurchases(c.Request.Context(), buyerID, &filters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list purchases", err)
		return
	}

	response.Success(c, http.StatusOK, "purchases retrieved", result)
}

// ListSales returns the authenticated seller's sales
func (h *TransactionHandler) ListSales(c *gin.Context) {
	sellerID := middleware.MustGetUserID(c)

	var filters transaction.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.ledgerService.ListSales(c.Request.Context(), sellerID, &filters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list sales", err)
		return
	}

	response.Success(c, http.StatusOK, "sales retrieved", result)
}

// GetSalesSummary returns the seller's completed-sales aggregates
func (h *TransactionHandler) GetSalesSummary(c *gin.Context) {
	sellerID := middleware.MustGetUserID(c)

	summary, err := h.ledgerService.SalesSummary(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load sales summary", err)
		return
	}

	response.Success(c, http.StatusOK, "sales summary retrieved", summary)
}
