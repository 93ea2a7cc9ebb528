// internal/handlers/product/product_handler.go
package product

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/seller"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/middleware"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/response"
	service "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	catalogService *service.CatalogService
}

func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// ListApproved returns purchasable products
func (h *ProductHandler) ListApproved(c *gin.Context) {
	result, err := h.catalogService.ListApproved(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list products", err)
		return
	}
	response.Success(c, http.StatusOK, "products retrieved", result)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid product ID", err)
		return
	}

	p, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "product not found")
		return
	}
	response.Success(c, http.StatusOK, "product retrieved", p)
}

// CreateProduct registers a seller's new product (stays PENDING until approved)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	sellerID := middleware.MustGetUserID(c)

	var input product.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.catalogService.CreateProduct(c.Request.Context(), sellerID, &input)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to create product", err)
		return
	}
	response.Success(c, http.StatusCreated, "product created", p)
}

// ListMine returns the seller's own products
func (h *ProductHandler) ListMine(c *gin.Context) {
	sellerID := middleware.MustGetUserID(c)

	result, err := h.catalogService.ListSellerProducts(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list products", err)
		return
	}
	response.Success(c, http.StatusOK, "products retrieved", result)
}

// UpdatePayoutDetails stores the seller's mobile money destination
func (h *ProductHandler) UpdatePayoutDetails(c *gin.Context) {
	sellerID := middleware.MustGetUserID(c)

	var input seller.UpdatePayoutDetailsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.catalogService.UpdatePayoutDetails(c.Request.Context(), sellerID, &input); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to update payout details", err)
		return
	}
	response.Success(c, http.StatusOK, "payout details updated", nil)
}

// ListPendingApproval returns products awaiting review (admin)
func (h *ProductHandler) ListPendingApproval(c *gin.Context) {
	result, err := h.catalogService.ListPendingApproval(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list pending products", err)
		return
	}
	response.Success(c, http.StatusOK, "pending products retrieved", result)
}

// SetStatus approves or rejects a product (admin)
func (h *ProductHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid product ID", err)
		return
	}

	var input struct {
		Status product.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.catalogService.SetProductStatus(c.Request.Context(), id, input.Status); err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "product not found")
		case errors.Is(err, xerrors.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "invalid status", err)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to update product", err)
		}
		return
	}
	response.Success(c, http.StatusOK, "product status updated", nil)
}
