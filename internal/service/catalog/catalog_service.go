// internal/service/catalog/catalog_service.go
package catalog

import (
	"context"
	"fmt"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/seller"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/repository/postgres"

	"go.uber.org/zap"
)

// CatalogService covers the minimal product and seller-profile surface
// the settlement pipeline depends on: purchasability, pricing, and the
// seller's payout details.
type CatalogService struct {
	products *postgres.ProductRepository
	sellers  *postgres.SellerRepository
	logger   *zap.Logger
}

func NewCatalogService(products *postgres.ProductRepository, sellers *postgres.SellerRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{products: products, sellers: sellers, logger: logger}
}

// CreateProduct registers a new product; it stays PENDING until an admin
// approves it for sale.
func (s *CatalogService) CreateProduct(ctx context.Context, sellerID int64, input *product.CreateInput) (*product.Product, error) {
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", xerrors.ErrInvalidInput)
	}

	p := &product.Product{
		SellerID:    sellerID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Status:      product.StatusPending,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) ListApproved(ctx context.Context) ([]product.Product, error) {
	return s.products.ListByStatus(ctx, product.StatusApproved)
}

func (s *CatalogService) ListPendingApproval(ctx context.Context) ([]product.Product, error) {
	return s.products.ListByStatus(ctx, product.StatusPending)
}

func (s *CatalogService) ListSellerProducts(ctx context.Context, sellerID int64) ([]product.Product, error) {
	return s.products.ListBySeller(ctx, sellerID)
}

// SetProductStatus is the admin approval/rejection switch.
func (s *CatalogService) SetProductStatus(ctx context.Context, id int64, status product.Status) error {
	if status != product.StatusApproved && status != product.StatusRejected {
		return fmt.Errorf("%w: status must be APPROVED or REJECTED", xerrors.ErrInvalidInput)
	}

	if err := s.products.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("product status changed",
		zap.Int64("product_id", id),
		zap.String("status", string(status)),
	)
	return nil
}

// UpdatePayoutDetails stores the seller's mobile-money destination.
func (s *CatalogService) UpdatePayoutDetails(ctx context.Context, sellerID int64, input *seller.UpdatePayoutDetailsInput) error {
	return s.sellers.UpsertPayoutDetails(ctx, sellerID, input.MobileMoneyNumber, input.MobileMoneyProvider)
}

func (s *CatalogService) GetSellerProfile(ctx context.Context, sellerID int64) (*seller.Profile, error) {
	return s.sellers.FindProfile(ctx, sellerID)
}
