package service

import (
	"context"
	"fmt"

	"ecoshopy/internal/model"
	"ecoshopy/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (s *productService) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to get products by IDs")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("requested", len(ids)).
		Int("found", len(products)).
		Msg("retrieved products by IDs")

	return products, nil
}

// SetDeal prices a product, or one of its variants, at discountPercent off
// its MRP. The MRP must be positive and the resulting price above zero.
func (s *productService) SetDeal(ctx context.Context, id string, req model.DealRequest) (*model.Product, error) {
	if req.DiscountPercent < 0 || req.DiscountPercent >= 100 {
		s.logger.Warn().
			Str("product_id", id).
			Int("discount_percent", req.DiscountPercent).
			Msg("invalid deal discount")
		return nil, model.ErrInvalidDiscount
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mrp := product.MRP
	if req.Variant != "" {
		v, ok := product.Variant(req.Variant)
		if !ok {
			return nil, model.ErrVariantNotFound
		}
		mrp = v.MRP
	}

	price := model.DealPrice(mrp, req.DiscountPercent)
	if !mrp.IsPositive() || !price.IsPositive() {
		s.logger.Warn().
			Str("product_id", id).
			Str("variant", req.Variant).
			Str("mrp", mrp.String()).
			Int("discount_percent", req.DiscountPercent).
			Msg("deal would not leave a positive price")
		return nil, model.ErrInvalidMRP
	}

	if err := s.productRepo.UpdatePricing(ctx, id, req.Variant, price); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to set deal price")
		return nil, fmt.Errorf("failed to set deal: %w", err)
	}

	s.logger.Info().
		Str("product_id", id).
		Str("variant", req.Variant).
		Int("discount_percent", req.DiscountPercent).
		Str("price", price.StringFixed(2)).
		Msg("deal of the day set")

	return s.GetByID(ctx, id)
}
