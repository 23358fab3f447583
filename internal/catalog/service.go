package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pos_sales/internal/storage"
)

// ErrNotFound is returned when a product with the given ID does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInvalidProduct is returned when a product fails validation.
var ErrInvalidProduct = errors.New("invalid product")

// Source fetches the authoritative product list from outside the service.
type Source interface {
	FetchProducts(ctx context.Context) ([]Product, error)
}

// Input carries the editable fields of a product.
type Input struct {
	Name           string
	RetailPrice    decimal.Decimal
	WholesalePrice decimal.Decimal
	Category       string
}

// Service manages the product catalog stored as one snapshot.
type Service struct {
	products *storage.Collection[Product]
	source   Source
	logger   *zap.Logger
}

// NewService creates a new catalog Service. source may be nil, in which
// case Refresh only reloads the local snapshot.
func NewService(store storage.Store, source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products: storage.NewCollection[Product](store, storage.KeyProducts),
		source:   source,
		logger:   logger,
	}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	if err := validate(in); err != nil {
		return Product{}, err
	}

	products, err := s.List(ctx)
	if err != nil {
		return Product{}, err
	}

	product := Product{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		RetailPrice:    in.RetailPrice,
		WholesalePrice: in.WholesalePrice,
		Category:       strings.TrimSpace(in.Category),
	}

	if err := s.products.Save(ctx, append(products, product)); err != nil {
		s.logger.Error("failed to save product", zap.String("product_id", product.ID), zap.Error(err))
		return Product{}, fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Product, error) {
	if err := validate(in); err != nil {
		return Product{}, err
	}

	products, err := s.List(ctx)
	if err != nil {
		return Product{}, err
	}

	idx := indexOf(products, id)
	if idx < 0 {
		return Product{}, ErrNotFound
	}

	products[idx].Name = strings.TrimSpace(in.Name)
	products[idx].RetailPrice = in.RetailPrice
	products[idx].WholesalePrice = in.WholesalePrice
	products[idx].Category = strings.TrimSpace(in.Category)

	if err := s.products.Save(ctx, products); err != nil {
		s.logger.Error("failed to update product", zap.String("product_id", id), zap.Error(err))
		return Product{}, fmt.Errorf("failed to update product: %w", err)
	}

	return products[idx], nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	products, err := s.List(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(products, id)
	if idx < 0 {
		return ErrNotFound
	}

	products = append(products[:idx], products[idx+1:]...)
	if err := s.products.Save(ctx, products); err != nil {
		s.logger.Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// Refresh replaces the local catalog with the remote one. When the source
// is missing or fails, the locally stored catalog is returned instead.
func (s *Service) Refresh(ctx context.Context) ([]Product, error) {
	if s.source == nil {
		return s.List(ctx)
	}

	remote, err := s.source.FetchProducts(ctx)
	if err != nil {
		s.logger.Warn("remote catalog unavailable, using local snapshot", zap.Error(err))
		return s.List(ctx)
	}

	if err := s.products.Save(ctx, remote); err != nil {
		s.logger.Error("failed to store remote catalog", zap.Error(err))
		return nil, fmt.Errorf("failed to store remote catalog: %w", err)
	}

	s.logger.Info("catalog refreshed from remote source", zap.Int("products", len(remote)))
	return remote, nil
}

func validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.RetailPrice.IsNegative() || in.WholesalePrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidProduct)
	}
	return nil
}

func indexOf(products []Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
