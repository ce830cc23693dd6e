package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrNegativePrice    = errors.New("price must not be negative")
)

const defaultImagePath = "/images/default-product.jpg"

// CatalogStore is the persistence surface the catalog service needs
type CatalogStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// CatalogService manages products and categories
type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store, logger: util.GetLogger()}
}

// ProductInput carries the writable product fields
type ProductInput struct {
	ProductCode  string `json:"product_code" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description" binding:"required"`
	ImagePath    string `json:"image_path"`
	Price        int64  `json:"price"`
	CategoryID   int64  `json:"category_id" binding:"required"`
	Manufacturer string `json:"manufacturer" binding:"required"`
	Available    *bool  `json:"available"`
}

// CreateProduct validates and persists a new product
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Price < 0 {
		return nil, ErrNegativePrice
	}
	if _, err := s.store.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("check category: %w", err)
	}

	p := &models.Product{
		ProductCode:  in.ProductCode,
		Title:        in.Title,
		Description:  in.Description,
		ImagePath:    in.ImagePath,
		Price:        in.Price,
		CategoryID:   in.CategoryID,
		Manufacturer: in.Manufacturer,
		Available:    true,
	}
	if p.ImagePath == "" {
		p.ImagePath = defaultImagePath
	}
	if in.Available != nil {
		p.Available = *in.Available
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("code", p.ProductCode))
	return p, nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListProducts retrieves available products matching the filter
func (s *CatalogService) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return s.store.ListProducts(ctx, f)
}

// UpdateProduct applies a full product update
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	if in.Price < 0 {
		return nil, ErrNegativePrice
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	p.ProductCode = in.ProductCode
	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price
	p.CategoryID = in.CategoryID
	p.Manufacturer = in.Manufacturer
	if in.ImagePath != "" {
		p.ImagePath = in.ImagePath
	}
	if in.Available != nil {
		p.Available = *in.Available
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.store.DeleteProduct(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

// CategoryInput carries the writable category fields
type CategoryInput struct {
	Title string `json:"title" binding:"required"`
	Slug  string `json:"slug"`
}

// NewCategory builds a category, deriving the slug from the title when it
// was not supplied. Slug derivation is an explicit factory concern, not a
// persistence hook.
func NewCategory(in CategoryInput) *models.Category {
	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Title)
	}
	return &models.Category{Title: in.Title, Slug: slug}
}

// Slugify lowercases the title and collapses non-alphanumeric runs into
// single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CreateCategory persists a new category
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c := NewCategory(in)
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory retrieves a category by ID
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListCategories retrieves all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// UpdateCategory applies a category update, re-deriving the slug when absent
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*models.Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Title = in.Title
	c.Slug = in.Slug
	if c.Slug == "" {
		c.Slug = Slugify(in.Title)
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.store.DeleteCategory(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return ErrCategoryNotFound
	}
	return err
}
