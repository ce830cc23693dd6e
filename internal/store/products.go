package store

import (
	"context"
	"fmt"
	"strconv"

	"shop-service/internal/models"
)

// ProductFilter narrows the catalog listing
type ProductFilter struct {
	CategoryID int64
	Search     string
	Page       int
	Limit      int
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (product_code, title, description, image_path, price, category_id, manufacturer, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, p, query,
		p.ProductCode, p.Title, p.Description, p.ImagePath, p.Price, p.CategoryID, p.Manufacturer, p.Available)
	return translateErr(err)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &product, nil
}

// ListProducts retrieves products matching the filter, newest first
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE available = TRUE"
	args := []interface{}{}

	if f.CategoryID != 0 {
		args = append(args, f.CategoryID)
		query += " AND category_id = $" + strconv.Itoa(len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		query += " AND (title ILIKE $" + n + " OR description ILIKE $" + n +
			" OR manufacturer ILIKE $" + n + " OR product_code ILIKE $" + n + ")"
	}

	args = append(args, f.Limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, (f.Page-1)*f.Limit)
	query += " OFFSET $" + strconv.Itoa(len(args))

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// UpdateProduct replaces all mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET product_code = $1, title = $2, description = $3, image_path = $4,
		    price = $5, category_id = $6, manufacturer = $7, available = $8
		WHERE id = $9`,
		p.ProductCode, p.Title, p.Description, p.ImagePath, p.Price, p.CategoryID, p.Manufacturer, p.Available, p.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product from the catalog
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
