package service

import (
	"context"
	"testing"

	"shop-service/internal/models"
	"shop-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogStore struct {
	products   map[int64]*models.Product
	categories map[int64]*models.Category
	nextID     int64
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		products:   make(map[int64]*models.Product),
		categories: make(map[int64]*models.Category),
		nextID:     1,
	}
}

func (f *fakeCatalogStore) CreateProduct(ctx context.Context, p *models.Product) error {
	p.ID = f.nextID
	f.nextID++
	f.products[p.ID] = p
	return nil
}

func (f *fakeCatalogStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalogStore) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalogStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return models.ErrNotFound
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeCatalogStore) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeCatalogStore) CreateCategory(ctx context.Context, c *models.Category) error {
	c.ID = f.nextID
	f.nextID++
	f.categories[c.ID] = c
	return nil
}

func (f *fakeCatalogStore) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (f *fakeCatalogStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCatalogStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return models.ErrNotFound
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeCatalogStore) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "mobile-phones", Slugify("Mobile Phones"))
	assert.Equal(t, "tv-audio", Slugify("TV & Audio"))
	assert.Equal(t, "usb-c-cables-2m", Slugify("  USB-C Cables (2m)!  "))
	assert.Equal(t, "laptops", Slugify("Laptops"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestCreateCategoryDerivesSlug(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogStore())
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, CategoryInput{Title: "Home Appliances"})
	require.NoError(t, err)
	assert.Equal(t, "home-appliances", c.Slug)

	c, err = svc.CreateCategory(ctx, CategoryInput{Title: "Phones", Slug: "smart-phones"})
	require.NoError(t, err)
	assert.Equal(t, "smart-phones", c.Slug)
}

func TestCreateProduct(t *testing.T) {
	fake := newFakeCatalogStore()
	svc := NewCatalogService(fake)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CategoryInput{Title: "Phones"})
	require.NoError(t, err)

	p, err := svc.CreateProduct(ctx, ProductInput{
		ProductCode:  "P-100",
		Title:        "Phone",
		Description:  "A phone",
		Price:        50000,
		CategoryID:   category.ID,
		Manufacturer: "Acme",
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.True(t, p.Available)
	assert.NotEmpty(t, p.ImagePath)

	_, err = svc.CreateProduct(ctx, ProductInput{
		ProductCode:  "P-101",
		Title:        "Bad",
		Description:  "negative",
		Price:        -1,
		CategoryID:   category.ID,
		Manufacturer: "Acme",
	})
	assert.ErrorIs(t, err, ErrNegativePrice)

	_, err = svc.CreateProduct(ctx, ProductInput{
		ProductCode:  "P-102",
		Title:        "Orphan",
		Description:  "no category",
		Price:        1000,
		CategoryID:   999,
		Manufacturer: "Acme",
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	fake := newFakeCatalogStore()
	svc := NewCatalogService(fake)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CategoryInput{Title: "Phones"})
	require.NoError(t, err)

	p, err := svc.CreateProduct(ctx, ProductInput{
		ProductCode:  "P-100",
		Title:        "Phone",
		Description:  "A phone",
		Price:        50000,
		CategoryID:   category.ID,
		Manufacturer: "Acme",
	})
	require.NoError(t, err)

	available := false
	updated, err := svc.UpdateProduct(ctx, p.ID, ProductInput{
		ProductCode:  "P-100",
		Title:        "Phone v2",
		Description:  "A better phone",
		Price:        60000,
		CategoryID:   category.ID,
		Manufacturer: "Acme",
		Available:    &available,
	})
	require.NoError(t, err)
	assert.Equal(t, "Phone v2", updated.Title)
	assert.Equal(t, int64(60000), updated.Price)
	assert.False(t, updated.Available)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = svc.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
