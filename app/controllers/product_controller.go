package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/bind"
	"github.com/decorhub/decorhub/pkg/ctx"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	FindProduct(ctx context.Context, id uint) (models.Product, bool, error)
	ListProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uint, p models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, id uint) (bool, error)
}

const productNotFound = "Product not found"

type ProductController struct {
	store ProductStore
}

func NewProductController(store ProductStore) *ProductController {
	return &ProductController{store: store}
}

// Index GET /api/products[?categoryId=N], GET /api/admin/products
func (pc *ProductController) Index(c *ctx.Context) {
	var filter repositories.ProductFilter
	if raw := c.Query("categoryId"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			c.Fail(apperr.Validation(apperr.FieldError{
				Field:   "categoryId",
				Message: "The categoryId must be a positive integer.",
			}))
			return
		}
		filter.CategoryID = uint(n)
	}
	list, err := pc.store.ListProducts(c.Context(), filter)
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(list)
}

// Show GET /api/products/{id}
func (pc *ProductController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound(productNotFound)
		return
	}
	p, found, err := pc.store.FindProduct(c.Context(), id)
	switch {
	case err != nil:
		c.Fail(err)
	case !found:
		c.NotFound(productNotFound)
	default:
		c.OK(p)
	}
}

// Store POST /api/admin/products
func (pc *ProductController) Store(c *ctx.Context) {
	in, err := schema.DecodeProduct(bind.Body(c.R))
	if err != nil {
		c.Fail(err)
		return
	}
	p, err := pc.store.CreateProduct(c.Context(), in.ToModel())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

// Update PUT /api/admin/products/{id}
func (pc *ProductController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound(productNotFound)
		return
	}
	in, err := schema.DecodeProduct(bind.Body(c.R))
	if err != nil {
		c.Fail(err)
		return
	}
	p, err := pc.store.UpdateProduct(c.Context(), id, in.ToModel())
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(p)
}

// Destroy DELETE /api/admin/products/{id}
func (pc *ProductController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound(productNotFound)
		return
	}
	deleted, err := pc.store.DeleteProduct(c.Context(), id)
	switch {
	case err != nil:
		c.Fail(err)
	case !deleted:
		c.NotFound(productNotFound)
	default:
		c.Message(http.StatusOK, "Product deleted")
	}
}
