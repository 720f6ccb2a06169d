package controllers

import (
	"context"
	"net/http"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/pkg/bind"
	"github.com/decorhub/decorhub/pkg/ctx"
)

type CategoryStore interface {
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	FindCategory(ctx context.Context, id uint) (models.Category, bool, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uint, c models.Category) (models.Category, error)
	DeleteCategory(ctx context.Context, id uint) (bool, error)
	ListProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error)
}

const categoryNotFound = "Category not found"

type CategoryController struct {
	store CategoryStore
}

func NewCategoryController(store CategoryStore) *CategoryController {
	return &CategoryController{store: store}
}

// Index GET /api/categories, GET /api/admin/categories
func (cc *CategoryController) Index(c *ctx.Context) {
	list, err := cc.store.ListCategories(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(list)
}

// Show GET /api/categories/{id}
func (cc *CategoryController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound(categoryNotFound)
		return
	}
	cat, found, err := cc.store.FindCategory(c.Context(), id)
	switch {
	case err != nil:
		c.Fail(err)
	case !found:
		c.NotFound(categoryNotFound)
	default:
		c.OK(cat)
	}
}

// Products GET /api/categories/{id}/products
func (cc *CategoryController) Products(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound(categoryNotFound)
		return
	}
	_, found, err := cc.store.FindCategory(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	if !found {
		c.NotFound(categoryNotFound)
		return
	}
	list, err := cc.store.ListProducts(c.Context(), repositories.ProductFilter{CategoryID: id})
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(list)
}

// Store POST /api/admin/categories
func (cc *CategoryController) Store(c *ctx.Context) {
	in, err := schema.DecodeCategory(bind.Body(c.R))
	if err != nil {
		c.Fail(err)
		return
	}
	cat, err := cc.store.CreateCategory(c.Context(), in.ToModel())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(cat)
}

// Update PUT /api/admin/categories/{id}
func (cc *CategoryController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound(categoryNotFound)
		return
	}
	in, err := schema.DecodeCategory(bind.Body(c.R))
	if err != nil {
		c.Fail(err)
		return
	}
	cat, err := cc.store.UpdateCategory(c.Context(), id, in.ToModel())
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(cat)
}

// Destroy DELETE /api/admin/categories/{id}
func (cc *CategoryController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound(categoryNotFound)
		return
	}
	deleted, err := cc.store.DeleteCategory(c.Context(), id)
	switch {
	case err != nil:
		c.Fail(err)
	case !deleted:
		c.NotFound(categoryNotFound)
	default:
		c.Message(http.StatusOK, "Category deleted")
	}
}
