package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/pkg/apperr"
)

// ProductFilter narrows ListProducts. A zero CategoryID lists everything.
type ProductFilter struct {
	CategoryID uint
}

// CreateProduct persists p. An unknown categoryId is a ConstraintError and
// nothing is written.
func (s *Store) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	p.ID = 0
	p.Category = nil
	err := s.run(ctx, "create_product", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := categoryMustExist(tx, p.CategoryID); err != nil {
				return err
			}
			return tx.Create(&p).Error
		})
	})
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (s *Store) FindProduct(ctx context.Context, id uint) (models.Product, bool, error) {
	return findOne[models.Product](ctx, s, "find_product", "id = ?", id)
}

// ListProducts returns products in id order, optionally for one category.
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	err := s.run(ctx, "list_products", func(tx *gorm.DB) error {
		q := tx.Order("id asc")
		if filter.CategoryID != 0 {
			q = q.Where("category_id = ?", filter.CategoryID)
		}
		return q.Find(&products).Error
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct replaces every field of product id with p. The product must
// exist (NotFoundError) and p.CategoryID must reference a category
// (ConstraintError). Like UpdateCategory it never inserts.
func (s *Store) UpdateProduct(ctx context.Context, id uint, p models.Product) (models.Product, error) {
	p.Category = nil
	err := s.run(ctx, "update_product", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := exists[models.Product](tx, "product", id); err != nil {
				return err
			}
			if err := categoryMustExist(tx, p.CategoryID); err != nil {
				return err
			}
			p.ID = id
			return updateAll(tx, "product", id, &p)
		})
	})
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// DeleteProduct removes product id; deleted is false when it did not exist.
func (s *Store) DeleteProduct(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.run(ctx, "delete_product", func(tx *gorm.DB) error {
		res := tx.Delete(&models.Product{}, id)
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func categoryMustExist(tx *gorm.DB, categoryID uint) error {
	err := exists[models.Category](tx, "category", categoryID)
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return apperr.Constraint(fmt.Sprintf("Category %d does not exist", categoryID), nil)
	}
	return err
}
