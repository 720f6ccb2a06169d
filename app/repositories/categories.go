package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/pkg/apperr"
)

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	c.ID = 0
	err := s.run(ctx, "create_category", func(tx *gorm.DB) error {
		return tx.Create(&c).Error
	})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

func (s *Store) FindCategory(ctx context.Context, id uint) (models.Category, bool, error) {
	return findOne[models.Category](ctx, s, "find_category", "id = ?", id)
}

// ListCategories returns every category in id order.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.run(ctx, "list_categories", func(tx *gorm.DB) error {
		return tx.Order("id asc").Find(&categories).Error
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory replaces every field of category id with c. It never
// inserts: a category deleted concurrently stays deleted (NotFoundError).
func (s *Store) UpdateCategory(ctx context.Context, id uint, c models.Category) (models.Category, error) {
	c.ID = id
	err := s.run(ctx, "update_category", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			return updateAll(tx, "category", id, &c)
		})
	})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes category id. Categories that still own products are
// refused with a ConstraintError; a missing id reports deleted=false.
func (s *Store) DeleteCategory(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.run(ctx, "delete_category", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperr.Constraint(
					fmt.Sprintf("Category %d still has %d product(s); delete or move them first", id, n), nil)
			}
			res := tx.Delete(&models.Category{}, id)
			deleted = res.RowsAffected > 0
			return res.Error
		})
	})
	return deleted, err
}

// updateAll writes every column of row onto the existing T with the given id.
// Zero affected rows is either a vanished row or, on drivers that count only
// changed rows, an identical write; exists tells them apart.
func updateAll[T any](tx *gorm.DB, entity string, id uint, row *T) error {
	res := tx.Model(row).Where("id = ?", id).Select("*").Omit(clause.Associations).Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return exists[T](tx, entity, id)
	}
	return nil
}

// exists returns a NotFoundError unless a T with the given id is present.
func exists[T any](tx *gorm.DB, entity string, id uint) error {
	var n int64
	if err := tx.Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}
