package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/pkg/apperr"
)

// CreateUser persists u (Password must already be hashed). A taken username
// is a ConstraintError.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.ID = 0
	if u.Role == "" {
		u.Role = models.RoleAdmin
	}
	err := s.run(ctx, "create_user", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperr.Constraint("The username has already been taken", nil)
			}
			return tx.Create(&u).Error
		})
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (models.User, bool, error) {
	return findOne[models.User](ctx, s, "find_user", "id = ?", id)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, bool, error) {
	return findOne[models.User](ctx, s, "find_user_by_username", "username = ?", username)
}

// ListUsers returns every account ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.run(ctx, "list_users", func(tx *gorm.DB) error {
		return tx.Order("id asc").Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// findOne loads the first row matching cond. Absence is (zero, false, nil).
func findOne[T any](ctx context.Context, s *Store, op string, cond string, args ...interface{}) (T, bool, error) {
	var row T
	err := s.run(ctx, op, func(tx *gorm.DB) error {
		return tx.Where(cond, args...).First(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return row, true, nil
}
