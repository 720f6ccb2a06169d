package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/decorhub/decorhub/app/models"
)

// GetContactSettings returns the singleton row, found=false before the first
// upsert.
func (s *Store) GetContactSettings(ctx context.Context) (models.ContactSettings, bool, error) {
	return findOne[models.ContactSettings](ctx, s, "get_contact_settings", "1 = 1")
}

// UpsertContactSettings overwrites the singleton row, creating it on first
// use. The insert targets the fixed id with ON CONFLICT so two first writers
// still leave exactly one row.
func (s *Store) UpsertContactSettings(ctx context.Context, cs models.ContactSettings) (models.ContactSettings, error) {
	err := s.run(ctx, "upsert_contact_settings", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var current models.ContactSettings
			res := tx.Order("id asc").Limit(1).Find(&current)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				cs.ID = current.ID
				return tx.Save(&cs).Error
			}
			cs.ID = models.ContactSettingsID
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&cs).Error
		})
	})
	if err != nil {
		return models.ContactSettings{}, err
	}
	return cs, nil
}
