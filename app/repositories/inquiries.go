package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/decorhub/decorhub/app/models"
)

// CreateInquiry stores a contact-form submission. CreatedAt is always set
// here; whatever the caller put in it is ignored.
func (s *Store) CreateInquiry(ctx context.Context, inq models.Inquiry) (models.Inquiry, error) {
	inq.ID = 0
	inq.CreatedAt = s.now()
	err := s.run(ctx, "create_inquiry", func(tx *gorm.DB) error {
		return tx.Create(&inq).Error
	})
	if err != nil {
		return models.Inquiry{}, err
	}
	return inq, nil
}

// ListInquiries returns every inquiry, newest first.
func (s *Store) ListInquiries(ctx context.Context) ([]models.Inquiry, error) {
	inquiries := []models.Inquiry{}
	err := s.run(ctx, "list_inquiries", func(tx *gorm.DB) error {
		return tx.Order("created_at desc").Order("id desc").Find(&inquiries).Error
	})
	if err != nil {
		return nil, err
	}
	return inquiries, nil
}
