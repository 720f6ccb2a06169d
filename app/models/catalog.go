package models

// Category groups rentable products (arches, table settings, lighting...).
type Category struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	Name                string `gorm:"type:text;not null" json:"name"`
	Description         string `gorm:"type:text;not null" json:"description"`
	MainImage           string `gorm:"type:text;not null" json:"mainImage"`
	TitleTranslationKey string `gorm:"type:text;not null;default:''" json:"titleTranslationKey"`
}

// Product is a single rentable item shown in a category gallery. A category
// that still has products cannot be deleted.
type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CategoryID  uint   `gorm:"not null;index" json:"categoryId"`
	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Image       string `gorm:"type:text;not null" json:"image"`

	Category *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
