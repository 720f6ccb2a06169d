package models

// ContactSettingsID is the primary key of the single contact_settings row.
const ContactSettingsID uint = 1

// ContactSettings holds the business contact details shown on the site.
// Only one row exists.
type ContactSettings struct {
	ID           uint              `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Phone        string            `gorm:"type:text;not null" json:"phone"`
	Email        string            `gorm:"type:text;not null" json:"email"`
	Address      string            `gorm:"type:text;not null" json:"address"`
	MapURL       string            `gorm:"column:map_url;type:text;not null" json:"mapUrl"`
	SocialLinks  map[string]string `gorm:"type:text;serializer:json" json:"socialLinks"`
	WorkingHours map[string]string `gorm:"type:text;serializer:json" json:"workingHours"`
}

func (ContactSettings) TableName() string { return "contact_settings" }
