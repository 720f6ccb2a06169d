package migrations

import (
	"gorm.io/gorm"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/pkg/migration"
)

func init() {
	migration.Register("20260301000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260301000001_create_categories_table", &CreateCategoriesTable{})
	migration.Register("20260301000002_create_products_table", &CreateProductsTable{})
	migration.Register("20260301000003_create_inquiries_table", &CreateInquiriesTable{})
	migration.Register("20260301000004_create_contact_settings_table", &CreateContactSettingsTable{})
}

// -------- users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- categories --------

type CreateCategoriesTable struct{}

func (m *CreateCategoriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Category{})
}

func (m *CreateCategoriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("categories")
}

// -------- products --------

// CreateProductsTable adds products with a RESTRICT foreign key to categories.
type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// -------- inquiries --------

type CreateInquiriesTable struct{}

func (m *CreateInquiriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Inquiry{})
}

func (m *CreateInquiriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("inquiries")
}

// -------- contact_settings --------

type CreateContactSettingsTable struct{}

func (m *CreateContactSettingsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.ContactSettings{})
}

func (m *CreateContactSettingsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("contact_settings")
}
