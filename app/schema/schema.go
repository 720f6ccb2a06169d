// Package schema defines the insertable shape of every entity: the persisted
// fields minus the server-assigned ones (id, createdAt). Each input carries
// declarative validation rules and converts itself into its model.
package schema

import (
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/pkg/bind"
)

// Decode reads a JSON payload into a fresh T, normalises it and validates it.
// The error is always an *apperr.ValidationError.
func Decode[T any](body io.Reader) (T, error) {
	var in T
	if err := bind.Decode(body, &in); err != nil {
		var zero T
		return zero, err
	}
	return in, nil
}

func DecodeCategory(body io.Reader) (CategoryInput, error) { return Decode[CategoryInput](body) }

func DecodeProduct(body io.Reader) (ProductInput, error) { return Decode[ProductInput](body) }

func DecodeInquiry(body io.Reader) (InquiryInput, error) { return Decode[InquiryInput](body) }

func DecodeContactSettings(body io.Reader) (ContactSettingsInput, error) {
	return Decode[ContactSettingsInput](body)
}

func DecodeUser(body io.Reader) (UserInput, error) { return Decode[UserInput](body) }

func DecodeLogin(body io.Reader) (LoginInput, error) { return Decode[LoginInput](body) }

// ── Category ─────────────────────────────────────────────────────────────────

type CategoryInput struct {
	Name                string `json:"name"                validate:"required,max=200"`
	Description         string `json:"description"         validate:"max=5000"`
	MainImage           string `json:"mainImage"           validate:"required,url"`
	TitleTranslationKey string `json:"titleTranslationKey" validate:"max=255"`
}

// Normalize trims the input and derives the translation key the site uses
// when the admin leaves it blank.
func (in *CategoryInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.MainImage = strings.TrimSpace(in.MainImage)
	in.TitleTranslationKey = strings.TrimSpace(in.TitleTranslationKey)
	if in.TitleTranslationKey == "" && in.Name != "" {
		in.TitleTranslationKey = "products." + in.Name
	}
}

func (in CategoryInput) ToModel() models.Category {
	return models.Category{
		Name:                in.Name,
		Description:         in.Description,
		MainImage:           in.MainImage,
		TitleTranslationKey: in.TitleTranslationKey,
	}
}

// ── Product ──────────────────────────────────────────────────────────────────

type ProductInput struct {
	CategoryID  uint   `json:"categoryId"  validate:"required,gt=0"`
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Image       string `json:"image"       validate:"required,url"`
}

func (in *ProductInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
}

func (in ProductInput) ToModel() models.Product {
	return models.Product{
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
	}
}

// ── Inquiry ──────────────────────────────────────────────────────────────────

type InquiryInput struct {
	Name    string `json:"name"    validate:"required,max=120"`
	Email   string `json:"email"   validate:"required,email,max=254"`
	Phone   string `json:"phone"   validate:"required,max=40"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (in *InquiryInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)
}

func (in InquiryInput) ToModel() models.Inquiry {
	return models.Inquiry{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Message: in.Message,
	}
}

// ── Contact settings ─────────────────────────────────────────────────────────

type ContactSettingsInput struct {
	Phone        string            `json:"phone"        validate:"required,max=40"`
	Email        string            `json:"email"        validate:"required,email"`
	Address      string            `json:"address"      validate:"required,max=500"`
	MapURL       string            `json:"mapUrl"       validate:"required,url"`
	SocialLinks  map[string]string `json:"socialLinks"  validate:"nullable,url"`
	WorkingHours map[string]string `json:"workingHours"`
}

// Normalize trims every value and drops social platforms left blank, so an
// absent key and an empty one mean the same thing.
func (in *ContactSettingsInput) Normalize() {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.MapURL = strings.TrimSpace(in.MapURL)

	trim := func(v string, _ string) string { return strings.TrimSpace(v) }
	in.SocialLinks = lo.OmitByValues(lo.MapValues(in.SocialLinks, trim), []string{""})
	in.WorkingHours = lo.MapValues(in.WorkingHours, trim)
}

func (in ContactSettingsInput) ToModel() models.ContactSettings {
	social := in.SocialLinks
	if social == nil {
		social = map[string]string{}
	}
	hours := in.WorkingHours
	if hours == nil {
		hours = map[string]string{}
	}
	return models.ContactSettings{
		Phone:        in.Phone,
		Email:        in.Email,
		Address:      in.Address,
		MapURL:       in.MapURL,
		SocialLinks:  social,
		WorkingHours: hours,
	}
}

// ── Users / auth ─────────────────────────────────────────────────────────────

type UserInput struct {
	Username string `json:"username" validate:"required,alpha_dash,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"nullable,in=admin,user"`
}

func (in *UserInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = models.RoleAdmin
	}
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (in *LoginInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
}
