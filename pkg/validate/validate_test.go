package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/validate"
)

type inquiryInput struct {
	Name    string `json:"name"    validate:"required,max=120"`
	Email   string `json:"email"   validate:"required,email"`
	Phone   string `json:"phone"   validate:"required,max=40"`
	Message string `json:"message" validate:"required,max=5000"`
}

func fields(errs []apperr.FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(inquiryInput{
		Name:    "Maria",
		Email:   "maria@example.com",
		Phone:   "0712345678",
		Message: "Looking for wedding decor",
	})
	assert.Empty(t, errs)
}

func TestEveryFailingFieldIsReported(t *testing.T) {
	errs := validate.Struct(inquiryInput{Email: "not-an-email"})
	assert.Equal(t, []string{"name", "email", "phone", "message"}, fields(errs))
	assert.Equal(t, "The email must be a valid email address.", errs[1].Message)
}

func TestCheckWrapsValidationError(t *testing.T) {
	err := validate.Check(&inquiryInput{})
	require.Error(t, err)

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 4)

	assert.NoError(t, validate.Check(&inquiryInput{Name: "A", Email: "a@b.co", Phone: "1", Message: "hi"}))
}

func TestNumericRules(t *testing.T) {
	type in struct {
		CategoryID uint `json:"categoryId" validate:"required,gt=0"`
		Qty        int  `json:"qty"        validate:"min=1,max=10"`
	}
	errs := validate.Struct(in{CategoryID: 0, Qty: 11})
	assert.Equal(t, []string{"categoryId", "qty"}, fields(errs))

	assert.Empty(t, validate.Struct(in{CategoryID: 3, Qty: 2}))
}

func TestInRule(t *testing.T) {
	type in struct {
		Role string `json:"role" validate:"required,in=admin,user,max=20"`
	}
	assert.NotEmpty(t, validate.Struct(in{Role: "superadmin"}))
	assert.Empty(t, validate.Struct(in{Role: "admin"}))
	assert.Empty(t, validate.Struct(in{Role: "user"}))
}

func TestNullableSkipsRules(t *testing.T) {
	type in struct {
		Website string `json:"website" validate:"nullable,url"`
	}
	assert.Empty(t, validate.Struct(in{Website: ""}))
	assert.NotEmpty(t, validate.Struct(in{Website: "not-a-url"}))
}

func TestURLRule(t *testing.T) {
	type in struct {
		Image string `json:"image" validate:"required,url"`
	}
	assert.Empty(t, validate.Struct(in{Image: "https://cdn.example.com/arch.jpg"}))
	assert.NotEmpty(t, validate.Struct(in{Image: "arch.jpg"}))
	assert.NotEmpty(t, validate.Struct(in{Image: "ftp://cdn.example.com/arch.jpg"}))
	assert.NotEmpty(t, validate.Struct(in{Image: "https://"}))
}

func TestURLRuleOnMapValues(t *testing.T) {
	type in struct {
		SocialLinks map[string]string `json:"socialLinks" validate:"nullable,url"`
	}
	assert.Empty(t, validate.Struct(in{}))
	assert.Empty(t, validate.Struct(in{SocialLinks: map[string]string{
		"facebook":  "https://facebook.com/decor",
		"instagram": "",
	}}))

	errs := validate.Struct(in{SocialLinks: map[string]string{
		"facebook": "https://facebook.com/decor",
		"twitter":  "@decor",
	}})
	require.Len(t, errs, 1)
	assert.Equal(t, "socialLinks", errs[0].Field)
	assert.Contains(t, errs[0].Message, "socialLinks.twitter")
}

func TestRequiredMap(t *testing.T) {
	type in struct {
		WorkingHours map[string]string `json:"workingHours" validate:"required"`
	}
	assert.NotEmpty(t, validate.Struct(in{}))
	assert.Empty(t, validate.Struct(in{WorkingHours: map[string]string{"monday": "9-18"}}))
}

func TestAlphaDashAndRegex(t *testing.T) {
	type in struct {
		Username string `json:"username" validate:"required,alpha_dash,min=3"`
		Key      string `json:"key"      validate:"nullable,regex=^products\\.[a-z_]+$"`
	}
	assert.Empty(t, validate.Struct(in{Username: "decor_admin", Key: "products.arches"}))
	assert.Equal(t, []string{"username", "key"}, fields(validate.Struct(in{Username: "a b", Key: "Arches"})))
}
