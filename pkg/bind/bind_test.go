package bind_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/bind"
)

type productInput struct {
	CategoryID uint   `json:"categoryId" validate:"required,gt=0"`
	Title      string `json:"title"      validate:"required"`
}

func fieldErrors(t *testing.T, err error) []apperr.FieldError {
	t.Helper()
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}

func TestJSONValid(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"categoryId":2,"title":"Gold arch"}`))
	var in productInput
	require.NoError(t, bind.JSON(req, &in))
	assert.Equal(t, uint(2), in.CategoryID)
	assert.Equal(t, "Gold arch", in.Title)
}

func TestJSONWrongPrimitiveType(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"categoryId":"two","title":"Gold arch"}`))
	var in productInput
	errs := fieldErrors(t, bind.JSON(req, &in))
	require.Len(t, errs, 1)
	assert.Equal(t, "categoryId", errs[0].Field)
	assert.Contains(t, errs[0].Message, "integer")
}

func TestJSONEveryMistypedFieldReported(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"categoryId":"two","title":false}`))
	var in productInput
	errs := fieldErrors(t, bind.JSON(req, &in))
	require.Len(t, errs, 2)
	assert.Equal(t, "categoryId", errs[0].Field)
	assert.Equal(t, "title", errs[1].Field)
	assert.Equal(t, "The title field must be of type string.", errs[1].Message)
}

func TestJSONTypeErrorKeepsRuleFailuresOfOtherFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"categoryId":"two"}`))
	var in productInput
	errs := fieldErrors(t, bind.JSON(req, &in))
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "integer")
	assert.Equal(t, "title", errs[1].Field)
}

func TestJSONMalformed(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":`))
	var in productInput
	errs := fieldErrors(t, bind.JSON(req, &in))
	assert.Equal(t, "body", errs[0].Field)
}

func TestJSONEmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	var in productInput
	errs := fieldErrors(t, bind.JSON(req, &in))
	assert.Equal(t, "The request body is required.", errs[0].Message)
}

func TestJSONRuleFailures(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	var in productInput
	errs := fieldErrors(t, bind.JSON(req, &in))
	assert.Len(t, errs, 2)
}
