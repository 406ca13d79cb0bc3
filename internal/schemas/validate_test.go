package schemas

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingPageSchema_IsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(ListingPageSchema()), &v))
	assert.Equal(t, "array", v["type"])
}

func TestValidateListingPage_Valid(t *testing.T) {
	body := `[
		{"id": 1, "date": "2025-03-18T09:00:00", "link": "https://www.fda.gov.ph/a/", "title": {"rendered": "FDA Advisory No.2025-0317 || x"}},
		{"id": 2, "date": null, "link": "https://www.fda.gov.ph/b/", "title": {"rendered": ""}}
	]`
	assert.NoError(t, ValidateListingPage([]byte(body)))
}

func TestValidateListingPage_EmptyArray(t *testing.T) {
	assert.NoError(t, ValidateListingPage([]byte(`[]`)))
}

func TestValidateListingPage_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"error object", `{"code": "rest_post_invalid_page_number", "message": "The page number requested is larger than the number of pages available."}`, "(root)"},
		{"missing link", `[{"date": "2025-01-01", "title": {"rendered": "x"}}]`, "0"},
		{"empty link", `[{"date": "2025-01-01", "link": "", "title": {"rendered": "x"}}]`, "0.link"},
		{"title not object", `[{"date": "2025-01-01", "link": "https://x/", "title": "x"}]`, "0.title"},
		{"not json", `<html>blocked</html>`, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListingPage([]byte(tt.body))
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.NotEmpty(t, validationErr.Errors)
			assert.True(t, strings.HasPrefix(validationErr.Errors[0].Field, tt.field), validationErr.Errors[0].Field)
		})
	}
}

func TestValidateListingPage_TruncatesViolations(t *testing.T) {
	items := make([]string, 15)
	for i := range items {
		items[i] = `{"title": 1}`
	}
	err := ValidateListingPage([]byte(fmt.Sprintf("[%s]", strings.Join(items, ","))))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, maxReportedErrors)
	assert.Positive(t, validationErr.Truncated)
	assert.Contains(t, err.Error(), "more)")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "0.link", Message: "is required"},
			{Field: "1.title", Message: "must be an object"},
		},
	}

	assert.Equal(t, "listing payload invalid: 0.link: is required; 1.title: must be an object", err.Error())
}

func TestSchemaLoadError(t *testing.T) {
	cause := fmt.Errorf("bad keyword")
	err := &SchemaLoadError{Name: "x.json", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "x.json")
}
