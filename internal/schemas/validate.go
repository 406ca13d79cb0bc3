// Package schemas provides JSON Schema validation for payloads read from the listing endpoint.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed listing_page.schema.json
var listingPageSchema string

// listingPageSchemaName names the embedded schema in load errors.
const listingPageSchemaName = "listing_page.schema.json"

// maxReportedErrors caps how many field errors a ValidationError carries.
const maxReportedErrors = 10

var compileListingPage = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(listingPageSchema))
})

// FieldError is one schema violation at a JSON path such as "3.title.rendered".
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists the violations found in one payload.
type ValidationError struct {
	Errors    []FieldError
	Truncated int // violations beyond maxReportedErrors
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	msg := "listing payload invalid: " + strings.Join(parts, "; ")
	if ve.Truncated > 0 {
		msg += fmt.Sprintf(" (and %d more)", ve.Truncated)
	}
	return msg
}

// SchemaLoadError means the embedded schema itself could not be compiled.
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to compile schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ListingPageSchema returns the JSON Schema every listing page must satisfy.
func ListingPageSchema() string {
	return listingPageSchema
}

// ValidateListingPage checks a listing endpoint response body: an array of
// posts, each with a link, a rendered title, and a date. A body that is not
// JSON at all, such as a WAF block page, is reported at "(root)".
func ValidateListingPage(body []byte) error {
	schema, err := compileListingPage()
	if err != nil {
		return &SchemaLoadError{Name: listingPageSchemaName, Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "not JSON: " + err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	violations := result.Errors()
	ve := &ValidationError{}
	for i, desc := range violations {
		if i == maxReportedErrors {
			ve.Truncated = len(violations) - i
			break
		}
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
