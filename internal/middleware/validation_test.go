package middleware

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCategory struct {
	ID   string
	Name string `validate:"required_without=ID"`
}

type testRequest struct {
	Name     string `validate:"required"`
	Stock    int    `validate:"gte=0"`
	Category testCategory
}

// Any syntactically valid JSON object decodes
func TestProperty_DecodeJSONAcceptsObjects(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("objects with a name decode", prop.ForAll(
		func(name string, stock int) bool {
			body := fmt.Sprintf(`{"name":%q,"stock":%d}`, name, stock)
			req := httptest.NewRequest("POST", "/products", strings.NewReader(body))

			var out struct {
				Name  string `json:"name"`
				Stock int    `json:"stock"`
			}
			err := DecodeJSON(req, &out)
			return err == nil && out.Name == name && out.Stock == stock
		},
		gen.AlphaString(),
		gen.Int(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDecodeJSON_RejectsBadBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"malformed":  `{"name":`,
		"trailing":   `{"name":"a"}{"name":"b"}`,
		"wrong type": `{"name":5}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/products", strings.NewReader(body))
			var out struct {
				Name string `json:"name"`
			}
			assert.Error(t, DecodeJSON(req, &out))
		})
	}
}

// Every validator failure becomes a field error with a message
func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	v := validator.New()
	properties := gopter.NewProperties(nil)

	properties.Property("failed fields carry path and message", prop.ForAll(
		func(includeName bool, stock int, includeCategory bool) bool {
			req := testRequest{Stock: stock}
			if includeName {
				req.Name = "Mesa"
			}
			if includeCategory {
				req.Category.Name = "Mobiliario"
			}

			expected := 0
			if !includeName {
				expected++
			}
			if stock < 0 {
				expected++
			}
			if !includeCategory {
				expected++
			}

			formatted := FormatValidationErrors(fmt.Errorf("wrapped: %w", v.Struct(req)))
			if len(formatted) != expected {
				return false
			}
			for _, fe := range formatted {
				if fe.Field == "" || fe.Message == "" || strings.HasPrefix(fe.Field, "testRequest") {
					return false
				}
			}
			return true
		},
		gen.Bool(),
		gen.IntRange(-10, 10),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_NestedFieldPath(t *testing.T) {
	err := validator.New().Struct(testRequest{Name: "Mesa"})

	formatted := FormatValidationErrors(err)
	require.Len(t, formatted, 1)
	assert.Equal(t, "Category.Name", formatted[0].Field)
	assert.Equal(t, "This field is required", formatted[0].Message)
}

func TestFormatValidationErrors_NilForOtherErrors(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(fmt.Errorf("boom")))
	assert.Nil(t, FormatValidationErrors(nil))
}
