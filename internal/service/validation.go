package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// InvalidInputError reports client input that failed validation. Err is
// either validator.ValidationErrors or a parse error for a single field.
type InvalidInputError struct {
	Err error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %v", e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// MaxPriceDigits is the most significant digits a price may carry. Every
// store keeps prices exactly up to this width (Decimal128 holds 34).
const MaxPriceDigits = 34

// newValidator reports fields by their JSON names. Decimals reach tag
// validators as their canonical string so the price tag checks them exactly.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("price", validatePrice)
	return v
}

// validatePrice accepts non-negative decimals of at most MaxPriceDigits digits
func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil || d.Sign() < 0 {
		return false
	}
	return priceDigits(d) <= MaxPriceDigits
}

// priceDigits counts the digits of the plain rendering, which is what the
// stores parse.
func priceDigits(d decimal.Decimal) int {
	n := 0
	for _, r := range d.String() {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
