package util

import (
	"reflect"
	"strings"

	"skillmart/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the project rules registered and
// field names reported by their json tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := crypto.RegisterValidators(v); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}
