package middleware

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxSessionIDLen = 128

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()

	commonTags := []string{
		"json",
		"param",
		"query",
		"header",
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range commonTags {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})

	validate.RegisterValidation("session_id", func(fl validator.FieldLevel) bool {
		return ValidSessionID(fl.Field().String())
	})

	v := &Validator{
		validate: validate,
	}

	return v
}

// ValidSessionID reports whether id can name a session. Session ids travel
// in headers and storage keys; keep them short and plain.
func ValidSessionID(id string) bool {
	return id != "" && len(id) <= maxSessionIDLen && !strings.ContainsFunc(id, func(r rune) bool {
		return !(r == '-' || r == '_' || r == '.' ||
			('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'))
	})
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
