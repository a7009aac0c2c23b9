package httpapi

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Contact numbers must be "+" followed by 7-15 digits.
var phonePattern = regexp.MustCompile(`^\+[0-9]{7,15}$`)

// Echo compatible validator with json tag names in error reports.
type customValidator struct {
	validate *validator.Validate
}

func (cv customValidator) Validate(i any) error {
	return cv.validate.Struct(i)
}

func newValidator() customValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// never errors: the rule has no parameters
	_ = validate.RegisterValidation("relayphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return customValidator{validate: validate}
}
