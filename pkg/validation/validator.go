package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New builds the validator with the custom rules registered. Rule
// registration failing means the server should not start.
func New() *CustomValidator {
	v := validator.New()

	if err := registerRules(v); err != nil {
		panic("failed to register validation rules: " + err.Error())
	}

	return &CustomValidator{validator: v}
}

func registerRules(v *validator.Validate) error {
	// dayofweek: integer 0 (Sunday) through 6 (Saturday).
	if err := v.RegisterValidation("dayofweek", func(fl validator.FieldLevel) bool {
		day := fl.Field().Int()
		return day >= 0 && day <= 6
	}); err != nil {
		return err
	}

	// dateformat: YYYY-MM-DD.
	return v.RegisterValidation("dateformat", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
}
