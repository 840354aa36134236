package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/domain"
)

// intent ids are bytes32, always 0x prefixed
var intentIdPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

func IsValidIntentId(id string) bool {
	return intentIdPattern.MatchString(id)
}

// New returns a validator that knows the "intent_id" tag on top of the builtin ones.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("intent_id", func(fl validator.FieldLevel) bool {
		return IsValidIntentId(fl.Field().String())
	})
	return v
}

// NewCustomValidator adapts v to echo. Failures wrap domain.ErrBadParamInput.
func NewCustomValidator(v *validator.Validate) echo.Validator {
	return &customValidator{v}
}

type customValidator struct {
	v *validator.Validate
}

func (cv *customValidator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return xerrors.Errorf("%w: %v", domain.ErrBadParamInput, err)
	}
	return nil
}
