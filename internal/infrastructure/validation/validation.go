package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var rgbHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// New returns a validator with the application's custom rules registered.
//
// Custom rules:
//   - rgbhex: a "#RRGGBB" color, hex digits in either case
func New() *validator.Validate {
	v := validator.New()
	// registering a static rule only fails on an empty tag
	_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return rgbHexPattern.MatchString(fl.Field().String())
	})
	return v
}

// IsRGBHex reports whether s is a "#RRGGBB" color.
func IsRGBHex(s string) bool {
	return rgbHexPattern.MatchString(s)
}
