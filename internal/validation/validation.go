// Package validation installs custom binding rules on gin's validator.
package validation

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	numericish = regexp.MustCompile(`^[0-9-]+$`)
	slotForm   = regexp.MustCompile(`^[0-9]+(-[0-9]+){0,3}$`)
)

// slotFreq validates medicine frequency values. Anything that looks
// like slot notation must be well formed ("1-0-1", "2-1-2"); free-text
// frequencies ("Twice daily") pass untouched.
func slotFreq(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if !numericish.MatchString(v) {
		return true
	}
	return slotForm.MatchString(v)
}

// Register installs the custom rules. Call once before serving.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("slotfreq", slotFreq)
}
