// Package validation provides a shared validator instance for struct validation
// across the application. It uses go-playground/validator/v10 with custom
// validators registered for domain-specific types.
package validation

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Get returns the singleton validator instance with all custom validators registered.
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		registerCustomValidators(instance)
	})
	return instance
}

// Validate validates a struct using the shared validator instance.
// Returns nil if validation passes, or a validator.ValidationErrors if it fails.
func Validate(s any) error {
	return Get().Struct(s)
}

// registerCustomValidators adds domain-specific validators.
// Panics if registration fails; a bad registration is a programming error.
func registerCustomValidators(v *validator.Validate) {
	mustRegister(v, "sslmode", oneOf("disable", "allow", "prefer", "require", "verify-ca", "verify-full"))
	mustRegister(v, "loglevel", oneOf("debug", "info", "warn", "error"))
	mustRegister(v, "logformat", oneOf("json", "text"))
	mustRegister(v, "sessionstore", oneOf("postgres", "redis", "memory"))
	mustRegister(v, "auditaction", oneOfFold("CREATE", "UPDATE", "DELETE"))
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("failed to register validator " + tag + ": " + err.Error())
	}
}

// oneOf builds an exact-match enum validator.
// The values are duplicated here rather than read from config to avoid an
// import cycle (config imports validation).
func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, allowed := range values {
			if value == allowed {
				return true
			}
		}
		return false
	}
}

// oneOfFold is oneOf with case-insensitive matching. Empty values pass so the
// tag can sit on optional filter fields.
func oneOfFold(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		for _, allowed := range values {
			if strings.EqualFold(value, allowed) {
				return true
			}
		}
		return false
	}
}
