package environment

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks that an environment can be saved
func Validate(env *Environment) error {
	if err := validate.Struct(env); err != nil {
		return fmt.Errorf("invalid environment %q: %w", env.Name, err)
	}
	return nil
}

// ValidateName checks a candidate environment name with the same rules as Validate
func ValidateName(name string) error {
	if err := validate.Var(name, "required,printascii"); err != nil {
		return fmt.Errorf("invalid environment name %q: %w", name, err)
	}
	return nil
}
