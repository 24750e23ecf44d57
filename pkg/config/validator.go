package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks that settings are usable
func Validate(s *Settings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if !filepath.IsAbs(s.ToolsDir) {
		return fmt.Errorf("tools_dir must be an absolute path: %s", s.ToolsDir)
	}
	if !filepath.IsAbs(s.DataDir) {
		return fmt.Errorf("data_dir must be an absolute path: %s", s.DataDir)
	}

	return nil
}
