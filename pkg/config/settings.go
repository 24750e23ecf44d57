package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys
const (
	KeyCustomProgramPath = "custom_program_path"
	KeyToolsDir          = "tools_dir"
	KeyDataDir           = "data_dir"
	KeyVerbose           = "verbose"
)

// EnvPrefix is prepended to every key when reading the process environment,
// e.g. SPIN_COMPANION_TOOLS_DIR
const EnvPrefix = "SPIN_COMPANION"

// Settings holds the user's configuration
type Settings struct {
	// CustomProgramPath, when set, is used instead of the managed install
	CustomProgramPath string `mapstructure:"custom_program_path"`

	// ToolsDir is where managed tool releases are unpacked
	ToolsDir string `mapstructure:"tools_dir" validate:"required"`

	// DataDir holds the environments file
	DataDir string `mapstructure:"data_dir" validate:"required"`

	Verbose bool `mapstructure:"verbose"`
}

// EnvironmentsFile is the path of the persisted environments
func (s *Settings) EnvironmentsFile() string {
	return filepath.Join(s.DataDir, "environments.yaml")
}

// Load reads settings from cfgFile, or ~/.fermyon/spin-companion.yaml when
// cfgFile is empty, with SPIN_COMPANION_* variables taking precedence
func Load(cfgFile string) (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find home directory: %w", err)
	}
	return load(viper.New(), cfgFile, home)
}

func load(v *viper.Viper, cfgFile, home string) (*Settings, error) {
	base := filepath.Join(home, ".fermyon")
	v.SetDefault(KeyCustomProgramPath, "")
	v.SetDefault(KeyToolsDir, filepath.Join(base, "autobindle", "tools"))
	v.SetDefault(KeyDataDir, filepath.Join(base, "autobindle", "data"))
	v.SetDefault(KeyVerbose, false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(base)
		v.SetConfigType("yaml")
		v.SetConfigName("spin-companion")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
