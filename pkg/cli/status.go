package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fermyon/spin-companion/pkg/environment"
)

// OutputFormat selects how status is printed
type OutputFormat string

const (
	OutputFormatConsole OutputFormat = "console"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatYAML    OutputFormat = "yaml"
)

var (
	statusFormat string
	statusLogin  bool
)

// Status describes the current connection and tool install
type Status struct {
	ActiveEnvironment string `json:"activeEnvironment,omitempty" yaml:"activeEnvironment,omitempty"`
	HippoURL          string `json:"hippoUrl,omitempty" yaml:"hippoUrl,omitempty"`
	BindleURL         string `json:"bindleUrl,omitempty" yaml:"bindleUrl,omitempty"`
	HippoUsername     string `json:"hippoUsername,omitempty" yaml:"hippoUsername,omitempty"`
	PasswordSaved     bool   `json:"passwordSaved" yaml:"passwordSaved"`
	SpinPath          string `json:"spinPath" yaml:"spinPath"`
	SpinVersion       string `json:"spinVersion,omitempty" yaml:"spinVersion,omitempty"`
	SpinInstalled     bool   `json:"spinInstalled" yaml:"spinInstalled"`
	LoggedInTo        string `json:"loggedInTo,omitempty" yaml:"loggedInTo,omitempty"`
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active environment and spin install",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(settings)
			status, err := collectStatus(cmd.Context(), a, settings.CustomProgramPath != "", statusLogin)
			if err != nil {
				return err
			}
			out, err := FormatStatus(status, OutputFormat(statusFormat))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFormat, "output", "o", string(OutputFormatConsole), "Output format (console, json, yaml)")
	cmd.Flags().BoolVar(&statusLogin, "login", false, "Also ask spin which platform it is logged in to")

	return cmd
}

func collectStatus(ctx context.Context, a *app, custom, checkLogin bool) (*Status, error) {
	status := &Status{}

	env, err := environment.Active(a.store)
	if err != nil {
		return nil, err
	}
	if env != nil {
		status.ActiveEnvironment = env.Name
		status.HippoURL = env.HippoURL
		status.BindleURL = env.BindleURL
		status.HippoUsername = env.HippoUsername
		password, err := a.secrets.Password(env.Name)
		if err != nil {
			return nil, err
		}
		status.PasswordSaved = password != ""
	}

	if custom {
		status.SpinPath = a.installer.CustomPath
		_, statErr := os.Stat(status.SpinPath)
		status.SpinInstalled = statErr == nil
	} else {
		status.SpinPath = a.installer.InstallLocation()
		status.SpinVersion = a.installer.Version
		_, statErr := os.Stat(status.SpinPath)
		status.SpinInstalled = statErr == nil && a.installer.IsInstallCurrent()
	}

	if checkLogin {
		login, err := a.client.LoginStatus(ctx)
		if err != nil {
			return nil, err
		}
		if login != nil {
			status.LoggedInTo = login.DashboardURL
		}
	}

	return status, nil
}

// FormatStatus renders status in format
func FormatStatus(status *Status, format OutputFormat) (string, error) {
	switch format {
	case OutputFormatConsole, "":
		return formatConsole(status), nil
	case OutputFormatJSON:
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data) + "\n", nil
	case OutputFormatYAML:
		data, err := yaml.Marshal(status)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatConsole(status *Status) string {
	var b strings.Builder

	if status.ActiveEnvironment == "" {
		b.WriteString(color.YellowString("⚠ Not connected to an environment") + "\n")
	} else {
		b.WriteString(color.GreenString("✓ Connected to %s", status.ActiveEnvironment) + "\n")
		fmt.Fprintf(&b, "  Dashboard: %s\n", status.HippoURL)
		fmt.Fprintf(&b, "  Bindle:    %s\n", status.BindleURL)
		fmt.Fprintf(&b, "  User:      %s\n", status.HippoUsername)
		if status.PasswordSaved {
			b.WriteString("  Password:  saved\n")
		} else {
			b.WriteString("  Password:  not saved\n")
		}
	}

	if status.SpinInstalled {
		b.WriteString(color.GreenString("✓ spin %s", status.SpinVersion) + "\n")
	} else {
		b.WriteString(color.YellowString("⚠ spin %s is not installed yet", status.SpinVersion) + "\n")
	}
	fmt.Fprintf(&b, "  Path: %s\n", status.SpinPath)

	if status.LoggedInTo != "" {
		fmt.Fprintf(&b, "  Logged in to %s\n", status.LoggedInTo)
	}

	return b.String()
}
