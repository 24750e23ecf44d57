package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fermyon/spin-companion/pkg/environment"
	"github.com/fermyon/spin-companion/pkg/spin"
	"github.com/fermyon/spin-companion/pkg/util"
)

// NewEnvCmd creates the env command with subcommands
func NewEnvCmd() *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Manage saved deployment environments",
		Long:  `List, inspect and remove the deployment environments saved after a deploy.`,
	}

	// Add subcommands
	envCmd.AddCommand(NewEnvListCmd())
	envCmd.AddCommand(NewEnvShowCmd())
	envCmd.AddCommand(NewEnvRemoveCmd())
	envCmd.AddCommand(NewEnvExportCmd())

	return envCmd
}

// NewEnvListCmd creates the env list command
func NewEnvListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(settings)
			out, err := listEnvironments(a)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

// NewEnvShowCmd creates the env show command
func NewEnvShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one saved environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(settings)
			env, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			out, err := FormatStatus(&Status{
				ActiveEnvironment: env.Name,
				HippoURL:          env.HippoURL,
				BindleURL:         env.BindleURL,
				HippoUsername:     env.HippoUsername,
			}, OutputFormatYAML)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

// NewEnvRemoveCmd creates the env remove command
func NewEnvRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a saved environment and its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeEnvironment(newApp(settings), args[0])
		},
	}
}

// NewEnvExportCmd creates the env export command
func NewEnvExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print shell exports for the active environment",
		Long: `Print export lines setting BINDLE_URL, HIPPO_URL, HIPPO_USERNAME and, when
saved, HIPPO_PASSWORD for the active environment, e.g.

  eval "$(spin-companion env export)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := exportEnvironment(newApp(settings))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func listEnvironments(a *app) (string, error) {
	all, err := a.store.All()
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "No saved environments\n", nil
	}
	active, err := a.store.ActiveName()
	if err != nil {
		return "", err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	var b strings.Builder
	for _, env := range all {
		marker := " "
		name := env.Name
		if env.Name == active {
			marker = "*"
			name = color.GreenString(env.Name)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", marker, name, env.HippoURL)
	}
	return b.String(), nil
}

func removeEnvironment(a *app, name string) error {
	log := util.GetLogger()

	if err := a.store.Remove(name); err != nil {
		if errors.Is(err, environment.ErrNotFound) {
			return fmt.Errorf("no environment named %s", name)
		}
		return err
	}
	if err := a.secrets.DeletePassword(name); err != nil {
		log.Info("Could not delete saved password", "environment", name, "error", err.Error())
	}
	a.console.Info("Removed environment %s", name)
	return nil
}

func exportEnvironment(a *app) (string, error) {
	env, err := environment.Active(a.store)
	if err != nil {
		return "", err
	}
	if env == nil {
		return "", ErrNotConnected
	}
	password, err := a.secrets.Password(env.Name)
	if err != nil {
		return "", err
	}

	vars := env.DeployParameters(password).EnvVars()
	keys := []string{spin.EnvBindleURL, spin.EnvHippoURL, spin.EnvHippoUsername, spin.EnvHippoPassword}

	var b strings.Builder
	for _, key := range keys {
		value := vars[key]
		if value == "" {
			fmt.Fprintf(&b, "unset %s\n", key)
			continue
		}
		fmt.Fprintf(&b, "export %s=%s\n", key, shellQuote(value))
	}
	return b.String(), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
