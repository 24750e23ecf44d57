package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/spf13/cobra"
)

const (
	choiceAddAgain = "Add it again"
	choiceCancel   = "Cancel"
)

var addToPathProfile string

// NewAddToPathCmd creates the add-to-path command
func NewAddToPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-to-path",
		Short: "Put the installed spin on your shell PATH",
		Long: `Install spin if needed and print a line that puts its directory first on
PATH. With --profile the line is appended to that shell profile instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(settings)
			bin, err := a.installer.EnsureInstalled(cmd.Context())
			if err != nil {
				return fmt.Errorf("unable to install spin: %w", err)
			}
			return runAddToPath(a, filepath.Dir(bin), addToPathProfile, os.Getenv("PATH"))
		},
	}

	cmd.Flags().StringVar(&addToPathProfile, "profile", "", "Shell profile to append the PATH line to (e.g. ~/.bashrc)")

	return cmd
}

func runAddToPath(a *app, dir, profile, currentPath string) error {
	line := pathExport(dir, runtime.GOOS)

	if profile == "" {
		if containsDir(currentPath, dir) {
			a.console.Warn("Your PATH seems to already contain the spin directory")
		}
		a.console.Output(line)
		return nil
	}

	existing, err := os.ReadFile(profile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", profile, err)
	}
	if strings.Contains(string(existing), escapePath(dir)) {
		choice, err := a.prompter.Select("The profile seems to already contain the spin path.", []string{choiceAddAgain, choiceCancel})
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice != choiceAddAgain {
			return nil
		}
	}

	f, err := os.OpenFile(profile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", profile, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "\n%s\n", line); err != nil {
		return fmt.Errorf("failed to write %s: %w", profile, err)
	}

	a.console.Info("Updated %s. Start a new shell to pick up the new path.", profile)
	return nil
}

// pathExport is the shell line that prepends dir to PATH
func pathExport(dir, goos string) string {
	if goos == "windows" {
		return fmt.Sprintf(`$env:PATH = "%s;" + $env:PATH`, escapePath(dir))
	}
	return fmt.Sprintf(`export PATH="%s:$PATH"`, escapePath(dir))
}

func escapePath(dir string) string {
	return strings.ReplaceAll(dir, `\`, `\\`)
}

func containsDir(pathList, dir string) bool {
	for _, entry := range filepath.SplitList(pathList) {
		if filepath.Clean(entry) == filepath.Clean(dir) {
			return true
		}
	}
	return false
}
