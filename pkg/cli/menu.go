package cli

import (
	"errors"
	"fmt"

	"github.com/fermyon/spin-companion/pkg/login"
	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/spf13/cobra"
)

const (
	menuChangeLogin   = "Change Login"
	menuOpenDashboard = "Open Dashboard"
)

// NewMenuCmd creates the menu command
func NewMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Pick a platform action",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd.Context())
			defer stop()

			a := newApp(settings)
			choice, err := a.prompter.Select("Spin", []string{menuChangeLogin, menuOpenDashboard})
			if errors.Is(err, ui.ErrCancelled) {
				return nil
			}
			if err != nil {
				return err
			}

			switch choice {
			case menuChangeLogin:
				return runConnect(ctx, a, login.NewFlow(a.client, a.prompter, a.console))
			case menuOpenDashboard:
				return runDashboard(ctx, a)
			}
			return fmt.Errorf("unknown menu choice %q", choice)
		},
	}
}
