package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

// ErrNotConnected is returned when the spin CLI is not logged in to a platform
var ErrNotConnected = errors.New("not connected to Fermyon, run spin-companion connect")

// openURL opens a page in the system browser
var openURL = browser.OpenURL

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the dashboard of the platform spin is logged in to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), newApp(settings))
		},
	}
}

func runDashboard(ctx context.Context, a *app) error {
	status, err := a.client.LoginStatus(ctx)
	if err != nil {
		return err
	}
	if status == nil {
		return ErrNotConnected
	}

	u, err := url.Parse(status.DashboardURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid dashboard URL %s", status.DashboardURL)
	}
	if err := openURL(u.String()); err != nil {
		return fmt.Errorf("unable to open %s: %w", status.DashboardURL, err)
	}
	a.console.Info("Opened %s", status.DashboardURL)
	return nil
}
