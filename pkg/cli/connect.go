package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fermyon/spin-companion/pkg/environment"
	"github.com/fermyon/spin-companion/pkg/login"
	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/fermyon/spin-companion/pkg/util"
	"github.com/spf13/cobra"
)

const (
	// DefaultPlatformURL is offered when logging in to a new platform
	DefaultPlatformURL = "http://localhost:5309"

	choiceDisconnect = "(None)"
	choiceNewLogin   = "Log in to a new platform..."
)

var (
	connectURL      string
	connectInsecure bool
	connectMaxPolls int
)

// NewConnectCmd creates the connect command
func NewConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Choose the deployment environment or log in to a platform",
		Long: `Switch to another saved environment, disconnect from all of them, or
log the spin CLI in to a platform using a device code.

With --url the device code login starts straight away.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd.Context())
			defer stop()

			a := newApp(settings)
			flow := login.NewFlow(a.client, a.prompter, a.console)
			flow.MaxPolls = connectMaxPolls
			return runConnect(ctx, a, flow)
		},
	}

	cmd.Flags().StringVar(&connectURL, "url", "", "Platform URL to log in to")
	cmd.Flags().BoolVarP(&connectInsecure, "insecure", "k", false, "Skip TLS verification when logging in")
	cmd.Flags().IntVar(&connectMaxPolls, "max-polls", 0, "Give up after this many unsuccessful authorization checks (0: never)")

	return cmd
}

func runConnect(ctx context.Context, a *app, flow *login.Flow) error {
	if connectURL != "" {
		return loginTo(ctx, a, flow, connectURL)
	}

	all, err := a.store.All()
	if err != nil {
		return err
	}
	active, err := a.store.ActiveName()
	if err != nil {
		return err
	}

	others := otherEnvironments(all, active)
	items := []string{choiceDisconnect}
	byLabel := map[string]environment.Environment{}
	for _, env := range others {
		label := environmentLabel(env)
		items = append(items, label)
		byLabel[label] = env
	}
	items = append(items, choiceNewLogin)

	choice, err := a.prompter.Select("Environment to switch to", items)
	if errors.Is(err, ui.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	switch choice {
	case choiceDisconnect:
		if err := a.store.SetActive(""); err != nil {
			return err
		}
		a.console.Info("Disconnected from all environments")
		return nil

	case choiceNewLogin:
		url, err := a.prompter.Input("Platform URL", DefaultPlatformURL)
		if errors.Is(err, ui.ErrCancelled) || (err == nil && url == "") {
			return nil
		}
		if err != nil {
			return err
		}
		return loginTo(ctx, a, flow, url)
	}

	env := byLabel[choice]
	if err := a.store.SetActive(env.Name); err != nil {
		return err
	}
	a.console.Info("Switched to %s", env.Name)
	return nil
}

func loginTo(ctx context.Context, a *app, flow *login.Flow, url string) error {
	loggedIn, err := flow.Login(ctx, url, connectInsecure)
	if errors.Is(err, login.ErrCancelled) {
		util.GetLogger().Info("Login cancelled", "url", url)
		return nil
	}
	if err != nil {
		return fmt.Errorf("login to %s failed: %w", url, err)
	}
	a.console.Info("Logged into %s", loggedIn)
	return nil
}

// otherEnvironments drops the active environment from all
func otherEnvironments(all []environment.Environment, active string) []environment.Environment {
	var others []environment.Environment
	for _, env := range all {
		if env.Name != active {
			others = append(others, env)
		}
	}
	return others
}

func environmentLabel(env environment.Environment) string {
	return fmt.Sprintf("%s (dashboard: %s)", env.Name, env.HippoURL)
}
