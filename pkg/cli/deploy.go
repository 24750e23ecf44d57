package cli

import (
	"context"
	"errors"
	"os"

	"github.com/fermyon/spin-companion/pkg/deploy"
	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/fermyon/spin-companion/pkg/util"
	"github.com/spf13/cobra"
)

// ErrDeployFailed is returned after a failed deploy has been reported
var ErrDeployFailed = errors.New("deployment failed")

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the application in the current directory",
		Long: `Deploy the application in the current directory to the active environment.

Without an active environment the bindle and Hippo settings are read from
BINDLE_URL, HIPPO_URL, HIPPO_USERNAME and HIPPO_PASSWORD, prompting for any
that are missing. After a successful deploy you are offered to save them.

If the bindle is already on the server it is reactivated. If the server
rejects the password you are asked for a new one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd.Context())
			defer stop()
			return runDeploy(ctx, newApp(settings))
		},
	}
}

func runDeploy(ctx context.Context, a *app) error {
	log := util.GetLogger()

	resolver := &deploy.Resolver{
		Store:    a.store,
		Secrets:  a.secrets,
		Prompter: a.prompter,
		Getenv:   os.Getenv,
	}
	req, err := resolver.Resolve()
	if errors.Is(err, ui.ErrCancelled) {
		log.Info("Deploy cancelled while resolving settings")
		return nil
	}
	if err != nil {
		return err
	}

	orch := deploy.NewOrchestrator(a.client, a.prompter, a.console, a.store, a.secrets)
	res, err := orch.Run(ctx, *req)
	if err != nil {
		return err
	}

	log.Info("Deploy finished", "outcome", res.Outcome.String(), "state", res.Final.Name())
	if res.Outcome == deploy.OutcomeFailed {
		return ErrDeployFailed
	}
	return nil
}
