package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fermyon/spin-companion/pkg/process"
	"github.com/fermyon/spin-companion/pkg/util"
)

// NewTaskCmd creates the task command with subcommands
func NewTaskCmd() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Run spin build, up or deploy for the current directory",
	}

	// Add subcommands
	taskCmd.AddCommand(newToolTaskCmd("build", "Build the application"))
	taskCmd.AddCommand(newToolTaskCmd("up", "Run the application locally until interrupted"))
	taskCmd.AddCommand(&cobra.Command{
		Use:   "deploy",
		Short: "Deploy the application (same as the deploy command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd.Context())
			defer stop()
			return runDeploy(ctx, newApp(settings))
		},
	})

	return taskCmd
}

func newToolTaskCmd(subcommand, short string) *cobra.Command {
	return &cobra.Command{
		Use:   subcommand + " [-- spin flags]",
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd.Context())
			defer stop()
			return runToolTask(ctx, newApp(settings), subcommand, args)
		},
	}
}

// runToolTask runs a spin subcommand, streaming its stderr as progress
func runToolTask(ctx context.Context, a *app, subcommand string, extra []string) error {
	log := util.GetLogger()

	args := append([]string{subcommand}, extra...)
	a.console.Progress("spin " + strings.Join(args, " "))

	out, err := a.client.Run(ctx, args, nil, a.console.Progress)
	if errors.Is(err, process.ErrCancelled) {
		log.Info("Task interrupted", "task", subcommand)
		return nil
	}
	if err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			a.console.Error("spin %s failed with exit code %d", subcommand, exitErr.ExitCode)
		}
		return err
	}

	if out != "" {
		a.console.Output(strings.TrimRight(out, "\n"))
	}
	a.console.Info("spin %s complete", subcommand)
	return nil
}
