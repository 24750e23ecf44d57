package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/fermyon/spin-companion/pkg/config"
	"github.com/fermyon/spin-companion/pkg/environment"
	"github.com/fermyon/spin-companion/pkg/process"
	"github.com/fermyon/spin-companion/pkg/spin"
	"github.com/fermyon/spin-companion/pkg/ui"
)

// app holds the collaborators shared by the commands
type app struct {
	installer *spin.Installer
	client    *spin.Client
	store     environment.Store
	secrets   environment.Secrets
	prompter  ui.Prompter
	console   ui.Notifier
}

func newApp(s *config.Settings) *app {
	console := ui.NewConsole()
	installer := spin.NewInstaller(s.CustomProgramPath, s.ToolsDir)

	wd, _ := os.Getwd()
	locator := &warningLocator{installer: installer, console: console}

	return &app{
		installer: installer,
		client:    spin.NewClient(locator, process.NewExecRunner(wd)),
		store:     environment.NewFileStore(s.EnvironmentsFile()),
		secrets:   environment.NewKeyringSecrets(environment.KeyringService),
		prompter:  ui.NewPromptuiPrompter(),
		console:   console,
	}
}

// warningLocator reports a failed install once per process
type warningLocator struct {
	installer *spin.Installer
	console   ui.Notifier
}

func (l *warningLocator) EnsureInstalled(ctx context.Context) (string, error) {
	path, err := l.installer.EnsureInstalled(ctx)
	if err != nil {
		l.installer.WarnInstallNotEnsured(func(msg string) { l.console.Warn("%s", msg) },
			"Unable to install spin. Set custom_program_path to use an existing binary.")
	}
	return path, err
}

// interruptible returns a context cancelled by Ctrl-C
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}
