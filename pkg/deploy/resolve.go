package deploy

import (
	"fmt"

	"github.com/fermyon/spin-companion/pkg/environment"
	"github.com/fermyon/spin-companion/pkg/spin"
	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/fermyon/spin-companion/pkg/util"
)

// Resolver works out what a deploy should target
type Resolver struct {
	Store    environment.Store
	Secrets  environment.Secrets
	Prompter ui.Prompter

	// Getenv reads the process environment
	Getenv func(string) string
}

// Resolve builds the deploy request. The active environment wins; without
// one, each setting comes from the process environment or a prompt.
// Cancelling a prompt returns ui.ErrCancelled.
func (r *Resolver) Resolve() (*Request, error) {
	log := util.GetLogger()

	active, err := environment.Active(r.Store)
	if err != nil {
		return nil, err
	}

	if active != nil {
		password, err := r.Secrets.Password(active.Name)
		if err != nil {
			return nil, err
		}
		unsaved := UnsavedNone
		if password == "" {
			password, err = r.Prompter.Password(fmt.Sprintf("Enter Hippo password for %s on %s", active.HippoUsername, active.Name))
			if err != nil {
				return nil, err
			}
			unsaved = UnsavedPassword
		}
		log.Info("Deploying to active environment", "environment", active.Name, "unsaved", unsaved.String())
		return &Request{
			Params:          active.DeployParameters(password),
			Unsaved:         unsaved,
			EnvironmentName: active.Name,
		}, nil
	}

	var params spin.DeployParameters
	settings := []struct {
		key    string
		label  string
		secret bool
		dest   *string
	}{
		{spin.EnvBindleURL, "Enter Bindle server URL (e.g. http://bindle.local.fermyon.link/v1)", false, &params.BindleURL},
		{spin.EnvHippoURL, "Enter Hippo server URL (e.g. http://hippo.local.fermyon.link)", false, &params.HippoURL},
		{spin.EnvHippoUsername, "Enter Hippo user name", false, &params.HippoUsername},
		{spin.EnvHippoPassword, "Enter Hippo password", true, &params.HippoPassword},
	}
	for _, s := range settings {
		value, err := r.ensure(s.key, s.label, s.secret)
		if err != nil {
			return nil, err
		}
		*s.dest = value
	}

	log.Info("Deploying without an active environment", "hippoUrl", params.HippoURL)
	return &Request{Params: params, Unsaved: UnsavedAll}, nil
}

// ensure returns the value of key from the process environment, prompting
// when it is unset. An empty answer counts as cancelling.
func (r *Resolver) ensure(key, label string, secret bool) (string, error) {
	getenv := r.Getenv
	if getenv != nil {
		if value := getenv(key); value != "" {
			return value, nil
		}
	}

	var value string
	var err error
	if secret {
		value, err = r.Prompter.Password(label)
	} else {
		value, err = r.Prompter.Input(label, "")
	}
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", ui.ErrCancelled
	}
	return value, nil
}
