package deploy

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fermyon/spin-companion/pkg/environment"
	"github.com/fermyon/spin-companion/pkg/process"
	"github.com/fermyon/spin-companion/pkg/spin"
	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/fermyon/spin-companion/pkg/util"
)

// Choices offered after a successful deploy
const (
	ChoiceSavePassword       = "Save Password"
	ChoiceSaveSettings       = "Save Deployment Settings"
	ChoiceSaveExceptPassword = "Save Settings Except Password"
	ChoiceDontSave           = "Don't Save"
)

// Deployer runs the tool's deploy subcommand
type Deployer interface {
	Deploy(ctx context.Context, params spin.DeployParameters, reactivate bool, onProgress func(string)) (string, error)
}

// Request is the input of one deploy
type Request struct {
	Params  spin.DeployParameters
	Unsaved UnsavedEnvironmentInfo

	// EnvironmentName is the stored environment Params came from, if any
	EnvironmentName string
}

// Outcome is how a deploy run ended
type Outcome int

const (
	// OutcomeSucceeded means the deploy completed
	OutcomeSucceeded Outcome = iota
	// OutcomeFailed means the deploy failed and the user was told
	OutcomeFailed
	// OutcomeAbandoned means the user cancelled a prompt or the deploy itself
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Result reports a finished run
type Result struct {
	Outcome Outcome

	// Final is the last state entered
	Final State

	// SavedEnvironment names the environment persisted after success, if any
	SavedEnvironment string
}

// Orchestrator drives a deploy through its states
type Orchestrator struct {
	deployer Deployer
	prompter ui.Prompter
	notifier ui.Notifier
	store    environment.Store
	secrets  environment.Secrets

	// OnTransition, when set, is called with every state entered
	OnTransition func(State)
}

// NewOrchestrator wires an orchestrator
func NewOrchestrator(deployer Deployer, prompter ui.Prompter, notifier ui.Notifier, store environment.Store, secrets environment.Secrets) *Orchestrator {
	return &Orchestrator{
		deployer: deployer,
		prompter: prompter,
		notifier: notifier,
		store:    store,
		secrets:  secrets,
	}
}

// Run deploys req. A failed deploy is reported to the user and returned as
// OutcomeFailed; the error is reserved for faults while prompting for
// credentials.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	log := util.GetLogger()

	var state State = Deploying{Params: req.Params, Unsaved: req.Unsaved}
	for {
		log.V(1).Info("Deploy state", "state", state.Name())
		if o.OnTransition != nil {
			o.OnTransition(state)
		}

		switch s := state.(type) {
		case Deploying:
			next, ok := o.deploy(ctx, s.Params, s.Unsaved, false, false)
			if !ok {
				return &Result{Outcome: OutcomeAbandoned, Final: s}, nil
			}
			state = next

		case Redeploying:
			next, ok := o.deploy(ctx, s.Params, s.Unsaved, true, s.ExistedBefore)
			if !ok {
				return &Result{Outcome: OutcomeAbandoned, Final: s}, nil
			}
			state = next

		case GettingNewCredentials:
			o.notifier.Warn("Login failed for %s", s.Params.HippoUsername)
			password, err := o.prompter.Password(fmt.Sprintf("Enter Hippo password for %s", s.Params.HippoUsername))
			if errors.Is(err, ui.ErrCancelled) {
				log.Info("Credential prompt cancelled, abandoning deploy")
				return &Result{Outcome: OutcomeAbandoned, Final: s}, nil
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read password: %w", err)
			}
			state = Redeploying{
				Params:        s.Params.WithPassword(password),
				Unsaved:       s.Unsaved.AfterCredentialRefresh(),
				ExistedBefore: s.ExistedBefore,
			}

		case Succeeded:
			return o.succeeded(s, req.EnvironmentName)

		case Failed:
			o.notifier.Output(s.Message)
			if s.Reactivation {
				o.notifier.Error("Spin deployment (reactivation) failed. See the output above for details.")
			} else {
				o.notifier.Error("Spin deployment failed. See the output above for details.")
			}
			return &Result{Outcome: OutcomeFailed, Final: s}, nil

		default:
			return nil, fmt.Errorf("unknown deploy state %T", state)
		}
	}
}

// deploy runs one attempt and returns the next state. It returns false when
// the attempt was cancelled.
func (o *Orchestrator) deploy(ctx context.Context, params spin.DeployParameters, unsaved UnsavedEnvironmentInfo, reactivate, existedBefore bool) (State, bool) {
	if reactivate {
		o.notifier.Progress("Deployment exists, reactivating...")
	} else {
		o.notifier.Progress("Spin deploy in progress...")
	}

	out, err := o.deployer.Deploy(ctx, params, reactivate, o.notifier.Progress)
	if errors.Is(err, process.ErrCancelled) || ctx.Err() != nil {
		return nil, false
	}
	if err == nil {
		return Succeeded{Params: params, Unsaved: unsaved, ExistedBefore: existedBefore, Output: out}, true
	}

	kind, text := classifyError(err, reactivate)
	switch {
	case kind == FailureAlreadyExists && !reactivate:
		return Redeploying{Params: params, Unsaved: unsaved, ExistedBefore: true}, true
	case kind == FailureLoginFailed:
		return GettingNewCredentials{Params: params, Unsaved: unsaved, ExistedBefore: existedBefore}, true
	}
	return Failed{Reactivation: reactivate, Message: text}, true
}

// succeeded reports the deploy and offers to save what the user typed. The
// deploy already happened, so save problems are warnings and the result is
// always returned.
func (o *Orchestrator) succeeded(s Succeeded, envName string) (*Result, error) {
	log := util.GetLogger()

	o.notifier.Output(s.Output)
	if s.ExistedBefore {
		o.notifier.Info("Spin deployment (reactivation) complete")
	} else {
		o.notifier.Info("Spin deployment complete")
	}

	res := &Result{Outcome: OutcomeSucceeded, Final: s}

	switch s.Unsaved {
	case UnsavedNone:
		return res, nil

	case UnsavedPassword:
		if envName == "" {
			return res, nil
		}
		choice, ok := o.choose(fmt.Sprintf("Save the password for %s?", envName), []string{ChoiceSavePassword, ChoiceDontSave})
		if !ok || choice != ChoiceSavePassword {
			return res, nil
		}
		if err := o.secrets.SetPassword(envName, s.Params.HippoPassword); err != nil {
			log.Error(err, "Failed to save password", "environment", envName)
			o.notifier.Warn("Unable to save the password for %s: %v", envName, err)
			return res, nil
		}
		o.notifier.Info("Saved password for %s", envName)
		return res, nil

	case UnsavedAll:
		choice, ok := o.choose("Save these deployment settings for next time?", []string{ChoiceSaveSettings, ChoiceSaveExceptPassword, ChoiceDontSave})
		if !ok || choice == ChoiceDontSave {
			return res, nil
		}
		name, ok := o.environmentName(suggestName(s.Params.HippoURL))
		if !ok {
			return res, nil
		}

		if err := o.store.Save(environment.FromDeployParameters(name, s.Params)); err != nil {
			log.Error(err, "Failed to save environment", "environment", name)
			o.notifier.Warn("Unable to save environment %s: %v", name, err)
			return res, nil
		}
		if err := o.store.SetActive(name); err != nil {
			log.Error(err, "Failed to activate environment", "environment", name)
			o.notifier.Warn("Saved environment %s but could not make it active: %v", name, err)
			return res, nil
		}
		res.SavedEnvironment = name
		o.notifier.Info("Saved environment %s and made it active", name)

		if choice == ChoiceSaveSettings {
			if err := o.secrets.SetPassword(name, s.Params.HippoPassword); err != nil {
				log.Error(err, "Failed to save password", "environment", name)
				o.notifier.Warn("Unable to save the password for %s, you will be asked for it on the next deploy: %v", name, err)
			}
		}
		return res, nil
	}

	return nil, fmt.Errorf("unknown unsaved environment info %d", s.Unsaved)
}

// choose asks a save question. A dismissed or failed prompt counts as no
// answer.
func (o *Orchestrator) choose(label string, items []string) (string, bool) {
	choice, err := o.prompter.Select(label, items)
	if errors.Is(err, ui.ErrCancelled) {
		return "", false
	}
	if err != nil {
		util.GetLogger().Error(err, "Failed to read choice", "label", label)
		o.notifier.Warn("Unable to read your choice, settings were not saved: %v", err)
		return "", false
	}
	return choice, true
}

// environmentName asks for a name until it is valid, empty or dismissed
func (o *Orchestrator) environmentName(suggested string) (string, bool) {
	for {
		name, err := o.prompter.Input("Environment name", suggested)
		if errors.Is(err, ui.ErrCancelled) {
			return "", false
		}
		if err != nil {
			util.GetLogger().Error(err, "Failed to read environment name")
			o.notifier.Warn("Unable to read the environment name, settings were not saved: %v", err)
			return "", false
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return "", false
		}
		if err := environment.ValidateName(name); err != nil {
			o.notifier.Warn("%q is not a valid environment name, use printable ASCII characters", name)
			continue
		}
		return name, true
	}
}

// suggestName proposes an environment name from the dashboard host
func suggestName(hippoURL string) string {
	u, err := url.Parse(hippoURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.Split(u.Hostname(), ".")[0]
}
