package deploy

import "github.com/fermyon/spin-companion/pkg/spin"

// UnsavedEnvironmentInfo says how much of a deploy's parameters still needs
// to be persisted once the deploy succeeds
type UnsavedEnvironmentInfo int

const (
	// UnsavedNone means the environment and its password are already stored
	UnsavedNone UnsavedEnvironmentInfo = iota
	// UnsavedPassword means the environment is stored but its password is not
	UnsavedPassword
	// UnsavedAll means nothing is stored yet
	UnsavedAll
)

func (u UnsavedEnvironmentInfo) String() string {
	switch u {
	case UnsavedNone:
		return "none"
	case UnsavedPassword:
		return "password"
	case UnsavedAll:
		return "all"
	}
	return "unknown"
}

// AfterCredentialRefresh is the unsaved info once the user has typed a new
// password. It only ever widens.
func (u UnsavedEnvironmentInfo) AfterCredentialRefresh() UnsavedEnvironmentInfo {
	if u == UnsavedNone {
		return UnsavedPassword
	}
	return u
}

// State is one state of a deploy. Succeeded and Failed are terminal.
type State interface {
	Name() string
	isState()
}

// Deploying is a first deploy attempt
type Deploying struct {
	Params  spin.DeployParameters
	Unsaved UnsavedEnvironmentInfo
}

// Redeploying is a deploy over a bindle that is already on the server
type Redeploying struct {
	Params        spin.DeployParameters
	Unsaved       UnsavedEnvironmentInfo
	ExistedBefore bool
}

// GettingNewCredentials waits for the user to replace a rejected password
type GettingNewCredentials struct {
	Params        spin.DeployParameters
	Unsaved       UnsavedEnvironmentInfo
	ExistedBefore bool
}

// Succeeded is a completed deploy
type Succeeded struct {
	Params        spin.DeployParameters
	Unsaved       UnsavedEnvironmentInfo
	ExistedBefore bool
	// Output is the tool's stdout, normally the application URL
	Output string
}

// Failed is a deploy that will not be retried
type Failed struct {
	Reactivation bool
	Message      string
}

func (Deploying) Name() string             { return "deploying" }
func (Redeploying) Name() string           { return "redeploying" }
func (GettingNewCredentials) Name() string { return "getting-new-credentials" }
func (Succeeded) Name() string             { return "succeeded" }
func (Failed) Name() string                { return "failed" }

func (Deploying) isState()             {}
func (Redeploying) isState()           {}
func (GettingNewCredentials) isState() {}
func (Succeeded) isState()             {}
func (Failed) isState()                {}
