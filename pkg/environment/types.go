package environment

import (
	"errors"

	"github.com/fermyon/spin-companion/pkg/spin"
)

// ErrNotFound is returned when no environment has the requested name
var ErrNotFound = errors.New("environment not found")

// Environment is a named deployment target. Its password lives in Secrets.
type Environment struct {
	Name          string `yaml:"name" validate:"required,printascii"`
	BindleURL     string `yaml:"bindleUrl" validate:"required,url"`
	HippoURL      string `yaml:"hippoUrl" validate:"required,url"`
	HippoUsername string `yaml:"hippoUsername" validate:"required"`
}

// DeployParameters returns the parameters for deploying to e with password
func (e Environment) DeployParameters(password string) spin.DeployParameters {
	return spin.DeployParameters{
		BindleURL:     e.BindleURL,
		HippoURL:      e.HippoURL,
		HippoUsername: e.HippoUsername,
		HippoPassword: password,
	}
}

// FromDeployParameters names the target described by params
func FromDeployParameters(name string, params spin.DeployParameters) Environment {
	return Environment{
		Name:          name,
		BindleURL:     params.BindleURL,
		HippoURL:      params.HippoURL,
		HippoUsername: params.HippoUsername,
	}
}

// Store persists environments and the name of the active one
type Store interface {
	// All returns every environment in save order
	All() ([]Environment, error)

	// Get returns the named environment or ErrNotFound
	Get(name string) (*Environment, error)

	// Save inserts env, or replaces the environment with the same name
	Save(env Environment) error

	// Remove deletes the named environment, clearing it if active
	Remove(name string) error

	// ActiveName returns the active environment name, empty if none
	ActiveName() (string, error)

	// SetActive marks name as active. An empty name disconnects.
	SetActive(name string) error
}

// Secrets stores environment passwords
type Secrets interface {
	// Password returns the stored password, empty if there is none
	Password(envName string) (string, error)
	SetPassword(envName, password string) error
	DeletePassword(envName string) error
}

// Active returns the active environment, or nil when none is active
func Active(store Store) (*Environment, error) {
	name, err := store.ActiveName()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	env, err := store.Get(name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return env, err
}
