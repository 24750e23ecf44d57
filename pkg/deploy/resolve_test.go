package deploy

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/fermyon/spin-companion/pkg/environment"
	"github.com/fermyon/spin-companion/pkg/spin"
	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/fermyon/spin-companion/pkg/ui/uitest"
)

func newResolver(t *testing.T, vars map[string]string, answers ...uitest.Answer) (*Resolver, *environment.FileStore, *environment.KeyringSecrets) {
	t.Helper()
	keyring.MockInit()

	store := environment.NewFileStore(filepath.Join(t.TempDir(), "environments.yaml"))
	secrets := environment.NewKeyringSecrets(environment.KeyringService)
	r := &Resolver{
		Store:    store,
		Secrets:  secrets,
		Prompter: uitest.NewPrompter(answers...),
		Getenv:   func(key string) string { return vars[key] },
	}
	return r, store, secrets
}

var prodEnv = environment.Environment{
	Name:          "prod",
	BindleURL:     "https://bindle.example/v1",
	HippoURL:      "https://hippo.example",
	HippoUsername: "deployer",
}

func TestResolver_ActiveEnvironmentWithPassword(t *testing.T) {
	r, store, secrets := newResolver(t, nil)
	if err := store.Save(prodEnv); err != nil {
		t.Fatal(err)
	}
	if err := store.SetActive("prod"); err != nil {
		t.Fatal(err)
	}
	if err := secrets.SetPassword("prod", "s3cr3t"); err != nil {
		t.Fatal(err)
	}

	req, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if req.Unsaved != UnsavedNone {
		t.Errorf("Unsaved = %v, want none", req.Unsaved)
	}
	if req.EnvironmentName != "prod" {
		t.Errorf("EnvironmentName = %q, want prod", req.EnvironmentName)
	}
	want := spin.DeployParameters{
		BindleURL:     "https://bindle.example/v1",
		HippoURL:      "https://hippo.example",
		HippoUsername: "deployer",
		HippoPassword: "s3cr3t",
	}
	if req.Params != want {
		t.Errorf("Params = %+v, want %+v", req.Params, want)
	}
}

func TestResolver_ActiveEnvironmentPromptsForPassword(t *testing.T) {
	r, store, _ := newResolver(t, nil, uitest.Reply("typed"))
	if err := store.Save(prodEnv); err != nil {
		t.Fatal(err)
	}
	if err := store.SetActive("prod"); err != nil {
		t.Fatal(err)
	}

	req, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if req.Unsaved != UnsavedPassword {
		t.Errorf("Unsaved = %v, want password", req.Unsaved)
	}
	if req.Params.HippoPassword != "typed" {
		t.Errorf("password = %q, want typed", req.Params.HippoPassword)
	}
}

func TestResolver_NoActiveEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		vars        map[string]string
		answers     []uitest.Answer
		wantErr     error
		wantPrompts int
		want        spin.DeployParameters
	}{
		{
			name: "all from process environment",
			vars: map[string]string{
				spin.EnvBindleURL:     "http://b/v1",
				spin.EnvHippoURL:      "http://h",
				spin.EnvHippoUsername: "u",
				spin.EnvHippoPassword: "p",
			},
			want: spin.DeployParameters{BindleURL: "http://b/v1", HippoURL: "http://h", HippoUsername: "u", HippoPassword: "p"},
		},
		{
			name: "missing settings are prompted",
			vars: map[string]string{
				spin.EnvBindleURL: "http://b/v1",
			},
			answers:     []uitest.Answer{uitest.Reply("http://h"), uitest.Reply("u"), uitest.Reply("p")},
			wantPrompts: 3,
			want:        spin.DeployParameters{BindleURL: "http://b/v1", HippoURL: "http://h", HippoUsername: "u", HippoPassword: "p"},
		},
		{
			name:        "cancelled prompt",
			answers:     []uitest.Answer{uitest.Reply("http://b/v1"), uitest.Cancel()},
			wantErr:     ui.ErrCancelled,
			wantPrompts: 2,
		},
		{
			name:        "empty answer cancels",
			answers:     []uitest.Answer{uitest.Reply("")},
			wantErr:     ui.ErrCancelled,
			wantPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newResolver(t, tt.vars, tt.answers...)

			req, err := r.Resolve()
			prompter := r.Prompter.(*uitest.Prompter)
			if len(prompter.Prompts) != tt.wantPrompts {
				t.Errorf("prompts = %d, want %d", len(prompter.Prompts), tt.wantPrompts)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if req.Unsaved != UnsavedAll {
				t.Errorf("Unsaved = %v, want all", req.Unsaved)
			}
			if req.Params != tt.want {
				t.Errorf("Params = %+v, want %+v", req.Params, tt.want)
			}
		})
	}
}
