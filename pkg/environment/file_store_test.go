package environment

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/zalando/go-keyring"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "data", "environments.yaml"))
}

var prod = Environment{
	Name:          "prod",
	BindleURL:     "https://bindle.example/v1",
	HippoURL:      "https://hippo.example",
	HippoUsername: "deployer",
}

func TestFileStore_SaveAndGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(prod); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get("prod")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(*got, prod) {
		t.Errorf("Get() = %+v, want %+v", *got, prod)
	}

	// A second store over the same file sees the same data
	reopened := NewFileStore(store.Path())
	got, err = reopened.Get("prod")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if !reflect.DeepEqual(*got, prod) {
		t.Errorf("Get() after reopen = %+v, want %+v", *got, prod)
	}
}

func TestFileStore_SaveUpserts(t *testing.T) {
	store := newTestStore(t)

	staging := prod
	staging.Name = "staging"

	updated := prod
	updated.HippoUsername = "someone-else"

	for _, env := range []Environment{prod, staging, updated} {
		if err := store.Save(env); err != nil {
			t.Fatalf("Save(%s) error = %v", env.Name, err)
		}
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	want := []Environment{updated, staging}
	if !reflect.DeepEqual(all, want) {
		t.Errorf("All() = %+v, want %+v", all, want)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
	}{
		{name: "missing name", env: Environment{BindleURL: prod.BindleURL, HippoURL: prod.HippoURL, HippoUsername: "u"}},
		{name: "bad bindle url", env: Environment{Name: "x", BindleURL: "not a url", HippoURL: prod.HippoURL, HippoUsername: "u"}},
		{name: "missing username", env: Environment{Name: "x", BindleURL: prod.BindleURL, HippoURL: prod.HippoURL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if err := store.Save(tt.env); err == nil {
				t.Error("Save() expected validation error")
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{name: "prod", wantErr: false},
		{name: "staging-2", wantErr: false},
		{name: "", wantErr: true},
		{name: "prodé", wantErr: true},
	}

	for _, tt := range tests {
		if err := ValidateName(tt.name); (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestFileStore_ActiveEnvironment(t *testing.T) {
	store := newTestStore(t)

	active, err := Active(store)
	if err != nil || active != nil {
		t.Fatalf("Active() on empty store = %+v, %v", active, err)
	}

	if err := store.SetActive("prod"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive() on unknown name error = %v, want ErrNotFound", err)
	}

	if err := store.Save(prod); err != nil {
		t.Fatal(err)
	}
	if err := store.SetActive("prod"); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	active, err = Active(store)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active == nil || active.Name != "prod" {
		t.Errorf("Active() = %+v, want prod", active)
	}

	if err := store.SetActive(""); err != nil {
		t.Fatalf("SetActive(\"\") error = %v", err)
	}
	if name, _ := store.ActiveName(); name != "" {
		t.Errorf("ActiveName() = %q after disconnect", name)
	}
}

func TestFileStore_RemoveClearsActive(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(prod); err != nil {
		t.Fatal(err)
	}
	if err := store.SetActive("prod"); err != nil {
		t.Fatal(err)
	}

	if err := store.Remove("prod"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if name, _ := store.ActiveName(); name != "" {
		t.Errorf("ActiveName() = %q, want empty", name)
	}
	if err := store.Remove("prod"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}

func TestKeyringSecrets(t *testing.T) {
	keyring.MockInit()
	secrets := NewKeyringSecrets(KeyringService)

	pw, err := secrets.Password("prod")
	if err != nil || pw != "" {
		t.Fatalf("Password() before set = %q, %v", pw, err)
	}

	if err := secrets.SetPassword("prod", "s3cr3t"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	pw, err = secrets.Password("prod")
	if err != nil || pw != "s3cr3t" {
		t.Errorf("Password() = %q, %v", pw, err)
	}

	stored, err := keyring.Get(KeyringService, "fermyon.prod.hippo.password")
	if err != nil || stored != "s3cr3t" {
		t.Errorf("keyring entry = %q, %v", stored, err)
	}

	if err := secrets.DeletePassword("prod"); err != nil {
		t.Fatalf("DeletePassword() error = %v", err)
	}
	if err := secrets.DeletePassword("prod"); err != nil {
		t.Errorf("DeletePassword() of missing secret error = %v", err)
	}
}
