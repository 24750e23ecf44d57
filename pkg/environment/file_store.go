package environment

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fermyon/spin-companion/pkg/util"
)

// document is the on-disk layout of the environments file
type document struct {
	Active       string        `yaml:"active,omitempty"`
	Environments []Environment `yaml:"environments"`
}

// FileStore keeps environments in a YAML file
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. The file is created on the
// first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &document{}, nil
		}
		return nil, fmt.Errorf("failed to read environments file %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse environments YAML: %w", err)
	}
	return &doc, nil
}

func (s *FileStore) write(doc *document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal environments: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write environments file: %w", err)
	}
	return nil
}

// All implements Store
func (s *FileStore) All() ([]Environment, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Environments, nil
}

// Get implements Store
func (s *FileStore) Get(name string) (*Environment, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Environments {
		if doc.Environments[i].Name == name {
			env := doc.Environments[i]
			return &env, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Save implements Store
func (s *FileStore) Save(env Environment) error {
	if err := Validate(&env); err != nil {
		return err
	}

	doc, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range doc.Environments {
		if doc.Environments[i].Name == env.Name {
			doc.Environments[i] = env
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Environments = append(doc.Environments, env)
	}

	util.GetLogger().Info("Saving environment", "name", env.Name, "updated", replaced, "file", s.path)
	return s.write(doc)
}

// Remove implements Store
func (s *FileStore) Remove(name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Environments[:0]
	found := false
	for _, env := range doc.Environments {
		if env.Name == name {
			found = true
			continue
		}
		kept = append(kept, env)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	doc.Environments = kept
	if doc.Active == name {
		doc.Active = ""
	}
	return s.write(doc)
}

// ActiveName implements Store
func (s *FileStore) ActiveName() (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	return doc.Active, nil
}

// SetActive implements Store
func (s *FileStore) SetActive(name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if name != "" {
		found := false
		for _, env := range doc.Environments {
			if env.Name == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}
	doc.Active = name
	return s.write(doc)
}
