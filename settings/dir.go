package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir locates the documents of one user under a settings root.
type Dir struct {
	root string
	user string
}

// NewDir returns the settings location for user under root.
func NewDir(root, user string) *Dir {
	if user == "" {
		user = "default"
	}
	return &Dir{root: root, user: user}
}

// Root returns the settings root.
func (d *Dir) Root() string { return d.root }

// User returns the user name.
func (d *Dir) User() string { return d.user }

// UserDir returns <root>/<user>, which also holds the durable memory.
func (d *Dir) UserDir() string {
	return filepath.Join(d.root, d.user)
}

// CommonDir returns <root>/common.
func (d *Dir) CommonDir() string {
	return filepath.Join(d.root, CommonDir)
}

// Path returns the file path of the named document.
func (d *Dir) Path(name string) (string, error) {
	if _, err := (Documents{}).Get(name); err != nil {
		return "", err
	}
	if Shared(name) {
		return filepath.Join(d.CommonDir(), name), nil
	}
	return filepath.Join(d.UserDir(), name), nil
}

// Load reads all documents. Missing files are empty.
func (d *Dir) Load() (Documents, error) {
	var docs Documents
	for _, name := range Names() {
		path, _ := d.Path(name)
		b, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Documents{}, fmt.Errorf("load %s: %w", name, err)
		}
		docs, _ = docs.With(name, string(b))
	}
	return docs, nil
}

// Write replaces the named document, creating directories as needed.
func (d *Dir) Write(name, content string) error {
	path, err := d.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
