package settings

import (
	"errors"
	"fmt"
)

// Document file names.
const (
	IdentityFile = "IDENTITY.md"
	SoulFile     = "SOUL.md"
	UserFile     = "USER.md"
	AgentsFile   = "AGENTS.md"
)

// CommonDir is the directory holding documents shared by all users.
const CommonDir = "common"

// ErrUnknownDocument is returned for names other than the four documents.
var ErrUnknownDocument = errors.New("unknown settings document")

// Names lists the documents in prompt order.
func Names() []string {
	return []string{IdentityFile, SoulFile, AgentsFile, UserFile}
}

// Shared reports whether name lives in the common directory.
func Shared(name string) bool {
	return name == AgentsFile
}

// Documents is an immutable snapshot of the configuration documents.
// Missing files load as empty strings.
type Documents struct {
	Identity string
	Soul     string
	User     string
	Agents   string
}

// Get returns the content of the named document.
func (d Documents) Get(name string) (string, error) {
	switch name {
	case IdentityFile:
		return d.Identity, nil
	case SoulFile:
		return d.Soul, nil
	case UserFile:
		return d.User, nil
	case AgentsFile:
		return d.Agents, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocument, name)
}

// With returns a copy of d with the named document replaced.
func (d Documents) With(name, content string) (Documents, error) {
	switch name {
	case IdentityFile:
		d.Identity = content
	case SoulFile:
		d.Soul = content
	case UserFile:
		d.User = content
	case AgentsFile:
		d.Agents = content
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}
	return d, nil
}
