// Package dotdir resolves the .sassy/ directory that holds config.toml, the
// record database and the index and buffer snapshots.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const dirName = ".sassy"

// Manager resolves the .sassy/ directory.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to the .sassy/ directory, creating it when
// needed. Precedence:
//  1. override
//  2. ./.sassy/ when it exists
//  3. ~/.sassy/
func (m *Manager) Target(override string) (string, error) {
	var dir string

	switch {
	case override != "":
		dir = override

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating sassy directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// File returns the path of name inside the resolved directory. Absolute
// names are returned unchanged.
func (m *Manager) File(override, name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}

	dir, err := m.Target(override)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, name), nil
}

func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
