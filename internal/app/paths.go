package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .zeal/ project directory.
type Paths struct {
	Root string // .zeal/
	DB   string // .zeal/cache.db

	RunDir   string // .zeal/run/
	PortFile string // .zeal/run/http.port
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".zeal")
	return &Paths{
		Root:     root,
		DB:       filepath.Join(root, "cache.db"),
		RunDir:   filepath.Join(root, "run"),
		PortFile: filepath.Join(root, "run", "http.port"),
	}
}

// EnsureDirs creates all subdirectories under .zeal/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes runtime files written by `zeal serve`.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PortFile)
}
