package ledger

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fjacquet/ledger-import/internal/fileutils"
	"fjacquet/ledger-import/internal/models"
)

// FileSource reads a snapshot from a YAML file on every call.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Snapshot implements Source.
func (f *FileSource) Snapshot(_ context.Context) (*Snapshot, error) {
	return LoadSnapshotFile(f.Path)
}

// LoadSnapshotFile decodes a YAML snapshot.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger snapshot %s: %w", path, err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode ledger snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// SaveSnapshotFile writes snap as YAML.
func SaveSnapshotFile(path string, snap *Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}
	if err := fileutils.WriteFileAtomic(path, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("failed to write ledger snapshot %s: %w", path, err)
	}
	return nil
}
