package tools

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type registryFile struct {
	Version int    `json:"version"`
	Tools   []Spec `json:"tools"`
}

// Load reads persisted specs from path. A missing file is not an
// error: the registry starts with built-ins only.
func (r *Registry) Load(fs afero.Fs, path string) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("check tools file: %w", err)
	}
	if !exists {
		return nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read tools file: %w", err)
	}
	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse tools file: %w", err)
	}

	for _, spec := range file.Tools {
		if _, err := r.Upsert(spec); err != nil {
			r.log.Warn("skipping invalid tool spec", zap.Error(err))
		}
	}
	return nil
}

// Save writes the current specs to path, creating parent directories
// as needed.
func (r *Registry) Save(fs afero.Fs, path string) error {
	file := registryFile{Version: 1, Tools: r.List()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tools file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create tools dir: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write tools file: %w", err)
	}
	return nil
}
