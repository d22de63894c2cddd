package project

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/llumina/pkg/errors"
)

// FileName is the conventional project file name inside a project directory.
const FileName = "llumina.toml"

// Load reads, defaults and validates a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "project file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read project %s", path)
	}

	p, err := Decode(data)
	if err != nil {
		return nil, err
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// Decode parses TOML project data, applying defaults before validation.
func Decode(data []byte) (*Project, error) {
	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse project")
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Encode renders p as TOML.
func Encode(p *Project) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode project")
	}
	return buf.Bytes(), nil
}

// Save writes p to path through a temporary file in the same directory so a
// crash never leaves a truncated project behind.
func Save(path string, p *Project) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".llumina-*.toml")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save project")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "save project")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save project")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save project")
	}
	p.dir = dir
	return nil
}
