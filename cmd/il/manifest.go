package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists routines for "il build".
type Manifest struct {
	Library  string    `yaml:"library,omitempty"`
	Routines []Routine `yaml:"routines"`
}

// Routine is one entry of a manifest. Exactly one of Source and File is set;
// File is relative to the manifest.
type Routine struct {
	Name   string   `yaml:"name"`
	Source string   `yaml:"source,omitempty"`
	File   string   `yaml:"file,omitempty"`
	Flags  []string `yaml:"flags,omitempty"`
}

func loadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range m.Routines {
		r := &m.Routines[i]
		switch {
		case r.Source != "" && r.File != "":
			return Manifest{}, fmt.Errorf("routine %q: source and file are exclusive", r.Name)
		case r.File != "":
			src, err := os.ReadFile(filepath.Join(dir, r.File))
			if err != nil {
				return Manifest{}, fmt.Errorf("routine %q: %w", r.Name, err)
			}
			r.Source = string(src)
		case r.Source == "":
			return Manifest{}, fmt.Errorf("routine %q: no source", r.Name)
		}
		if r.Name == "" {
			r.Name = fmt.Sprintf("routine%d", i)
		}
	}
	if m.Library != "" && !filepath.IsAbs(m.Library) {
		m.Library = filepath.Join(dir, m.Library)
	}
	return m, nil
}
