package content

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"codearena/internal/models"
)

// Source is one exercise document read from disk
type Source struct {
	Path       string
	Body       []byte // normalized to JSON regardless of the file format
	Definition *models.ExerciseDefinition
}

// LoadDir reads every .json, .yaml and .yml file in dir. Documents without an id
// take the file name. Files that cannot be decoded are logged and skipped; files
// that decode but hold no playable content are returned so they can surface as
// "no content" exercises.
func LoadDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sources []Source
	for _, name := range names {
		src, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Skipping content file %s: %v", name, err)
			continue
		}
		sources = append(sources, *src)
	}
	return sources, nil
}

// LoadFile reads a single exercise document
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	if _, ok := raw["id"]; !ok {
		raw["id"] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s as JSON: %w", path, err)
	}

	def, err := ParseMap(raw)
	if def == nil {
		return nil, err
	}
	return &Source{Path: path, Body: body, Definition: def}, nil
}

func decode(path string, data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("empty document")
	}
	return raw, nil
}
