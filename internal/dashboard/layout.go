package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidLayout is returned for layout files with missing or duplicate
// box names.
var ErrInvalidLayout = errors.New("invalid dashboard layout")

// Layout is a YAML dashboard definition replacing the built-in boxes.
type Layout struct {
	Boxes []Box `yaml:"boxes"`
}

// ReadLayout decodes a layout.
func ReadLayout(r io.Reader) (*Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}

	seen := make(map[string]bool, len(l.Boxes))
	for i, b := range l.Boxes {
		if b.Name == "" {
			return nil, fmt.Errorf("%w: box %d has no name", ErrInvalidLayout, i)
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("%w: duplicate box %q", ErrInvalidLayout, b.Name)
		}
		seen[b.Name] = true
		if b.Kind != KindSupply && b.View == "" {
			return nil, fmt.Errorf("%w: box %q has no view", ErrInvalidLayout, b.Name)
		}
	}
	return &l, nil
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()
	return ReadLayout(f)
}
