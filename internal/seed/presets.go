package seed

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Presets are named Options bundles. The built-in set can be extended or
// overridden from a YAML file shaped like:
//
//	presets:
//	  demo:
//	    users: 20
//	    articles: 60
//	    tags: [go, testing]
type Presets map[string]Options

type presetFile struct {
	Presets Presets `yaml:"presets"`
}

// BuiltInPresets covers the common local setups.
var BuiltInPresets = Presets{
	"minimal": {
		Users:                 3,
		Articles:              5,
		MaxCommentsPerArticle: 2,
		FollowsPerUser:        1,
		FavoritesPerUser:      2,
		FastHash:              true,
	},
	"demo": {
		Users:                 25,
		Articles:              80,
		MaxCommentsPerArticle: 6,
		FollowsPerUser:        5,
		FavoritesPerUser:      10,
		MaxDays:               60,
	},
	"load": {
		Users:                 500,
		Articles:              5000,
		MaxCommentsPerArticle: 15,
		FollowsPerUser:        40,
		FavoritesPerUser:      60,
		MaxTagsPerArticle:     5,
		MaxDays:               365,
		FastHash:              true,
	},
}

// ParsePresets decodes a preset document. Unknown keys are rejected so a
// typo does not silently fall back to zero.
func ParsePresets(r io.Reader) (Presets, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc presetFile
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return Presets{}, nil
		}
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for name, opts := range doc.Presets {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("preset with empty name")
		}
		if opts.Users < 0 || opts.Articles < 0 {
			return nil, fmt.Errorf("preset %q: counts must not be negative", name)
		}
		if opts.Articles > 0 && opts.Users == 0 {
			return nil, fmt.Errorf("preset %q: articles need at least one user", name)
		}
	}
	if doc.Presets == nil {
		doc.Presets = Presets{}
	}
	return doc.Presets, nil
}

// LoadPresetFile reads path and layers its presets over the built-in ones.
func LoadPresetFile(path string) (Presets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	fromFile, err := ParsePresets(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return BuiltInPresets.Merge(fromFile), nil
}

// Merge returns p with every entry of other added or replaced.
func (p Presets) Merge(other Presets) Presets {
	out := make(Presets, len(p)+len(other))
	for name, opts := range p {
		out[name] = opts
	}
	for name, opts := range other {
		out[name] = opts
	}
	return out
}

// Lookup returns the named preset.
func (p Presets) Lookup(name string) (Options, error) {
	opts, ok := p[name]
	if !ok {
		return Options{}, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(p.Names(), ", "))
	}
	return opts, nil
}

// Names lists the preset names alphabetically.
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
