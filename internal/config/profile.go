package config

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Profile is a reusable set of import options stored as YAML:
//
//	format: csv
//	target: product
//	options:
//	  csvDelimiter: ";"
//	  csvHeaders: [code, name, description, stock, cost, discontinued]
//	  groups: [import]
type Profile struct {
	Format  string         `yaml:"format"`
	Target  string         `yaml:"target"`
	Options map[string]any `yaml:"options"`
}

// LoadProfile reads a YAML profile from path. Unknown top-level keys are rejected.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read profile %s", path)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile document.
func ParseProfile(data []byte) (*Profile, error) {
	p := &Profile{}
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	return p, nil
}

// Merge returns a new option map holding the profile options overlaid by
// explicit. Keys present in explicit always win.
func (p *Profile) Merge(explicit map[string]any) map[string]any {
	out := make(map[string]any, len(p.Options)+len(explicit))
	for k, v := range p.Options {
		out[k] = v
	}
	for k, v := range explicit {
		out[k] = v
	}
	return out
}
