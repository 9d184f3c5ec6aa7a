package runtime

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override adjusts a registered descriptor without replacing it. Zero fields
// leave the descriptor untouched.
type Override struct {
	Candidates         []string `yaml:"candidates"`
	MinVersion         string   `yaml:"min_version"`
	CompilerCandidates []string `yaml:"compiler_candidates"`
	CompilerMinVersion string   `yaml:"compiler_min_version"`
}

// Overrides maps language names to descriptor adjustments, typically loaded
// from a YAML file supplied by the host:
//
//	runtimes:
//	  python:
//	    candidates: [python3.12, python3]
//	  typescript:
//	    compiler_candidates: [/opt/node/bin/tsc]
type Overrides struct {
	Runtimes map[string]Override `yaml:"runtimes"`
}

// LoadOverrides reads descriptor overrides from a YAML file.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runtime overrides: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse runtime overrides %s: %w", path, err)
	}
	return &o, nil
}

// Apply returns a copy of the descriptor with any matching override applied.
func (o *Overrides) Apply(d Descriptor) Descriptor {
	if o == nil {
		return d
	}
	ov, ok := o.Runtimes[d.Name]
	if !ok {
		return d
	}
	if len(ov.Candidates) > 0 {
		d.Runner.Candidates = ov.Candidates
	}
	if ov.MinVersion != "" {
		d.Runner.MinVersion = ov.MinVersion
	}
	if d.Compiler != nil && (len(ov.CompilerCandidates) > 0 || ov.CompilerMinVersion != "") {
		c := *d.Compiler
		if len(ov.CompilerCandidates) > 0 {
			c.Candidates = ov.CompilerCandidates
		}
		if ov.CompilerMinVersion != "" {
			c.MinVersion = ov.CompilerMinVersion
		}
		d.Compiler = &c
	}
	return d
}
