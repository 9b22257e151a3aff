package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk YAML form of the plugin options, used by the CLI:
//
//	out: dist
//	verbose: true
//	resources:
//	  - src: assets/*.{txt,json}
//	    dst: dist/data
//	  - src: static
type Manifest struct {
	Verbose   bool       `yaml:"verbose,omitempty"`
	Out       string     `yaml:"out,omitempty"`
	Resources []Resource `yaml:"resources"`
}

// LoadManifest reads and parses a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %s", path)
	}

	return m, nil
}
