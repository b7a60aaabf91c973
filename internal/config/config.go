// Package config resolves the run settings from the repo-level
// .reportcard.yml file, environment variables and CLI flags. The pipeline
// never sees YAML; it receives the already-normalized Settings value.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v2"
)

// DefaultFile is the conventional settings file location.
const DefaultFile = ".reportcard.yml"

// Display tunes the rendered output.
type Display struct {
	// ShowSlowest is how many of the slowest test cases to render; 0 hides
	// the section.
	ShowSlowest int `yaml:"showSlowest"`
	// ShowFileDetails toggles the per-file coverage tables.
	ShowFileDetails bool `yaml:"showFileDetails"`
}

// Settings are the normalized threshold and display options.
type Settings struct {
	// BaseBranch is the default comparison baseline.
	BaseBranch string `yaml:"baseBranch"`
	// MinCoverage fails the run when the aggregate line rate drops below
	// it; 0 disables the check.
	MinCoverage float64 `yaml:"minCoverage"`
	// FailOnCoverageDecrease fails the run when the comparison shows the
	// line rate dropped against the base.
	FailOnCoverageDecrease bool `yaml:"failOnCoverageDecrease"`

	// Matrix qualifiers baked into the artifact names.
	Flags   []string `yaml:"flags"`
	Variant string   `yaml:"variant"`
	Job     string   `yaml:"job"`

	Display Display `yaml:"display"`
}

// Default returns the settings used when no file overrides them.
func Default() Settings {
	return Settings{
		BaseBranch: "main",
		Display:    Display{ShowSlowest: 5, ShowFileDetails: true},
	}
}

// Load reads settings from path, layered over the defaults. An empty path
// means the conventional file, which is allowed to be absent; an explicit
// path must exist.
func Load(path string) (Settings, error) {
	s := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return s, nil
		}
		return s, errors.Wrapf(err, "reading settings file %s", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "parsing settings file %s", path)
	}
	return s, nil
}

// ApplyOverrides layers viper-bound flag/env values over the file settings.
// Zero values stay unset so a bare flag default never clobbers the file.
func (s *Settings) ApplyOverrides() {
	if v := viper.GetString("base-branch"); v != "" {
		s.BaseBranch = v
	}
	if v := viper.GetFloat64("min-coverage"); v > 0 {
		s.MinCoverage = v
	}
	if viper.GetBool("fail-on-decrease") {
		s.FailOnCoverageDecrease = true
	}
	if v := viper.GetStringSlice("flags"); len(v) > 0 {
		s.Flags = v
	}
	if v := viper.GetString("variant"); v != "" {
		s.Variant = v
	}
	if v := viper.GetString("job"); v != "" {
		s.Job = v
	}
}
