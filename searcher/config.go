package searcher

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the YAML form of the search options.
//
//	traversal: depth_first
//	max_levels: 8
//	max_expansions: 10000
//	max_depth: 6
//	time_limit: 30s
//	extract_steps: 100000
//	check_steps: 100000
//	status_interval: 5s
//	params:
//	  basis: ["012", "021"]
type Config struct {
	Traversal      Traversal      `yaml:"traversal"`
	MaxLevels      int            `yaml:"max_levels"`
	MaxExpansions  int            `yaml:"max_expansions"`
	MaxDepth       int            `yaml:"max_depth"`
	TimeLimit      time.Duration  `yaml:"time_limit"`
	ExtractSteps   int            `yaml:"extract_steps"`
	CheckSteps     int            `yaml:"check_steps"`
	StatusInterval time.Duration  `yaml:"status_interval"`
	Params         map[string]any `yaml:"params"`
}

// LoadConfig decodes a Config from YAML. Unknown keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(ErrOptionViolation, err.Error())
	}

	return c, nil
}

// Options translates c into searcher options. Unset fields keep defaults.
func (c Config) Options() []Option {
	opts := []Option{
		WithTraversal(c.Traversal),
		WithMaxLevels(c.MaxLevels),
		WithMaxExpansions(c.MaxExpansions),
		WithMaxDepth(c.MaxDepth),
		WithTimeLimit(c.TimeLimit),
		WithExtractSteps(c.ExtractSteps),
		WithCheckSteps(c.CheckSteps),
	}
	if c.StatusInterval != 0 {
		opts = append(opts, WithStatusInterval(c.StatusInterval))
	}
	if c.Params != nil {
		opts = append(opts, WithParams(c.Params))
	}

	return opts
}
