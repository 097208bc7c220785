package config

import (
	"fmt"

	"github.com/0xcro3dile/ragroute/internal/domain/routing"
)

// LoadRules reads a versioned rules file (.yaml, .yml or .toml) and compiles
// it. Sections the file leaves out keep their built-in values. An empty
// path returns the built-in rules.
func LoadRules(path string) (*routing.Rules, error) {
	if path == "" {
		return routing.DefaultRules(), nil
	}

	spec := routing.DefaultSpec()
	if err := decodeFile(path, &spec); err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	rules, err := routing.Compile(spec)
	if err != nil {
		return nil, fmt.Errorf("compiling rules from %s: %w", path, err)
	}
	return rules, nil
}
