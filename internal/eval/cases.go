// Package eval scores the retrievers against a fixed case set using an
// LLM judge and writes one immutable report artifact per run.
package eval

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// CaseSet is the on-disk evaluation set: a named list of (query, reference
// answer) pairs.
type CaseSet struct {
	Version int               `yaml:"version"`
	Name    string            `yaml:"name"`
	Cases   []domain.EvalCase `yaml:"cases"`
}

// LoadCases reads a case set from a YAML file. Cases without an explicit
// ID get a positional one; cases without a query or reference are invalid.
func LoadCases(path string) (*CaseSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read cases %s: %v", domain.ErrConfiguration, path, err)
	}
	var set CaseSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: parse cases %s: %v", domain.ErrConfiguration, path, err)
	}
	if len(set.Cases) == 0 {
		return nil, fmt.Errorf("%w: case set %s holds no cases", domain.ErrConfiguration, path)
	}
	for i := range set.Cases {
		c := &set.Cases[i]
		if strings.TrimSpace(c.Query) == "" || strings.TrimSpace(c.Reference) == "" {
			return nil, fmt.Errorf("%w: case %d in %s needs both query and reference", domain.ErrConfiguration, i, path)
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("case_%d", i+1)
		}
	}
	return &set, nil
}
