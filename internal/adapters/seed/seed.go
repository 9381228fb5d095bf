// Package seed supplies the fixed candidate list the store is seeded with on
// first boot.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

//go:embed candidates.yaml
var defaultCandidates []byte

type file struct {
	Candidates []domain.Candidate `yaml:"candidates"`
}

// Source reads candidates from a YAML file, or from the built-in list when
// no path is configured.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Candidates() ([]domain.Candidate, error) {
	raw := defaultCandidates
	if s.path != "" {
		var err error
		raw, err = os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read candidates file: %w", err)
		}
	}
	return Parse(raw)
}

func Parse(raw []byte) ([]domain.Candidate, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse candidates: %w", err)
	}
	if len(f.Candidates) == 0 {
		return nil, errors.New("candidate list is empty")
	}

	seen := make(map[string]struct{}, len(f.Candidates))
	for i, c := range f.Candidates {
		if c.ID == "" {
			return nil, fmt.Errorf("candidate #%d has no id", i+1)
		}
		if c.DisplayName == "" {
			return nil, fmt.Errorf("candidate %s has no display name", c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate candidate id %s", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return f.Candidates, nil
}
