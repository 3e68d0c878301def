package models

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AgeGroupPolicy is one regulatory age bracket and its staffing ceiling.
// Ages are in whole months; the bracket is half-open [MinAgeMonths, MaxAgeMonths).
// A nil MaxAgeMonths means the bracket is unbounded above.
type AgeGroupPolicy struct {
	Name                string `yaml:"name" validate:"required"`
	MinAgeMonths        int    `yaml:"min_age_months" validate:"gte=0"`
	MaxAgeMonths        *int   `yaml:"max_age_months" validate:"omitempty,gtfield=MinAgeMonths"`
	MaxChildrenPerStaff int    `yaml:"max_children_per_staff" validate:"gte=1"`
}

// RatioPolicy is the full age-group ratio table. It is loaded once at process
// start and immutable thereafter; changing ratios is a configuration
// deployment, not a data mutation.
type RatioPolicy struct {
	AgeGroups []AgeGroupPolicy `yaml:"age_groups" validate:"required,min=1,dive"`
}

// Lookup returns the policy entry for the named age group. The second return
// is false when the age group is not configured; callers must treat that as a
// policy gap, never substitute a default ratio.
func (p *RatioPolicy) Lookup(ageGroup string) (AgeGroupPolicy, bool) {
	for _, g := range p.AgeGroups {
		if g.Name == ageGroup {
			return g, true
		}
	}
	return AgeGroupPolicy{}, false
}

// LoadRatioPolicy reads and validates the ratio policy YAML file.
func LoadRatioPolicy(path string) (*RatioPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ratio policy file: %w", err)
	}

	var policy RatioPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse ratio policy file: %w", err)
	}

	if err := validator.New().Struct(&policy); err != nil {
		return nil, fmt.Errorf("invalid ratio policy: %w", err)
	}

	seen := make(map[string]bool, len(policy.AgeGroups))
	for _, g := range policy.AgeGroups {
		if seen[g.Name] {
			return nil, fmt.Errorf("invalid ratio policy: duplicate age group %q", g.Name)
		}
		seen[g.Name] = true
	}

	return &policy, nil
}
