package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const standardPolicyYAML = `
age_groups:
  - name: Infant
    min_age_months: 0
    max_age_months: 18
    max_children_per_staff: 5
  - name: Toddler
    min_age_months: 18
    max_age_months: 36
    max_children_per_staff: 8
  - name: Preschool
    min_age_months: 36
    max_age_months: 60
    max_children_per_staff: 10
  - name: SchoolAge
    min_age_months: 60
    max_children_per_staff: 20
`

func TestLoadRatioPolicy_Standard(t *testing.T) {
	policy, err := LoadRatioPolicy(writePolicyFile(t, standardPolicyYAML))
	require.NoError(t, err)
	require.Len(t, policy.AgeGroups, 4)

	toddler, ok := policy.Lookup("Toddler")
	require.True(t, ok)
	assert.Equal(t, 18, toddler.MinAgeMonths)
	require.NotNil(t, toddler.MaxAgeMonths)
	assert.Equal(t, 36, *toddler.MaxAgeMonths)
	assert.Equal(t, 8, toddler.MaxChildrenPerStaff)

	// SchoolAge is unbounded above
	schoolAge, ok := policy.Lookup("SchoolAge")
	require.True(t, ok)
	assert.Nil(t, schoolAge.MaxAgeMonths)
	assert.Equal(t, 20, schoolAge.MaxChildrenPerStaff)
}

func TestLoadRatioPolicy_LookupUnknownGroup(t *testing.T) {
	policy, err := LoadRatioPolicy(writePolicyFile(t, standardPolicyYAML))
	require.NoError(t, err)

	_, ok := policy.Lookup("Kindergarten")
	assert.False(t, ok, "unconfigured age group must report not-found, never a default")
}

func TestLoadRatioPolicy_RejectsDuplicateGroup(t *testing.T) {
	_, err := LoadRatioPolicy(writePolicyFile(t, `
age_groups:
  - name: Infant
    min_age_months: 0
    max_age_months: 18
    max_children_per_staff: 5
  - name: Infant
    min_age_months: 18
    max_age_months: 36
    max_children_per_staff: 8
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate age group")
}

func TestLoadRatioPolicy_RejectsNonPositiveRatio(t *testing.T) {
	_, err := LoadRatioPolicy(writePolicyFile(t, `
age_groups:
  - name: Infant
    min_age_months: 0
    max_age_months: 18
    max_children_per_staff: 0
`))
	require.Error(t, err)
}

func TestLoadRatioPolicy_RejectsInvertedBracket(t *testing.T) {
	_, err := LoadRatioPolicy(writePolicyFile(t, `
age_groups:
  - name: Toddler
    min_age_months: 36
    max_age_months: 18
    max_children_per_staff: 8
`))
	require.Error(t, err)
}

func TestLoadRatioPolicy_MissingFile(t *testing.T) {
	_, err := LoadRatioPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
