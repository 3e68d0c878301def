package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carelane/ratio-engine/pkg/apperrors"
	"github.com/carelane/ratio-engine/pkg/models"
)

var oneHundred = decimal.NewFromInt(100)

// RatioCalculator combines a policy entry and a presence count into a full
// compliance verdict. It performs no I/O and is deterministic given the
// policy it was constructed with; the only failure modes are negative counts
// and an unconfigured age group.
type RatioCalculator struct {
	policy *models.RatioPolicy
}

func NewRatioCalculator(policy *models.RatioPolicy) *RatioCalculator {
	return &RatioCalculator{policy: policy}
}

// Evaluate computes the verdict for one age group at one instant.
//
// An undefined ratio (children present, zero staff) is exposed as
// RatioUnbounded, never as a numeric stand-in; only the storage layer maps
// the sentinel to a fixed out-of-range value. Zero staff with zero children
// is compliant with a zero ratio.
func (c *RatioCalculator) Evaluate(ageGroup string, staffCount, childCount int) (models.RatioEvaluation, error) {
	if staffCount < 0 || childCount < 0 {
		return models.RatioEvaluation{}, fmt.Errorf("%w: counts must be non-negative (staff=%d, children=%d)",
			apperrors.ErrInvalidParameters, staffCount, childCount)
	}

	entry, ok := c.policy.Lookup(ageGroup)
	if !ok {
		return models.RatioEvaluation{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownAgeGroup, ageGroup)
	}
	required := entry.MaxChildrenPerStaff

	eval := models.RatioEvaluation{
		AgeGroup:      ageGroup,
		StaffCount:    staffCount,
		ChildCount:    childCount,
		RequiredRatio: required,
		CalculatedAt:  time.Now().UTC(),
	}

	switch {
	case staffCount == 0 && childCount == 0:
		eval.IsCompliant = true
	case staffCount == 0:
		eval.RatioUnbounded = true
	default:
		eval.ActualRatio = decimal.NewFromInt(int64(childCount)).
			DivRound(decimal.NewFromInt(int64(staffCount)), 2)
		eval.IsCompliant = eval.ActualRatio.LessThanOrEqual(decimal.NewFromInt(int64(required)))
	}

	if staffCount > 0 && childCount > 0 {
		capacity := decimal.NewFromInt(int64(staffCount * required))
		eval.CompliancePercent = decimal.NewFromInt(int64(childCount)).
			Mul(oneHundred).
			DivRound(capacity, 2)
	} else {
		eval.CompliancePercent = decimal.Zero
	}

	if !eval.IsCompliant {
		// Minimum staff to reach compliance at the current child count.
		eval.StaffNeeded = ceilDiv(childCount, required) - staffCount
	}

	if eval.IsCompliant && staffCount > 0 {
		if spare := staffCount*required - childCount; spare > 0 {
			eval.AdditionalCapacity = spare
		}
	}

	return eval, nil
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
