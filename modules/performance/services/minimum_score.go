package services

import (
	"strings"

	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
)

const DefaultWarningThreshold = 3

// IsMinimumScore reports whether every non-GOALS rating sits at the bottom
// of the template's scale. A record with no such ratings is not minimum.
func IsMinimumScore(t types.Template, ratings []types.Rating) bool {
	counted := 0
	for _, r := range ratings {
		if strings.EqualFold(r.Category, types.CategoryGoals) {
			continue
		}
		if r.Score != t.RatingScaleMin {
			return false
		}
		counted++
	}
	return counted > 0
}

// crossesThreshold is true only for the record that takes the employee's
// published minimum-score count to exactly threshold.
func crossesThreshold(out types.MinimumScoreOutcome, threshold int) bool {
	return out.Record.MinimumScore && !out.WasMinimum && out.MinimumCount == threshold
}
