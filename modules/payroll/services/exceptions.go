package services

import (
	"strconv"
	"strings"

	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
)

// ClassifySeverity matches description substrings case-insensitively; the
// first matching group wins.
func ClassifySeverity(desc string) types.ExceptionSeverity {
	d := strings.ToLower(desc)
	switch {
	case containsAny(d, "missing bank", "negative", "exceeds gross"):
		return types.SeverityHigh
	case containsAny(d, "pay grade", "exceeds net salary", "new hire", "offboarding"):
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

func ClassifyType(desc string) types.ExceptionType {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "missing bank"):
		return types.ExceptionMissingBank
	case strings.Contains(d, "negative"):
		return types.ExceptionNegativePay
	case containsAny(d, "exceeds gross", "salary spike", "exceeds net"):
		return types.ExceptionSalarySpike
	default:
		return types.ExceptionCalculationError
	}
}

// ParseExceptions splits semicolon-delimited text into trimmed, non-empty
// descriptions.
func ParseExceptions(text string) []string {
	out := []string{}
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BuildExceptions turns descriptions into records with ids
// "<detailID>-<index>", counting from start.
func BuildExceptions(detailID, runID, employeeID string, descs []string, start int) []types.PayrollException {
	out := make([]types.PayrollException, 0, len(descs))
	for i, desc := range descs {
		out = append(out, types.PayrollException{
			ID:           detailID + "-" + strconv.Itoa(start+i),
			PayrollRunID: runID,
			EmployeeID:   employeeID,
			Type:         ClassifyType(desc),
			Severity:     ClassifySeverity(desc),
			Description:  desc,
			Status:       types.ExceptionStatusOpen,
		})
	}
	return out
}

// nextExceptionIndex returns one past the highest index used by existing
// ids, so removed ids are never reissued.
func nextExceptionIndex(detailID string, existing []types.PayrollException) int {
	next := 0
	for _, e := range existing {
		suffix, ok := strings.CutPrefix(e.ID, detailID+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	if next < len(existing) {
		next = len(existing)
	}
	return next
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
