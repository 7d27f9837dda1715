package reports

import "ems/internal/domain/period"

// GradeFor maps a score to its grade using the period's configured ranges.
func GradeFor(score int, ranges []period.GradeRange) (string, bool) {
	for _, r := range ranges {
		if score >= r.MinRange && score <= r.MaxRange {
			return r.Grade, true
		}
	}
	return "", false
}

// Distribution counts finalized scores per grade. Scores outside every range
// are collected under the "ungraded" key.
func Distribution(scores []EmployeeScore, ranges []period.GradeRange) map[string]int {
	out := map[string]int{}
	for _, r := range ranges {
		out[r.Grade] = 0
	}
	for _, s := range scores {
		grade, ok := GradeFor(s.Score, ranges)
		if !ok {
			out["ungraded"]++
			continue
		}
		out[grade]++
	}
	return out
}

func Summary(periodsInProgress, pendingApprovals, mappingsTotal, mappingsSubmitted int) map[string]any {
	completion := 0.0
	if mappingsTotal > 0 {
		completion = float64(mappingsSubmitted) / float64(mappingsTotal)
	}
	return map[string]any{
		"periodsInProgress":    periodsInProgress,
		"pendingApprovals":     pendingApprovals,
		"mappings":             mappingsTotal,
		"fullySubmitted":       mappingsSubmitted,
		"submissionCompletion": completion,
	}
}
