package period

import (
	"fmt"
	"sort"
	"time"
)

// ValidateDateOrder checks that every deadline falls on or after the period
// start and that deadlines do not decrease in phase order. Zero deadlines are
// skipped so partial updates can validate only what they carry.
func ValidateDateOrder(startDate time.Time, deadlines ...time.Time) error {
	previous := startDate
	for _, deadline := range deadlines {
		if deadline.IsZero() {
			continue
		}
		if deadline.Before(startDate) {
			return fmt.Errorf("%w: deadline %s precedes period start %s",
				ErrInvalidDateOrder, deadline.Format("2006-01-02"), startDate.Format("2006-01-02"))
		}
		if deadline.Before(previous) {
			return fmt.Errorf("%w: deadline %s precedes an earlier phase deadline %s",
				ErrInvalidDateOrder, deadline.Format("2006-01-02"), previous.Format("2006-01-02"))
		}
		previous = deadline
	}
	return nil
}

// ValidateGradeRanges checks that the ranges partition [0, max] exactly:
// starting at zero, inclusive bounds, adjacent ranges meeting without gap or
// overlap, and the last range reaching max.
func ValidateGradeRanges(ranges []GradeRange, max int) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: at least one range is required", ErrInvalidGradeRange)
	}

	sorted := make([]GradeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinRange < sorted[j].MinRange })

	if sorted[0].MinRange != 0 {
		return fmt.Errorf("%w: ranges must start at 0, got %d", ErrInvalidGradeRange, sorted[0].MinRange)
	}

	for i, r := range sorted {
		if r.Grade == "" {
			return fmt.Errorf("%w: range %d has an empty grade", ErrInvalidGradeRange, i)
		}
		if r.MaxRange < r.MinRange {
			return fmt.Errorf("%w: grade %s has max %d below min %d", ErrInvalidGradeRange, r.Grade, r.MaxRange, r.MinRange)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		switch {
		case r.MinRange <= prev.MaxRange:
			return fmt.Errorf("%w: grade %s overlaps grade %s", ErrInvalidGradeRange, r.Grade, prev.Grade)
		case r.MinRange > prev.MaxRange+1:
			return fmt.Errorf("%w: gap between grade %s and grade %s", ErrInvalidGradeRange, prev.Grade, r.Grade)
		}
	}

	if top := sorted[len(sorted)-1].MaxRange; top != max {
		return fmt.Errorf("%w: ranges must end at %d, got %d", ErrInvalidGradeRange, max, top)
	}
	return nil
}

// ValidateDetails runs the full pre-persistence validation for a create or
// update payload.
func ValidateDetails(d PeriodDetails) error {
	if err := ValidateDateOrder(d.StartDate,
		d.EvaluationSetupDeadline,
		d.PerformanceDeadline,
		d.SelfEvaluationDeadline,
		d.PeerEvaluationDeadline,
	); err != nil {
		return err
	}
	if d.EndDate != nil && d.EndDate.Before(d.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidDateOrder)
	}
	if len(d.GradeRanges) > 0 {
		if err := ValidateGradeRanges(d.GradeRanges, GradeScaleMax); err != nil {
			return err
		}
	}
	return nil
}
