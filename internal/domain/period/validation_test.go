package period

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateDateOrderAcceptsMonotonicDeadlines(t *testing.T) {
	err := ValidateDateOrder(date(2026, 1, 1),
		date(2026, 1, 15), date(2026, 2, 15), date(2026, 3, 1), date(2026, 3, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDateOrderAcceptsEqualDeadlines(t *testing.T) {
	err := ValidateDateOrder(date(2026, 1, 1),
		date(2026, 2, 1), date(2026, 2, 1), date(2026, 3, 1), date(2026, 3, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDateOrderRejectsDeadlineBeforeStart(t *testing.T) {
	err := ValidateDateOrder(date(2026, 1, 10), date(2026, 1, 5))
	if !errors.Is(err, ErrInvalidDateOrder) {
		t.Fatalf("expected ErrInvalidDateOrder, got %v", err)
	}
}

func TestValidateDateOrderRejectsOutOfOrderDeadlines(t *testing.T) {
	err := ValidateDateOrder(date(2026, 1, 1),
		date(2026, 2, 15), date(2026, 2, 1))
	if !errors.Is(err, ErrInvalidDateOrder) {
		t.Fatalf("expected ErrInvalidDateOrder, got %v", err)
	}
}

func TestValidateDateOrderSkipsZeroDeadlines(t *testing.T) {
	err := ValidateDateOrder(date(2026, 1, 1),
		time.Time{}, date(2026, 2, 1), time.Time{}, date(2026, 3, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateGradeRangesAcceptsExactPartition(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "D", MinRange: 0, MaxRange: 59},
		{Grade: "C", MinRange: 60, MaxRange: 74},
		{Grade: "B", MinRange: 75, MaxRange: 89},
		{Grade: "A", MinRange: 90, MaxRange: 100},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateGradeRangesAcceptsUnsortedInput(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "A", MinRange: 90, MaxRange: 100},
		{Grade: "D", MinRange: 0, MaxRange: 59},
		{Grade: "B", MinRange: 75, MaxRange: 89},
		{Grade: "C", MinRange: 60, MaxRange: 74},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateGradeRangesRejectsGap(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "D", MinRange: 0, MaxRange: 59},
		{Grade: "A", MinRange: 70, MaxRange: 100},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); !errors.Is(err, ErrInvalidGradeRange) {
		t.Fatalf("expected ErrInvalidGradeRange, got %v", err)
	}
}

func TestValidateGradeRangesRejectsOverlap(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "D", MinRange: 0, MaxRange: 60},
		{Grade: "A", MinRange: 60, MaxRange: 100},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); !errors.Is(err, ErrInvalidGradeRange) {
		t.Fatalf("expected ErrInvalidGradeRange, got %v", err)
	}
}

func TestValidateGradeRangesRejectsNonZeroStart(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "A", MinRange: 10, MaxRange: 100},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); !errors.Is(err, ErrInvalidGradeRange) {
		t.Fatalf("expected ErrInvalidGradeRange, got %v", err)
	}
}

func TestValidateGradeRangesRejectsInvertedBounds(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "A", MinRange: 0, MaxRange: -1},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); !errors.Is(err, ErrInvalidGradeRange) {
		t.Fatalf("expected ErrInvalidGradeRange, got %v", err)
	}
}

func TestValidateGradeRangesRejectsPartialCoverage(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "D", MinRange: 0, MaxRange: 59},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); !errors.Is(err, ErrInvalidGradeRange) {
		t.Fatalf("expected ErrInvalidGradeRange for ranges stopping at 59, got %v", err)
	}
}

func TestValidateGradeRangesRejectsOvershoot(t *testing.T) {
	ranges := []GradeRange{
		{Grade: "D", MinRange: 0, MaxRange: 59},
		{Grade: "A", MinRange: 60, MaxRange: 120},
	}
	if err := ValidateGradeRanges(ranges, GradeScaleMax); !errors.Is(err, ErrInvalidGradeRange) {
		t.Fatalf("expected ErrInvalidGradeRange for ranges ending past the scale, got %v", err)
	}
}

func TestValidateGradeRangesRejectsEmptySet(t *testing.T) {
	if err := ValidateGradeRanges(nil, GradeScaleMax); !errors.Is(err, ErrInvalidGradeRange) {
		t.Fatalf("expected ErrInvalidGradeRange, got %v", err)
	}
}
