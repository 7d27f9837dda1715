package period

import "errors"

var (
	ErrPeriodNotFound    = errors.New("evaluation period not found")
	ErrInvalidDateOrder  = errors.New("period deadlines must follow phase order")
	ErrInvalidGradeRange = errors.New("grade ranges must partition the score scale without gaps or overlaps")
	ErrInvalidPhase      = errors.New("unknown evaluation phase")
	ErrNotWaiting        = errors.New("evaluation period has already started")
)
