package evaluation

import "errors"

var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrMappingNotFound    = errors.New("evaluation period mapping not found")
	ErrAlreadyCompleted   = errors.New("evaluation has already been submitted")
	ErrMissingContent     = errors.New("evaluation content and score are required before submission")
	ErrScoreOutOfRange    = errors.New("score is outside the period's allowed range")
	ErrInvalidStep        = errors.New("unknown approval step")
	ErrInvalidStepStatus  = errors.New("unknown approval step status")
	ErrInvalidTransition  = errors.New("approval step transition not allowed")
	ErrCommentRequired    = errors.New("revision request comment is required")
	ErrEvaluatorRequired  = errors.New("secondary revision requests must name an evaluator")
)
