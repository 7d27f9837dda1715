package evaluation

const (
	StepCriteria  = "criteria"
	StepSelf      = "self"
	StepPrimary   = "primary"
	StepSecondary = "secondary"

	StepStatusNone     = "none"
	StepStatusPending  = "pending"
	StepStatusApproved = "approved"
	StepStatusRejected = "rejected"

	TypePrimary   = "primary"
	TypeSecondary = "secondary"

	TargetEvaluator = "evaluator"
	TargetManager   = "manager"
)

var Steps = []string{StepCriteria, StepSelf, StepPrimary, StepSecondary}

func ValidStep(step string) bool {
	for _, s := range Steps {
		if s == step {
			return true
		}
	}
	return false
}

func ValidEvaluationType(t string) bool {
	return t == TypePrimary || t == TypeSecondary
}
