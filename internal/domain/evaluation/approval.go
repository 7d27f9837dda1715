package evaluation

import "time"

// allowedTransitions encodes the per-step status machine:
// none → pending → approved|rejected, rejected → pending on resubmission.
// approved is terminal here; only a revision request (ForceStepStatus) can
// reopen it.
var allowedTransitions = map[string][]string{
	StepStatusNone:     {StepStatusPending},
	StepStatusPending:  {StepStatusApproved, StepStatusRejected},
	StepStatusRejected: {StepStatusPending},
	StepStatusApproved: {},
}

func validStepStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// StepStatus reads the named approval step's status from the row. Only the
// primary and secondary steps live on the approval row; criteria and self are
// tracked by the mapping's submission flags.
func (a StepApproval) StepStatus(step string) (string, error) {
	switch step {
	case StepPrimary:
		return a.PrimaryStatus, nil
	case StepSecondary:
		return a.SecondaryStatus, nil
	}
	return "", ErrInvalidStep
}

// ChangeStepStatus applies a validated transition to the named step and
// stamps the acting user and time. Pure state mutation, no I/O.
func ChangeStepStatus(a *StepApproval, step, newStatus, actorID string, now time.Time) error {
	if !validStepStatus(newStatus) {
		return ErrInvalidStepStatus
	}

	current, err := a.StepStatus(step)
	if err != nil {
		return err
	}
	if current == "" {
		current = StepStatusNone
	}

	allowed := false
	for _, candidate := range allowedTransitions[current] {
		if candidate == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	a.setStep(step, newStatus)
	a.ChangedBy = actorID
	a.ChangedAt = &now
	return nil
}

// ForceStepStatus bypasses transition checks. Reserved for the revision
// request flow, which may reopen an approved step.
func ForceStepStatus(a *StepApproval, step, newStatus, actorID string, now time.Time) error {
	if !validStepStatus(newStatus) {
		return ErrInvalidStepStatus
	}
	if _, err := a.StepStatus(step); err != nil {
		return err
	}
	a.setStep(step, newStatus)
	a.ChangedBy = actorID
	a.ChangedAt = &now
	return nil
}

func (a *StepApproval) setStep(step, status string) {
	switch step {
	case StepPrimary:
		a.PrimaryStatus = status
	case StepSecondary:
		a.SecondaryStatus = status
	}
}
