package period

import "time"

var phaseOrder = []string{
	PhaseWaiting,
	PhaseEvaluationSetup,
	PhasePerformance,
	PhaseSelfEvaluation,
	PhasePeerEvaluation,
	PhaseCompleted,
}

func ValidPhase(phase string) bool {
	for _, p := range phaseOrder {
		if p == phase {
			return true
		}
	}
	return false
}

// NextPhase returns the phase following the given one. ok is false for the
// terminal phase and for unknown values.
func NextPhase(phase string) (string, bool) {
	for i, p := range phaseOrder {
		if p == phase {
			if i+1 >= len(phaseOrder) {
				return "", false
			}
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// PhaseDeadline returns the deadline that closes the given phase. Phases
// without a deadline (waiting, completed) report ok=false.
func PhaseDeadline(p EvaluationPeriod, phase string) (time.Time, bool) {
	switch phase {
	case PhaseEvaluationSetup:
		return p.EvaluationSetupDeadline, !p.EvaluationSetupDeadline.IsZero()
	case PhasePerformance:
		return p.PerformanceDeadline, !p.PerformanceDeadline.IsZero()
	case PhaseSelfEvaluation:
		return p.SelfEvaluationDeadline, !p.SelfEvaluationDeadline.IsZero()
	case PhasePeerEvaluation:
		return p.PeerEvaluationDeadline, !p.PeerEvaluationDeadline.IsZero()
	}
	return time.Time{}, false
}

// EndOfDay returns the last instant of the deadline's calendar day. A phase
// stays open through the whole deadline day; the sweep only advances once
// now is strictly past this instant.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// DeadlineElapsed reports whether the phase deadline has fully passed under
// end-of-day semantics.
func DeadlineElapsed(deadline, now time.Time) bool {
	return now.After(EndOfDay(deadline))
}
