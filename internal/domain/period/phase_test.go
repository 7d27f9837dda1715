package period

import (
	"testing"
	"time"
)

func TestNextPhaseWalksFullCycle(t *testing.T) {
	want := map[string]string{
		PhaseWaiting:         PhaseEvaluationSetup,
		PhaseEvaluationSetup: PhasePerformance,
		PhasePerformance:     PhaseSelfEvaluation,
		PhaseSelfEvaluation:  PhasePeerEvaluation,
		PhasePeerEvaluation:  PhaseCompleted,
	}
	for from, expected := range want {
		next, ok := NextPhase(from)
		if !ok || next != expected {
			t.Fatalf("NextPhase(%s) = %s, %v; want %s", from, next, ok, expected)
		}
	}
}

func TestNextPhaseTerminal(t *testing.T) {
	if _, ok := NextPhase(PhaseCompleted); ok {
		t.Fatal("completed phase must not advance")
	}
	if _, ok := NextPhase("bogus"); ok {
		t.Fatal("unknown phase must not advance")
	}
}

func TestDeadlineElapsedEndOfDaySemantics(t *testing.T) {
	deadline := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	sameDayLater := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	if DeadlineElapsed(deadline, sameDayLater) {
		t.Fatal("deadline day itself must remain open")
	}

	lastInstant := time.Date(2026, 3, 10, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if DeadlineElapsed(deadline, lastInstant) {
		t.Fatal("the last instant of the deadline day must remain open")
	}

	nextMidnight := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !DeadlineElapsed(deadline, nextMidnight) {
		t.Fatal("midnight after the deadline day must be elapsed")
	}
}

func TestPhaseDeadlineLookup(t *testing.T) {
	p := EvaluationPeriod{
		EvaluationSetupDeadline: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PerformanceDeadline:     time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		SelfEvaluationDeadline:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeerEvaluationDeadline:  time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	}

	if d, ok := PhaseDeadline(p, PhaseEvaluationSetup); !ok || !d.Equal(p.EvaluationSetupDeadline) {
		t.Fatalf("setup deadline mismatch: %v %v", d, ok)
	}
	if d, ok := PhaseDeadline(p, PhasePeerEvaluation); !ok || !d.Equal(p.PeerEvaluationDeadline) {
		t.Fatalf("peer deadline mismatch: %v %v", d, ok)
	}
	if _, ok := PhaseDeadline(p, PhaseWaiting); ok {
		t.Fatal("waiting phase has no deadline")
	}
	if _, ok := PhaseDeadline(p, PhaseCompleted); ok {
		t.Fatal("completed phase has no deadline")
	}
}
