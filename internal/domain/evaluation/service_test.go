package evaluation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	mappings      map[string]Mapping
	approvals     map[string]StepApproval
	selfEvals     map[string]WbsSelfEvaluation
	downward      map[string]DownwardCandidate
	revisions     []RevisionRequest
	scoreCap      int
	primaryEval   string
	secondaryIDs  []string
	completeFails map[string]error
	nextID        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mappings:      map[string]Mapping{},
		approvals:     map[string]StepApproval{},
		selfEvals:     map[string]WbsSelfEvaluation{},
		downward:      map[string]DownwardCandidate{},
		completeFails: map[string]error{},
		scoreCap:      100,
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func mappingKey(periodID, employeeID string) string { return periodID + "/" + employeeID }

func (f *fakeStore) GetOrCreateMapping(_ context.Context, periodID, employeeID, _ string) (Mapping, error) {
	key := mappingKey(periodID, employeeID)
	if m, ok := f.mappings[key]; ok {
		return m, nil
	}
	m := Mapping{ID: f.id("m"), PeriodID: periodID, EmployeeID: employeeID, CreatedAt: time.Now()}
	f.mappings[key] = m
	return m, nil
}

func (f *fakeStore) GetMapping(_ context.Context, periodID, employeeID string) (Mapping, error) {
	if m, ok := f.mappings[mappingKey(periodID, employeeID)]; ok {
		return m, nil
	}
	return Mapping{}, ErrMappingNotFound
}

func (f *fakeStore) SubmitCriteria(_ context.Context, mappingID string) error {
	for key, m := range f.mappings {
		if m.ID == mappingID {
			now := time.Now()
			m.CriteriaSubmitted = true
			m.CriteriaSubmittedAt = &now
			f.mappings[key] = m
			return nil
		}
	}
	return ErrMappingNotFound
}

func (f *fakeStore) GetOrCreateStepApproval(_ context.Context, mappingID, _ string) (StepApproval, error) {
	if a, ok := f.approvals[mappingID]; ok {
		return a, nil
	}
	a := StepApproval{ID: f.id("a"), MappingID: mappingID, PrimaryStatus: StepStatusNone, SecondaryStatus: StepStatusNone}
	f.approvals[mappingID] = a
	return a, nil
}

func (f *fakeStore) SetStepStatus(_ context.Context, mappingID, step, status, actorID string) error {
	a := f.approvals[mappingID]
	switch step {
	case StepPrimary:
		a.PrimaryStatus = status
	case StepSecondary:
		a.SecondaryStatus = status
	default:
		return ErrInvalidStep
	}
	a.ChangedBy = actorID
	f.approvals[mappingID] = a
	return nil
}

func (f *fakeStore) UpsertSelfEvaluation(_ context.Context, periodID, employeeID, wbsItemID, content string, score *int) (string, error) {
	for id, e := range f.selfEvals {
		if e.PeriodID == periodID && e.EmployeeID == employeeID && e.WbsItemID == wbsItemID {
			e.Content = content
			e.Score = score
			f.selfEvals[id] = e
			return id, nil
		}
	}
	id := f.id("se")
	f.selfEvals[id] = WbsSelfEvaluation{ID: id, PeriodID: periodID, EmployeeID: employeeID, WbsItemID: wbsItemID, Content: content, Score: score, CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeStore) GetSelfEvaluation(_ context.Context, evaluationID string) (WbsSelfEvaluation, error) {
	if e, ok := f.selfEvals[evaluationID]; ok {
		return e, nil
	}
	return WbsSelfEvaluation{}, ErrEvaluationNotFound
}

func (f *fakeStore) ListSelfEvaluations(_ context.Context, periodID, employeeID string) ([]WbsSelfEvaluation, error) {
	var out []WbsSelfEvaluation
	for _, e := range f.selfEvals {
		if e.PeriodID == periodID && e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) SubmitSelfEvaluation(_ context.Context, evaluationID, target, _ string) error {
	e, ok := f.selfEvals[evaluationID]
	if !ok {
		return ErrEvaluationNotFound
	}
	now := time.Now()
	switch target {
	case TargetEvaluator:
		e.SubmittedToEvaluator = true
		e.EvaluatorSubmittedAt = &now
	case TargetManager:
		e.SubmittedToManager = true
		e.ManagerSubmittedAt = &now
	}
	f.selfEvals[evaluationID] = e
	return nil
}

func (f *fakeStore) UpsertDownward(_ context.Context, periodID, employeeID, evaluatorID, wbsItemID, evalType, content string, score *int) (string, error) {
	id := f.id("de")
	f.downward[id] = DownwardCandidate{
		DownwardEvaluation: DownwardEvaluation{ID: id, PeriodID: periodID, EmployeeID: employeeID, EvaluatorID: evaluatorID, WbsItemID: wbsItemID, EvaluationType: evalType, Content: content, Score: score, CreatedAt: time.Now()},
		AssignmentActive:   true,
	}
	return id, nil
}

func (f *fakeStore) GetDownward(_ context.Context, evaluationID string) (DownwardEvaluation, error) {
	if c, ok := f.downward[evaluationID]; ok {
		return c.DownwardEvaluation, nil
	}
	return DownwardEvaluation{}, ErrEvaluationNotFound
}

func (f *fakeStore) SaveDownward(_ context.Context, evaluationID, content string, score *int) error {
	c, ok := f.downward[evaluationID]
	if !ok {
		return ErrEvaluationNotFound
	}
	c.Content = content
	c.Score = score
	f.downward[evaluationID] = c
	return nil
}

func (f *fakeStore) ListDownwardCandidates(_ context.Context, evaluatorID, periodID, employeeID, projectID, evalType string) ([]DownwardCandidate, error) {
	var out []DownwardCandidate
	for _, c := range f.downward {
		if c.EvaluatorID != evaluatorID || c.PeriodID != periodID || c.EvaluationType != evalType {
			continue
		}
		if employeeID != "" && c.EmployeeID != employeeID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CompleteDownward(_ context.Context, evaluationID, _ string) error {
	if err, ok := f.completeFails[evaluationID]; ok {
		return err
	}
	c, ok := f.downward[evaluationID]
	if !ok {
		return ErrEvaluationNotFound
	}
	now := time.Now()
	c.IsCompleted = true
	c.CompletedAt = &now
	f.downward[evaluationID] = c
	return nil
}

func (f *fakeStore) ResetDownwardCompletion(_ context.Context, evaluationID string) error {
	c, ok := f.downward[evaluationID]
	if !ok {
		return ErrEvaluationNotFound
	}
	c.IsCompleted = false
	c.CompletedAt = nil
	f.downward[evaluationID] = c
	return nil
}

func (f *fakeStore) CreateRevisionRequest(_ context.Context, d RevisionDetails) (string, error) {
	id := f.id("rr")
	f.revisions = append(f.revisions, RevisionRequest{
		ID: id, PeriodID: d.PeriodID, EmployeeID: d.EmployeeID, Step: d.Step,
		EvaluatorID: d.EvaluatorID, Comment: d.Comment, RequestedBy: d.RequestedBy, CreatedAt: time.Now(),
	})
	for deID, c := range f.downward {
		if c.PeriodID != d.PeriodID || c.EmployeeID != d.EmployeeID {
			continue
		}
		reset := false
		switch d.Step {
		case StepPrimary:
			reset = c.EvaluationType == TypePrimary
		case StepSecondary:
			reset = c.EvaluationType == TypeSecondary && c.EvaluatorID == d.EvaluatorID
		}
		if reset {
			c.IsCompleted = false
			c.CompletedAt = nil
			f.downward[deID] = c
		}
	}
	return id, nil
}

func (f *fakeStore) ListRevisionRequests(_ context.Context, periodID, employeeID string, onlyOpen bool) ([]RevisionRequest, error) {
	var out []RevisionRequest
	for _, r := range f.revisions {
		if r.PeriodID != periodID {
			continue
		}
		if employeeID != "" && r.EmployeeID != employeeID {
			continue
		}
		if onlyOpen && r.IsCompleted {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) MarkRevisionRead(_ context.Context, revisionID string) error {
	for i, r := range f.revisions {
		if r.ID == revisionID {
			now := time.Now()
			f.revisions[i].IsRead = true
			f.revisions[i].ReadAt = &now
		}
	}
	return nil
}

func (f *fakeStore) MarkRevisionCompleted(_ context.Context, revisionID string) error {
	for i, r := range f.revisions {
		if r.ID == revisionID {
			now := time.Now()
			f.revisions[i].IsCompleted = true
			f.revisions[i].CompletedAt = &now
		}
	}
	return nil
}

func (f *fakeStore) PeriodScoreCap(_ context.Context, _ string) (int, error) {
	return f.scoreCap, nil
}

func (f *fakeStore) PrimaryEvaluatorID(_ context.Context, _, _ string) (string, error) {
	if f.primaryEval == "" {
		return "", errors.New("no line mapping")
	}
	return f.primaryEval, nil
}

func (f *fakeStore) SecondaryEvaluatorIDs(_ context.Context, _, _ string) ([]string, error) {
	return f.secondaryIDs, nil
}

type recordedNotification struct {
	recipient string
	category  string
}

type recordingNotifier struct {
	sent []recordedNotification
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, recipientID, category, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, recordedNotification{recipient: recipientID, category: category})
	return nil
}

func intPtr(n int) *int { return &n }

func TestSaveSelfEvaluationRejectsScoreOverCap(t *testing.T) {
	store := newFakeStore()
	store.scoreCap = 120
	svc := NewService(store, nil)

	_, err := svc.SaveSelfEvaluation(context.Background(), SelfEvaluationDetails{
		PeriodID: "p1", EmployeeID: "e1", WbsItemID: "w1", Content: "done", Score: intPtr(121),
	})
	if !errors.Is(err, ErrScoreOutOfRange) {
		t.Fatalf("expected ErrScoreOutOfRange, got %v", err)
	}

	if _, err := svc.SaveSelfEvaluation(context.Background(), SelfEvaluationDetails{
		PeriodID: "p1", EmployeeID: "e1", WbsItemID: "w1", Content: "done", Score: intPtr(120),
	}); err != nil {
		t.Fatalf("score at cap should save: %v", err)
	}
}

func TestSubmitSelfEvaluationRequiresContent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	e, err := svc.SaveSelfEvaluation(context.Background(), SelfEvaluationDetails{PeriodID: "p1", EmployeeID: "e1", WbsItemID: "w1", Content: "   "})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}

	if _, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetEvaluator, "e1"); !errors.Is(err, ErrMissingContent) {
		t.Fatalf("expected ErrMissingContent, got %v", err)
	}
}

func TestSubmitSelfEvaluationRequiresScore(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	e, err := svc.SaveSelfEvaluation(context.Background(), SelfEvaluationDetails{PeriodID: "p1", EmployeeID: "e1", WbsItemID: "w1", Content: "finished the rollout"})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}

	if _, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetEvaluator, "e1"); !errors.Is(err, ErrMissingContent) {
		t.Fatalf("expected ErrMissingContent for scoreless draft, got %v", err)
	}
	if got, _ := svc.SelfEvaluation(context.Background(), e.ID); got.SubmittedToEvaluator {
		t.Fatal("submission flag must stay unset")
	}
}

func TestSubmitSelfEvaluationRejectsRepeat(t *testing.T) {
	store := newFakeStore()
	store.primaryEval = "eval-7"
	svc := NewService(store, &recordingNotifier{})

	e, _ := svc.SaveSelfEvaluation(context.Background(), SelfEvaluationDetails{PeriodID: "p1", EmployeeID: "e1", WbsItemID: "w1", Content: "done", Score: intPtr(90)})
	if _, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetEvaluator, "e1"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetEvaluator, "e1"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	// The manager target is tracked separately and still open.
	if _, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetManager, "e1"); err != nil {
		t.Fatalf("submit to manager: %v", err)
	}
	if _, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetManager, "e1"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted on repeat manager submit, got %v", err)
	}
}

func TestSubmitSelfEvaluationNotifiesPrimaryEvaluator(t *testing.T) {
	store := newFakeStore()
	store.primaryEval = "eval-7"
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier)

	e, err := svc.SaveSelfEvaluation(context.Background(), SelfEvaluationDetails{PeriodID: "p1", EmployeeID: "e1", WbsItemID: "w1", Content: "shipped the thing", Score: intPtr(88)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetEvaluator, "e1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.SubmittedToEvaluator {
		t.Fatal("expected submitted flag set")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].recipient != "eval-7" {
		t.Fatalf("expected one notification to eval-7, got %+v", notifier.sent)
	}

	// Manager submission is silent.
	if _, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetManager, "e1"); err != nil {
		t.Fatalf("submit to manager: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("manager submission must not notify, got %+v", notifier.sent)
	}
}

func TestSubmitSelfEvaluationSurvivesNotifierFailure(t *testing.T) {
	store := newFakeStore()
	store.primaryEval = "eval-7"
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := NewService(store, notifier)

	e, _ := svc.SaveSelfEvaluation(context.Background(), SelfEvaluationDetails{PeriodID: "p1", EmployeeID: "e1", WbsItemID: "w1", Content: "ok", Score: intPtr(70)})
	out, err := svc.SubmitSelfEvaluation(context.Background(), e.ID, TargetEvaluator, "e1")
	if err != nil {
		t.Fatalf("submission must succeed despite notifier failure: %v", err)
	}
	if !out.SubmittedToEvaluator {
		t.Fatal("expected submitted flag set")
	}
}

func TestCompleteDownwardRejectsRepeatAndEmptyContent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	e, err := svc.SaveDownward(context.Background(), DownwardDetails{
		PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "ev1", WbsItemID: "w1",
		EvaluationType: TypePrimary, Content: "solid quarter", Score: intPtr(90),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := svc.CompleteDownward(context.Background(), e.ID, "ev1"); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if _, err := svc.CompleteDownward(context.Background(), e.ID, "ev1"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	empty, _ := svc.SaveDownward(context.Background(), DownwardDetails{
		PeriodID: "p1", EmployeeID: "e2", EvaluatorID: "ev1", WbsItemID: "w2",
		EvaluationType: TypePrimary, Content: "",
	})
	if _, err := svc.CompleteDownward(context.Background(), empty.ID, "ev1"); !errors.Is(err, ErrMissingContent) {
		t.Fatalf("expected ErrMissingContent, got %v", err)
	}

	scoreless, _ := svc.SaveDownward(context.Background(), DownwardDetails{
		PeriodID: "p1", EmployeeID: "e3", EvaluatorID: "ev1", WbsItemID: "w3",
		EvaluationType: TypePrimary, Content: "written but unscored",
	})
	if _, err := svc.CompleteDownward(context.Background(), scoreless.ID, "ev1"); !errors.Is(err, ErrMissingContent) {
		t.Fatalf("expected ErrMissingContent for scoreless evaluation, got %v", err)
	}
}

func TestCompleteDownwardNotifiesSecondaries(t *testing.T) {
	store := newFakeStore()
	store.secondaryIDs = []string{"sec-1", "sec-2"}
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier)

	e, _ := svc.SaveDownward(context.Background(), DownwardDetails{
		PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "ev1", WbsItemID: "w1",
		EvaluationType: TypePrimary, Content: "good", Score: intPtr(85),
	})
	if _, err := svc.CompleteDownward(context.Background(), e.ID, "ev1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", notifier.sent)
	}

	// Secondary completion notifies nobody.
	sec, _ := svc.SaveDownward(context.Background(), DownwardDetails{
		PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "sec-1", WbsItemID: "w1",
		EvaluationType: TypeSecondary, Content: "agree", Score: intPtr(85),
	})
	if _, err := svc.CompleteDownward(context.Background(), sec.ID, "sec-1"); err != nil {
		t.Fatalf("complete secondary: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("secondary completion must not notify, got %+v", notifier.sent)
	}
}

func TestBulkCompletePartitionsOutcomes(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	good, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "ev1", WbsItemID: "w1", EvaluationType: TypePrimary, Content: "fine", Score: intPtr(80)})
	done, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e2", EvaluatorID: "ev1", WbsItemID: "w2", EvaluationType: TypePrimary, Content: "fine", Score: intPtr(80)})
	if _, err := svc.CompleteDownward(ctx, done.ID, "ev1"); err != nil {
		t.Fatalf("pre-complete: %v", err)
	}
	blank, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e3", EvaluatorID: "ev1", WbsItemID: "w3", EvaluationType: TypePrimary, Content: ""})
	cancelled, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e4", EvaluatorID: "ev1", WbsItemID: "w4", EvaluationType: TypePrimary, Content: "fine", Score: intPtr(80)})
	c := store.downward[cancelled.ID]
	c.AssignmentActive = false
	store.downward[cancelled.ID] = c
	unscored, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e5", EvaluatorID: "ev1", WbsItemID: "w5", EvaluationType: TypePrimary, Content: "fine"})

	result, err := svc.BulkComplete(ctx, BulkScope{EvaluatorID: "ev1", PeriodID: "p1", EvaluationType: TypePrimary}, "ev1")
	if err != nil {
		t.Fatalf("bulk complete: %v", err)
	}
	if len(result.Succeeded) != 1 || result.Succeeded[0] != good.ID {
		t.Fatalf("succeeded = %v, want [%s]", result.Succeeded, good.ID)
	}
	if len(result.AlreadySubmitted) != 1 || result.AlreadySubmitted[0] != done.ID {
		t.Fatalf("alreadySubmitted = %v, want [%s]", result.AlreadySubmitted, done.ID)
	}
	if len(result.Failed) != 3 {
		t.Fatalf("failed = %+v, want three entries", result.Failed)
	}
	reasons := map[string]string{}
	for _, f := range result.Failed {
		reasons[f.EvaluationID] = f.Reason
	}
	if reasons[blank.ID] != "missing content" {
		t.Fatalf("blank item reason = %q", reasons[blank.ID])
	}
	if reasons[cancelled.ID] != "wbs assignment cancelled" {
		t.Fatalf("cancelled item reason = %q", reasons[cancelled.ID])
	}
	if reasons[unscored.ID] != "missing score" {
		t.Fatalf("unscored item reason = %q", reasons[unscored.ID])
	}
}

func TestBulkCompleteContinuesPastStoreFailures(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	bad, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "ev1", WbsItemID: "w1", EvaluationType: TypePrimary, Content: "x", Score: intPtr(60)})
	good, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e2", EvaluatorID: "ev1", WbsItemID: "w2", EvaluationType: TypePrimary, Content: "y", Score: intPtr(60)})
	store.completeFails[bad.ID] = errors.New("deadlock detected")

	result, err := svc.BulkComplete(ctx, BulkScope{EvaluatorID: "ev1", PeriodID: "p1", EvaluationType: TypePrimary}, "ev1")
	if err != nil {
		t.Fatalf("bulk complete: %v", err)
	}
	if len(result.Succeeded) != 1 || result.Succeeded[0] != good.ID {
		t.Fatalf("succeeded = %v, want [%s]", result.Succeeded, good.ID)
	}
	if len(result.Failed) != 1 || result.Failed[0].EvaluationID != bad.ID {
		t.Fatalf("failed = %+v, want entry for %s", result.Failed, bad.ID)
	}
}

func TestBulkResetReopensOnlyCompleted(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	done, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "ev1", WbsItemID: "w1", EvaluationType: TypePrimary, Content: "fine", Score: intPtr(80)})
	if _, err := svc.CompleteDownward(ctx, done.ID, "ev1"); err != nil {
		t.Fatalf("pre-complete: %v", err)
	}
	open, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e2", EvaluatorID: "ev1", WbsItemID: "w2", EvaluationType: TypePrimary, Content: "draft", Score: intPtr(50)})

	result, err := svc.BulkReset(ctx, BulkScope{EvaluatorID: "ev1", PeriodID: "p1", EvaluationType: TypePrimary})
	if err != nil {
		t.Fatalf("bulk reset: %v", err)
	}
	if len(result.Succeeded) != 1 || result.Succeeded[0] != done.ID {
		t.Fatalf("succeeded = %v, want [%s]", result.Succeeded, done.ID)
	}
	if len(result.Failed) != 1 || result.Failed[0].EvaluationID != open.ID || result.Failed[0].Reason != "not completed" {
		t.Fatalf("failed = %+v, want open item reported", result.Failed)
	}

	if got, _ := svc.Downward(ctx, done.ID); got.IsCompleted {
		t.Fatal("completed evaluation should be reopened")
	}
	if _, err := svc.CompleteDownward(ctx, done.ID, "ev1"); err != nil {
		t.Fatalf("re-complete after reset: %v", err)
	}
}

func TestRequestRevisionValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.RequestRevision(ctx, RevisionDetails{PeriodID: "p1", EmployeeID: "e1", Step: "weird", Comment: "x", RequestedBy: "mgr"}); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
	if _, err := svc.RequestRevision(ctx, RevisionDetails{PeriodID: "p1", EmployeeID: "e1", Step: StepSelf, Comment: "  ", RequestedBy: "mgr"}); !errors.Is(err, ErrCommentRequired) {
		t.Fatalf("expected ErrCommentRequired, got %v", err)
	}
	if _, err := svc.RequestRevision(ctx, RevisionDetails{PeriodID: "p1", EmployeeID: "e1", Step: StepSecondary, Comment: "redo", RequestedBy: "mgr"}); !errors.Is(err, ErrEvaluatorRequired) {
		t.Fatalf("expected ErrEvaluatorRequired, got %v", err)
	}
}

func TestRequestRevisionSecondaryResetsOnlyNamedEvaluator(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier)
	ctx := context.Background()

	a, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "sec-1", WbsItemID: "w1", EvaluationType: TypeSecondary, Content: "x", Score: intPtr(75)})
	b, _ := svc.SaveDownward(ctx, DownwardDetails{PeriodID: "p1", EmployeeID: "e1", EvaluatorID: "sec-2", WbsItemID: "w1", EvaluationType: TypeSecondary, Content: "y", Score: intPtr(75)})
	if _, err := svc.CompleteDownward(ctx, a.ID, "sec-1"); err != nil {
		t.Fatalf("complete a: %v", err)
	}
	if _, err := svc.CompleteDownward(ctx, b.ID, "sec-2"); err != nil {
		t.Fatalf("complete b: %v", err)
	}

	if _, err := svc.RequestRevision(ctx, RevisionDetails{
		PeriodID: "p1", EmployeeID: "e1", Step: StepSecondary, EvaluatorID: "sec-1",
		Comment: "score too low, revisit", RequestedBy: "mgr",
	}); err != nil {
		t.Fatalf("request revision: %v", err)
	}

	if got, _ := svc.Downward(ctx, a.ID); got.IsCompleted {
		t.Fatal("sec-1 evaluation should be reopened")
	}
	if got, _ := svc.Downward(ctx, b.ID); !got.IsCompleted {
		t.Fatal("sec-2 evaluation must stay completed")
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("revision requests are silent, got %+v", notifier.sent)
	}
}

func TestChangeStepStatusRejectsInvalidTransition(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.ChangeStepStatus(ctx, "p1", "e1", StepPrimary, StepStatusApproved, "mgr"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("none -> approved must fail, got %v", err)
	}

	a, err := svc.ChangeStepStatus(ctx, "p1", "e1", StepPrimary, StepStatusPending, "mgr")
	if err != nil {
		t.Fatalf("none -> pending: %v", err)
	}
	if a.PrimaryStatus != StepStatusPending {
		t.Fatalf("primary status = %q, want pending", a.PrimaryStatus)
	}
	if _, err := svc.ChangeStepStatus(ctx, "p1", "e1", StepPrimary, StepStatusApproved, "mgr"); err != nil {
		t.Fatalf("pending -> approved: %v", err)
	}
}
