package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"duet-quiz-service/internal/app"
	"duet-quiz-service/internal/domain"
	"duet-quiz-service/internal/infra/memory"
)

func TestSingleTakerLifecycle(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	inst, err := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, weightedBank())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if inst.State != domain.StateDraft || len(inst.Questions) != 2 {
		t.Fatalf("unexpected draft instance: %+v", inst)
	}

	code, err := service.SubmitCreatorAnswers(ctx, inst.ID, choiceAnswers("A", "B"))
	if err != nil {
		t.Fatalf("creator answers: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-char share code, got %q", code)
	}

	view, err := service.ResolveCode(ctx, code)
	if err != nil {
		t.Fatalf("resolve code: %v", err)
	}
	if view.Mode != domain.ModeCompatibility || len(view.Questions) != 2 {
		t.Fatalf("unexpected join view: %+v", view)
	}

	result, err := service.SubmitResponderAnswers(ctx, code, "bob", choiceAnswers("B", "B"))
	if err != nil {
		t.Fatalf("responder answers: %v", err)
	}
	if result.CreatorScore != 5 || result.ResponderScore != 8 || result.Compatibility != 94 {
		t.Fatalf("result = %+v, want scores (5,8) and compatibility 94", result)
	}

	got, err := service.GetResult(ctx, inst.ID, "alice")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got != result {
		t.Fatalf("stored result %+v differs from submission result %+v", got, result)
	}

	// The code left the joinable scope on completion.
	if _, err := service.ResolveCode(ctx, code); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after completion, got %v", err)
	}
}

func TestStartQuizRejectsInvalidBanks(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if _, err := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, domain.Bank{}); !errors.Is(err, domain.ErrInvalidBank) {
		t.Fatalf("expected ErrInvalidBank for empty bank, got %v", err)
	}

	big := domain.Bank{}
	for i := 0; i < 16; i++ {
		big.Questions = append(big.Questions, domain.Question{
			ID: string(rune('a' + i)), Text: "q", Kind: domain.KindText,
		})
	}
	if _, err := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, big); !errors.Is(err, domain.ErrInvalidBank) {
		t.Fatalf("expected ErrInvalidBank for 16 questions, got %v", err)
	}
}

func TestSubmitCreatorAnswersRequiresDraft(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	inst, _ := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, weightedBank())
	if _, err := service.SubmitCreatorAnswers(ctx, inst.ID, choiceAnswers("A", "A")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := service.SubmitCreatorAnswers(ctx, inst.ID, choiceAnswers("B", "B")); !errors.Is(err, domain.ErrWrongState) {
		t.Fatalf("expected ErrWrongState on resubmit, got %v", err)
	}
}

func TestResponderIdempotentReject(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	inst, _ := service.StartQuiz(ctx, "alice", domain.ModeShared, weightedBank())
	code, _ := service.SubmitCreatorAnswers(ctx, inst.ID, choiceAnswers("A", "B"))

	first, err := service.SubmitResponderAnswers(ctx, code, "bob", choiceAnswers("B", "B"))
	if err != nil {
		t.Fatalf("first response: %v", err)
	}
	if _, err := service.SubmitResponderAnswers(ctx, code, "bob", choiceAnswers("A", "A")); !errors.Is(err, domain.ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}

	// The stored result still reflects the first submission.
	got, err := service.GetResult(ctx, inst.ID, "bob")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got != first {
		t.Fatalf("retry changed the stored outcome: %+v vs %+v", got, first)
	}
}

func TestSameResponderRace(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	inst, _ := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, weightedBank())
	code, _ := service.SubmitCreatorAnswers(ctx, inst.ID, choiceAnswers("A", "B"))

	var wg sync.WaitGroup
	outcomes := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.SubmitResponderAnswers(ctx, code, "bob", choiceAnswers("B", "B"))
			outcomes <- err
		}()
	}
	wg.Wait()
	close(outcomes)

	successes, rejects := 0, 0
	for err := range outcomes {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrAlreadyResponded), errors.Is(err, domain.ErrWrongState), errors.Is(err, domain.ErrCodeNotFound):
			rejects++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || rejects != 1 {
		t.Fatalf("want exactly one success and one reject, got %d/%d", successes, rejects)
	}

	if _, err := service.GetResult(ctx, inst.ID, "alice"); err != nil {
		t.Fatalf("instance should be completed exactly once: %v", err)
	}
}

func TestSharedModeManyResponders(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	inst, _ := service.StartQuiz(ctx, "alice", domain.ModeShared, weightedBank())
	code, _ := service.SubmitCreatorAnswers(ctx, inst.ID, choiceAnswers("A", "B"))

	for _, responder := range []string{"bob", "carol", "dave"} {
		if _, err := service.SubmitResponderAnswers(ctx, code, responder, choiceAnswers("B", "B")); err != nil {
			t.Fatalf("responder %s: %v", responder, err)
		}
	}

	// The code stays joinable and each responder sees only their own pairing.
	if _, err := service.ResolveCode(ctx, code); err != nil {
		t.Fatalf("shared code should stay joinable: %v", err)
	}
	result, err := service.GetResult(ctx, inst.ID, "carol")
	if err != nil {
		t.Fatalf("carol's result: %v", err)
	}
	if result.ResponderID != "carol" {
		t.Fatalf("result belongs to %q, want carol", result.ResponderID)
	}
	if _, err := service.GetResult(ctx, inst.ID, "mallory"); !errors.Is(err, domain.ErrResultNotReady) {
		t.Fatalf("non-responder should get ErrResultNotReady, got %v", err)
	}
}

func TestGetResultBeforeCompletion(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	inst, _ := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, weightedBank())
	if _, err := service.GetResult(ctx, inst.ID, "alice"); !errors.Is(err, domain.ErrResultNotReady) {
		t.Fatalf("expected ErrResultNotReady in draft, got %v", err)
	}
	_, _ = service.SubmitCreatorAnswers(ctx, inst.ID, choiceAnswers("A", "B"))
	if _, err := service.GetResult(ctx, inst.ID, "alice"); !errors.Is(err, domain.ErrResultNotReady) {
		t.Fatalf("expected ErrResultNotReady while awaiting taker, got %v", err)
	}
}

func TestFreeTextAnsweredRatioFlow(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	b := domain.Bank{Questions: []domain.Question{
		{ID: "t1", Text: "Favorite meal?", Kind: domain.KindText},
		{ID: "t2", Text: "Dream trip?", Kind: domain.KindText},
		{ID: "t3", Text: "Go-to song?", Kind: domain.KindText},
		{ID: "t4", Text: "Hidden talent?", Kind: domain.KindText},
	}}
	inst, err := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, b)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	code, err := service.SubmitCreatorAnswers(ctx, inst.ID, textAnswers("pasta", "japan", "jazz", "whistling"))
	if err != nil {
		t.Fatalf("creator: %v", err)
	}
	result, err := service.SubmitResponderAnswers(ctx, code, "bob", textAnswers("ramen", "iceland", "blues", ""))
	if err != nil {
		t.Fatalf("responder: %v", err)
	}
	if result.Weighted {
		t.Fatalf("weightless bank must use answered-ratio scoring")
	}
	if result.CreatorScore != 100 || result.ResponderScore != 75 {
		t.Fatalf("scores = (%d,%d), want (100,75)", result.CreatorScore, result.ResponderScore)
	}
}

func TestCodeCollisionRetryAndExhaustion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInstanceStore()
	service := app.NewQuizService(store, fixedCodes{"DUPE22"})

	first, _ := service.StartQuiz(ctx, "alice", domain.ModeCompatibility, weightedBank())
	if _, err := service.SubmitCreatorAnswers(ctx, first.ID, choiceAnswers("A", "B")); err != nil {
		t.Fatalf("first seal: %v", err)
	}

	// Every generated code collides with the first instance's code.
	second, _ := service.StartQuiz(ctx, "carol", domain.ModeCompatibility, weightedBank())
	_, err := service.SubmitCreatorAnswers(ctx, second.ID, choiceAnswers("A", "B"))
	if !errors.Is(err, domain.ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestPersonalityModeClassifies(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	inst, err := service.StartQuiz(ctx, "alice", domain.ModePersonality, domain.Bank{})
	if err != nil {
		t.Fatalf("start personality quiz: %v", err)
	}
	answers := make([]domain.AnswerEntry, 0, len(inst.Questions))
	for _, question := range inst.Questions {
		switch question.Kind {
		case domain.KindScale:
			answers = append(answers, domain.AnswerEntry{
				QuestionID: question.ID,
				Value:      domain.AnswerValue{Kind: domain.ValueScale, Scale: 1},
			})
		default:
			answers = append(answers, domain.AnswerEntry{
				QuestionID: question.ID,
				Value:      domain.AnswerValue{Kind: domain.ValueChoice, Choice: question.Options[0].Label},
			})
		}
	}
	code, err := service.SubmitCreatorAnswers(ctx, inst.ID, answers)
	if err != nil {
		t.Fatalf("creator answers: %v", err)
	}
	result, err := service.SubmitResponderAnswers(ctx, code, "bob", answers)
	if err != nil {
		t.Fatalf("responder answers: %v", err)
	}
	if result.CreatorLabel == "" || result.ResponderLabel == "" {
		t.Fatalf("personality results must carry labels: %+v", result)
	}
	if result.Compatibility != 100 {
		t.Fatalf("identical answers must score 100, got %d", result.Compatibility)
	}
}

type fixedCodes struct{ code string }

func (f fixedCodes) Generate() (string, error) { return f.code, nil }

func newTestService() *app.QuizService {
	return app.NewQuizService(memory.NewInstanceStore(), app.RandomCodeGenerator{})
}

func weightedBank() domain.Bank {
	return domain.Bank{Questions: []domain.Question{
		{ID: "q1", Text: "Pick one", Kind: domain.KindMultipleChoice, Options: []domain.Option{
			{Label: "A", Weight: 1}, {Label: "B", Weight: 4},
		}},
		{ID: "q2", Text: "Pick another", Kind: domain.KindMultipleChoice, Options: []domain.Option{
			{Label: "A", Weight: 1}, {Label: "B", Weight: 4},
		}},
	}}
}

func choiceAnswers(first, second string) []domain.AnswerEntry {
	return []domain.AnswerEntry{
		{QuestionID: "q1", Value: domain.AnswerValue{Kind: domain.ValueChoice, Choice: first}},
		{QuestionID: "q2", Value: domain.AnswerValue{Kind: domain.ValueChoice, Choice: second}},
	}
}

func textAnswers(values ...string) []domain.AnswerEntry {
	ids := []string{"t1", "t2", "t3", "t4"}
	entries := make([]domain.AnswerEntry, 0, len(values))
	for i, value := range values {
		entries = append(entries, domain.AnswerEntry{
			QuestionID: ids[i],
			Value:      domain.AnswerValue{Kind: domain.ValueText, Text: value},
		})
	}
	return entries
}
