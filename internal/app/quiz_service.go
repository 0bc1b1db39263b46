package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"duet-quiz-service/internal/bank"
	"duet-quiz-service/internal/domain"
)

// InstanceRepository abstracts quiz instance persistence (in-memory,
// Postgres, with or without the Redis resolve cache). Implementations must
// make SealCreator and AddResponse atomic with respect to the state they
// read: concurrent submissions race at the store, not in this service.
type InstanceRepository interface {
	Create(ctx context.Context, inst *domain.QuizInstance) error
	Get(ctx context.Context, id string) (domain.QuizInstance, error)
	// GetByCode resolves a share code to a joinable instance; completed
	// instances no longer resolve (domain.ErrCodeNotFound).
	GetByCode(ctx context.Context, code string) (domain.QuizInstance, error)
	// SealCreator transitions Draft to AwaitingTaker, storing the creator's
	// answers and reserving code in one atomic step. Returns
	// domain.ErrCodeTaken when the code is already reserved by a joinable
	// instance, domain.ErrWrongState when the instance has left Draft.
	SealCreator(ctx context.Context, id string, answers domain.AnswerSet, code string) error
	// AddResponse stores one responder's answers, enforcing at most one set
	// per (instance, responder). When complete is true the instance
	// transitions to Completed in the same atomic step.
	AddResponse(ctx context.Context, id, responderID string, answers domain.AnswerSet, complete bool) error
}

// JoinView is the public payload a responder sees when resolving a code.
// It deliberately carries no creator answers: leaking them would let a
// responder tailor answers to maximize compatibility.
type JoinView struct {
	Questions []domain.Question `json:"questions"`
	Mode      domain.Mode       `json:"mode"`
}

// QuizService is the lifecycle controller for paired quizzes.
type QuizService struct {
	repo  InstanceRepository
	codes CodeGenerator
	feed  *ResultFeed
	now   func() time.Time
}

func NewQuizService(repo InstanceRepository, codes CodeGenerator) *QuizService {
	return &QuizService{
		repo:  repo,
		codes: codes,
		feed:  NewResultFeed(),
		now:   time.Now,
	}
}

// StartQuiz creates an instance in Draft with a frozen question set. No
// share code exists yet; the creator answers first.
func (s *QuizService) StartQuiz(ctx context.Context, ownerID string, mode domain.Mode, custom domain.Bank) (domain.QuizInstance, error) {
	if ownerID == "" {
		return domain.QuizInstance{}, fmt.Errorf("%w: owner id required", domain.ErrInvalidBank)
	}
	resolved, err := bank.Resolve(mode, custom)
	if err != nil {
		return domain.QuizInstance{}, err
	}

	now := s.now()
	inst := domain.QuizInstance{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Mode:      mode,
		State:     domain.StateDraft,
		Questions: resolved.Questions,
		Buckets:   resolved.Buckets,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &inst); err != nil {
		return domain.QuizInstance{}, err
	}
	return inst, nil
}

// SubmitCreatorAnswers seals the creator's side: validates the answers,
// mints a share code and transitions Draft to AwaitingTaker. Returns the
// code the creator hands to the other party.
func (s *QuizService) SubmitCreatorAnswers(ctx context.Context, instanceID string, entries []domain.AnswerEntry) (string, error) {
	inst, err := s.repo.Get(ctx, instanceID)
	if err != nil {
		return "", err
	}
	if inst.State != domain.StateDraft {
		return "", domain.ErrWrongState
	}

	set, err := domain.ValidateAnswers(inst.Questions, entries, s.now())
	if err != nil {
		return "", err
	}

	// The store treats check-uniqueness and reserve-code as one atomic
	// write; on collision we mint a fresh code and try again, bounded.
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return "", err
		}
		switch err := s.repo.SealCreator(ctx, instanceID, set, code); {
		case err == nil:
			return code, nil
		case errors.Is(err, domain.ErrCodeTaken):
			continue
		default:
			return "", err
		}
	}
	return "", domain.ErrCodeSpaceExhausted
}

// ResolveCode looks up a joinable instance by share code and returns its
// public payload.
func (s *QuizService) ResolveCode(ctx context.Context, code string) (JoinView, error) {
	inst, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return JoinView{}, err
	}
	return JoinView{Questions: inst.Questions, Mode: inst.Mode}, nil
}

// SubmitResponderAnswers stores one responder's answers and returns the
// computed pairwise result immediately. Single-taker instances transition
// to Completed; shared instances stay joinable for further responders.
func (s *QuizService) SubmitResponderAnswers(ctx context.Context, code, responderID string, entries []domain.AnswerEntry) (domain.Result, error) {
	if responderID == "" {
		return domain.Result{}, fmt.Errorf("%w: responder id required", domain.ErrInvalidAnswers)
	}
	inst, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return domain.Result{}, err
	}

	set, err := domain.ValidateAnswers(inst.Questions, entries, s.now())
	if err != nil {
		return domain.Result{}, err
	}

	complete := !inst.Mode.MultiTaker()
	if err := s.repo.AddResponse(ctx, inst.ID, responderID, set, complete); err != nil {
		return domain.Result{}, err
	}

	if inst.Responses == nil {
		inst.Responses = make(map[string]domain.AnswerSet, 1)
	}
	inst.Responses[responderID] = set
	result := domain.BuildResult(&inst, responderID)
	s.feed.Publish(inst.ID, result)
	return result, nil
}

// GetResult returns the pairwise result visible to viewerID. For
// single-taker instances the result exists once Completed and is visible to
// the creator and the responder; for shared instances each responder sees
// only their own pairing.
func (s *QuizService) GetResult(ctx context.Context, instanceID, viewerID string) (domain.Result, error) {
	inst, err := s.repo.Get(ctx, instanceID)
	if err != nil {
		return domain.Result{}, err
	}

	if inst.Mode.MultiTaker() {
		if _, ok := inst.Responses[viewerID]; !ok {
			return domain.Result{}, domain.ErrResultNotReady
		}
		return domain.BuildResult(&inst, viewerID), nil
	}

	if inst.State != domain.StateCompleted {
		return domain.Result{}, domain.ErrResultNotReady
	}
	responderID := ""
	for id := range inst.Responses {
		responderID = id
	}
	if viewerID != inst.OwnerID && viewerID != responderID {
		return domain.Result{}, domain.ErrResultNotReady
	}
	return domain.BuildResult(&inst, responderID), nil
}

// StreamResults subscribes the instance owner to result events. The caller
// must invoke the returned cancel function.
func (s *QuizService) StreamResults(ctx context.Context, instanceID, ownerID string) (<-chan domain.Result, func(), error) {
	inst, err := s.repo.Get(ctx, instanceID)
	if err != nil {
		return nil, nil, err
	}
	if inst.OwnerID != ownerID {
		return nil, nil, domain.ErrInstanceNotFound
	}
	ch, cancel := s.feed.Subscribe(instanceID)
	return ch, cancel, nil
}
