package memory

import (
	"context"
	"sync"
	"time"

	"duet-quiz-service/internal/domain"
)

// InstanceStore is an in-memory InstanceRepository. A single mutex makes
// every read-validate-write sequence atomic, which is exactly the guarantee
// the lifecycle controller needs from a store.
type InstanceStore struct {
	mu     sync.Mutex
	byID   map[string]*domain.QuizInstance
	byCode map[string]string // joinable share codes only
	clock  func() time.Time
}

func NewInstanceStore() *InstanceStore {
	return &InstanceStore{
		byID:   make(map[string]*domain.QuizInstance),
		byCode: make(map[string]string),
		clock:  time.Now,
	}
}

func (s *InstanceStore) Create(_ context.Context, inst *domain.QuizInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneInstance(inst)
	s.byID[inst.ID] = &stored
	return nil
}

func (s *InstanceStore) Get(_ context.Context, id string) (domain.QuizInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.byID[id]
	if !ok {
		return domain.QuizInstance{}, domain.ErrInstanceNotFound
	}
	return cloneInstance(inst), nil
}

func (s *InstanceStore) GetByCode(_ context.Context, code string) (domain.QuizInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[code]
	if !ok {
		return domain.QuizInstance{}, domain.ErrCodeNotFound
	}
	return cloneInstance(s.byID[id]), nil
}

func (s *InstanceStore) SealCreator(_ context.Context, id string, answers domain.AnswerSet, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.byID[id]
	if !ok {
		return domain.ErrInstanceNotFound
	}
	if inst.State != domain.StateDraft {
		return domain.ErrWrongState
	}
	if _, taken := s.byCode[code]; taken {
		return domain.ErrCodeTaken
	}

	inst.CreatorAnswers = &answers
	inst.ShareCode = code
	inst.State = domain.StateAwaitingTaker
	inst.UpdatedAt = s.clock()
	s.byCode[code] = id
	return nil
}

func (s *InstanceStore) AddResponse(_ context.Context, id, responderID string, answers domain.AnswerSet, complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.byID[id]
	if !ok {
		return domain.ErrInstanceNotFound
	}
	if inst.State != domain.StateAwaitingTaker {
		return domain.ErrWrongState
	}
	if _, dup := inst.Responses[responderID]; dup {
		return domain.ErrAlreadyResponded
	}

	if inst.Responses == nil {
		inst.Responses = make(map[string]domain.AnswerSet, 1)
	}
	inst.Responses[responderID] = answers
	inst.UpdatedAt = s.clock()
	if complete {
		inst.State = domain.StateCompleted
		// Completed instances leave the joinable scope; the code may be
		// reused by a later instance.
		delete(s.byCode, inst.ShareCode)
	}
	return nil
}

// cloneInstance copies the mutable containers so callers cannot reach into
// stored state. Answer sets themselves are immutable once written.
func cloneInstance(inst *domain.QuizInstance) domain.QuizInstance {
	out := *inst
	out.Questions = append([]domain.Question(nil), inst.Questions...)
	out.Buckets = append([]domain.Bucket(nil), inst.Buckets...)
	if inst.Responses != nil {
		out.Responses = make(map[string]domain.AnswerSet, len(inst.Responses))
		for id, set := range inst.Responses {
			out.Responses[id] = set
		}
	}
	return out
}
