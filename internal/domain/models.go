package domain

import "time"

// Mode selects both the bank source and the taker variant of a quiz instance.
type Mode string

const (
	// ModePersonality uses the built-in weighted bank; one taker, bucket labels.
	ModePersonality Mode = "personality"
	// ModeCompatibility uses a caller-supplied bank; one taker.
	ModeCompatibility Mode = "compatibility"
	// ModeShared uses a caller-supplied bank; any number of takers may join.
	ModeShared Mode = "shared"
)

// Valid reports whether the mode is one of the recognized variants.
func (m Mode) Valid() bool {
	switch m {
	case ModePersonality, ModeCompatibility, ModeShared:
		return true
	}
	return false
}

// MultiTaker reports whether the mode accepts more than one responder.
func (m Mode) MultiTaker() bool { return m == ModeShared }

// State is the lifecycle state of a quiz instance.
type State string

const (
	StateDraft         State = "draft"
	StateAwaitingTaker State = "awaiting_taker"
	StateCompleted     State = "completed"
)

// QuestionKind classifies how a question is answered.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindScale          QuestionKind = "scale"
	KindText           QuestionKind = "text"
	KindTrueFalse      QuestionKind = "true-false"
)

// Valid reports whether the kind is recognized.
func (k QuestionKind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindScale, KindText, KindTrueFalse:
		return true
	}
	return false
}

// Option is one possible answer to a choice or scale question.
type Option struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// Question is immutable once attached to an instance; both parties must
// answer the exact same content for their scores to be comparable.
type Question struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Kind    QuestionKind `json:"kind"`
	Options []Option     `json:"options,omitempty"`
}

// Bucket maps an inclusive score range to a classification label.
type Bucket struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Label string `json:"label"`
}

// Bank is the ordered question set attached to one quiz instance, optionally
// with a bucket table for classifying individual scores.
type Bank struct {
	Questions []Question `json:"questions"`
	Buckets   []Bucket   `json:"buckets,omitempty"`
}

// ValueKind tags the variant of an answer value.
type ValueKind string

const (
	ValueText   ValueKind = "text"
	ValueChoice ValueKind = "choice"
	ValueScale  ValueKind = "scale"
)

// AnswerValue is a tagged variant: exactly one of Text, Choice or Scale is
// meaningful, selected by Kind.
type AnswerValue struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Choice string    `json:"choice,omitempty"`
	Scale  int       `json:"scale,omitempty"`
}

// AnswerEntry pairs a question with one party's answer. ResolvedWeight is
// looked up from the question's options at submission time and never
// recomputed afterwards.
type AnswerEntry struct {
	QuestionID     string      `json:"questionId"`
	Value          AnswerValue `json:"value"`
	ResolvedWeight int         `json:"resolvedWeight"`
}

// AnswerSet is one party's complete submission, ordered like the question
// set. Immutable once persisted; resubmission attempts are rejected.
type AnswerSet struct {
	Entries     []AnswerEntry `json:"entries"`
	SubmittedAt time.Time     `json:"submittedAt"`
}

// QuizInstance is the aggregate root for one paired quiz.
type QuizInstance struct {
	ID             string               `json:"id"`
	OwnerID        string               `json:"ownerId"`
	Mode           Mode                 `json:"mode"`
	State          State                `json:"state"`
	ShareCode      string               `json:"shareCode,omitempty"`
	Questions      []Question           `json:"questions"`
	Buckets        []Bucket             `json:"buckets,omitempty"`
	CreatorAnswers *AnswerSet           `json:"creatorAnswers,omitempty"`
	Responses      map[string]AnswerSet `json:"responses,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// Joinable reports whether the share code still resolves to this instance.
func (q *QuizInstance) Joinable() bool {
	return q.State == StateAwaitingTaker
}

// Result compares the creator with one responder. Labels are present only
// when the instance carries a bucket table.
type Result struct {
	CreatorScore   int    `json:"creatorScore"`
	CreatorLabel   string `json:"creatorLabel,omitempty"`
	ResponderID    string `json:"responderId"`
	ResponderScore int    `json:"responderScore"`
	ResponderLabel string `json:"responderLabel,omitempty"`
	Compatibility  int    `json:"compatibility"`
	Weighted       bool   `json:"weighted"`
}
