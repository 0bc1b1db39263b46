package domain

import (
	"fmt"
	"strings"
	"time"
)

// ValidateAnswers checks a submission against the frozen question set and
// returns the canonical AnswerSet with resolved weights, ordered like the
// questions. Every question must have exactly one entry; text questions may
// be answered with an empty string but the entry itself must be present.
func ValidateAnswers(questions []Question, entries []AnswerEntry, now time.Time) (AnswerSet, error) {
	byQuestion := make(map[string]AnswerEntry, len(entries))
	for _, entry := range entries {
		if _, dup := byQuestion[entry.QuestionID]; dup {
			return AnswerSet{}, fmt.Errorf("%w: question %q answered more than once", ErrInvalidAnswers, entry.QuestionID)
		}
		if !questionExists(questions, entry.QuestionID) {
			return AnswerSet{}, fmt.Errorf("%w: unknown question %q", ErrInvalidAnswers, entry.QuestionID)
		}
		byQuestion[entry.QuestionID] = entry
	}

	resolved := make([]AnswerEntry, 0, len(questions))
	for _, question := range questions {
		entry, ok := byQuestion[question.ID]
		if !ok {
			return AnswerSet{}, fmt.Errorf("%w: question %q not answered", ErrInvalidAnswers, question.ID)
		}
		weight, err := resolveWeight(question, entry.Value)
		if err != nil {
			return AnswerSet{}, err
		}
		entry.ResolvedWeight = weight
		resolved = append(resolved, entry)
	}

	return AnswerSet{Entries: resolved, SubmittedAt: now}, nil
}

// resolveWeight checks the value variant against the question kind and looks
// up the option weight. Choice answers match option labels; scale answers
// select the 1-based option position; text contributes no weight.
func resolveWeight(question Question, value AnswerValue) (int, error) {
	switch question.Kind {
	case KindText:
		if value.Kind != ValueText {
			return 0, kindMismatch(question, value)
		}
		return 0, nil

	case KindMultipleChoice:
		if value.Kind != ValueChoice {
			return 0, kindMismatch(question, value)
		}
		for _, opt := range question.Options {
			if opt.Label == value.Choice {
				return opt.Weight, nil
			}
		}
		return 0, fmt.Errorf("%w: question %q has no option %q", ErrInvalidAnswers, question.ID, value.Choice)

	case KindTrueFalse:
		if value.Kind != ValueChoice {
			return 0, kindMismatch(question, value)
		}
		if len(question.Options) > 0 {
			for _, opt := range question.Options {
				if strings.EqualFold(opt.Label, value.Choice) {
					return opt.Weight, nil
				}
			}
			return 0, fmt.Errorf("%w: question %q has no option %q", ErrInvalidAnswers, question.ID, value.Choice)
		}
		if !strings.EqualFold(value.Choice, "true") && !strings.EqualFold(value.Choice, "false") {
			return 0, fmt.Errorf("%w: question %q expects true or false, got %q", ErrInvalidAnswers, question.ID, value.Choice)
		}
		return 0, nil

	case KindScale:
		if value.Kind != ValueScale {
			return 0, kindMismatch(question, value)
		}
		if value.Scale < 1 || value.Scale > len(question.Options) {
			return 0, fmt.Errorf("%w: question %q scale value %d out of range 1..%d",
				ErrInvalidAnswers, question.ID, value.Scale, len(question.Options))
		}
		return question.Options[value.Scale-1].Weight, nil

	default:
		return 0, fmt.Errorf("%w: question %q has unrecognized kind %q", ErrInvalidAnswers, question.ID, question.Kind)
	}
}

func kindMismatch(question Question, value AnswerValue) error {
	return fmt.Errorf("%w: question %q (%s) cannot take a %s value",
		ErrInvalidAnswers, question.ID, question.Kind, value.Kind)
}

func questionExists(questions []Question, id string) bool {
	for i := range questions {
		if questions[i].ID == id {
			return true
		}
	}
	return false
}

// Answered reports whether an answer value counts as non-empty for the
// answered-ratio scoring mode.
func (v AnswerValue) Answered() bool {
	switch v.Kind {
	case ValueText:
		return strings.TrimSpace(v.Text) != ""
	case ValueChoice:
		return v.Choice != ""
	case ValueScale:
		return true
	}
	return false
}
