// Package bank loads and validates question banks: the built-in personality
// bank and caller-supplied compatibility banks.
package bank

import (
	"fmt"

	"duet-quiz-service/internal/domain"
)

// MaxQuestions bounds bank size; it caps scoring cost and keeps share
// sessions short enough to finish in one sitting.
const MaxQuestions = 15

// Resolve returns the bank for a mode. Personality quizzes always use the
// built-in bank; other modes validate the caller-supplied one.
func Resolve(mode domain.Mode, custom domain.Bank) (domain.Bank, error) {
	switch mode {
	case domain.ModePersonality:
		return Personality()
	case domain.ModeCompatibility, domain.ModeShared:
		if err := Validate(custom); err != nil {
			return domain.Bank{}, err
		}
		return custom, nil
	default:
		return domain.Bank{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidBank, mode)
	}
}

// Validate checks bank shape before it is frozen onto an instance.
func Validate(b domain.Bank) error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: bank has no questions", domain.ErrInvalidBank)
	}
	if len(b.Questions) > MaxQuestions {
		return fmt.Errorf("%w: bank has %d questions, max is %d", domain.ErrInvalidBank, len(b.Questions), MaxQuestions)
	}

	seen := make(map[string]struct{}, len(b.Questions))
	for _, question := range b.Questions {
		if question.ID == "" {
			return fmt.Errorf("%w: question with empty id", domain.ErrInvalidBank)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", domain.ErrInvalidBank, question.ID)
		}
		seen[question.ID] = struct{}{}

		if !question.Kind.Valid() {
			return fmt.Errorf("%w: question %q has unrecognized kind %q", domain.ErrInvalidBank, question.ID, question.Kind)
		}
		switch question.Kind {
		case domain.KindMultipleChoice, domain.KindScale:
			if len(question.Options) == 0 {
				return fmt.Errorf("%w: question %q (%s) needs at least one option", domain.ErrInvalidBank, question.ID, question.Kind)
			}
		}
		for _, opt := range question.Options {
			if opt.Weight < 0 {
				return fmt.Errorf("%w: question %q option %q has negative weight", domain.ErrInvalidBank, question.ID, opt.Label)
			}
		}
	}

	if len(b.Buckets) > 0 {
		if err := validateBuckets(b.Buckets, domain.MaxScore(b.Questions)); err != nil {
			return err
		}
	}
	return nil
}

// validateBuckets requires an ordered, non-overlapping table covering the
// whole score domain [0, maxScore].
func validateBuckets(buckets []domain.Bucket, maxScore int) error {
	next := 0
	for _, bucket := range buckets {
		if bucket.Label == "" {
			return fmt.Errorf("%w: bucket [%d,%d] has no label", domain.ErrInvalidBank, bucket.Min, bucket.Max)
		}
		if bucket.Min != next {
			return fmt.Errorf("%w: bucket table has a gap or overlap at score %d", domain.ErrInvalidBank, next)
		}
		if bucket.Max < bucket.Min {
			return fmt.Errorf("%w: bucket [%d,%d] is inverted", domain.ErrInvalidBank, bucket.Min, bucket.Max)
		}
		next = bucket.Max + 1
	}
	if next != maxScore+1 {
		return fmt.Errorf("%w: bucket table covers scores up to %d, domain ends at %d", domain.ErrInvalidBank, next-1, maxScore)
	}
	return nil
}
