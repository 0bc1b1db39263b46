package domain

import "math"

// UnclassifiedLabel is reported when a score matches no bucket.
const UnclassifiedLabel = "unclassified"

// Weighted reports whether any option in the question set declares a weight.
// Weighted banks score by summed option weights; weightless banks fall back
// to the answered-ratio mode.
func Weighted(questions []Question) bool {
	for _, question := range questions {
		for _, opt := range question.Options {
			if opt.Weight != 0 {
				return true
			}
		}
	}
	return false
}

// IndividualScore sums the resolved weights of an answer set. Text entries
// carry weight zero by construction.
func IndividualScore(set AnswerSet) int {
	total := 0
	for _, entry := range set.Entries {
		total += entry.ResolvedWeight
	}
	return total
}

// MaxScore is the highest individual score the question set admits: the sum
// of each question's largest option weight.
func MaxScore(questions []Question) int {
	total := 0
	for _, question := range questions {
		best := 0
		for _, opt := range question.Options {
			if opt.Weight > best {
				best = opt.Weight
			}
		}
		total += best
	}
	return total
}

// Classify returns the label of the bucket containing score, or
// UnclassifiedLabel when no bucket matches.
func Classify(score int, buckets []Bucket) string {
	for _, bucket := range buckets {
		if score >= bucket.Min && score <= bucket.Max {
			return bucket.Label
		}
	}
	return UnclassifiedLabel
}

// Compatibility maps two individual scores to a 0-100 percentage:
// 100 - |a-b|*2, floored at 0. Equal scores yield 100; every point of
// divergence costs two percentage points. This exact formula is part of the
// external contract and must not change.
func Compatibility(a, b int) int {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	score := 100 - diff*2
	if score < 0 {
		return 0
	}
	return score
}

// AnsweredRatio is the fraction of questions with a non-empty answer,
// expressed 0-100 and rounded to the nearest integer. Used when the bank
// carries no weights.
func AnsweredRatio(set AnswerSet, totalQuestions int) int {
	if totalQuestions == 0 {
		return 0
	}
	answered := 0
	for _, entry := range set.Entries {
		if entry.Value.Answered() {
			answered++
		}
	}
	return int(math.Round(float64(answered) / float64(totalQuestions) * 100))
}

// BuildResult computes the pairwise outcome between the creator and one
// responder. The lifecycle controller guarantees both answer sets exist
// before calling; reaching this without them is a defect, so it panics
// rather than producing a wrong number.
func BuildResult(inst *QuizInstance, responderID string) Result {
	if inst.CreatorAnswers == nil {
		panic("quiz: building result without creator answers")
	}
	responderSet, ok := inst.Responses[responderID]
	if !ok {
		panic("quiz: building result for responder without answers")
	}

	result := Result{
		ResponderID: responderID,
		Weighted:    Weighted(inst.Questions),
	}
	if result.Weighted {
		result.CreatorScore = IndividualScore(*inst.CreatorAnswers)
		result.ResponderScore = IndividualScore(responderSet)
		if len(inst.Buckets) > 0 {
			result.CreatorLabel = Classify(result.CreatorScore, inst.Buckets)
			result.ResponderLabel = Classify(result.ResponderScore, inst.Buckets)
		}
	} else {
		total := len(inst.Questions)
		result.CreatorScore = AnsweredRatio(*inst.CreatorAnswers, total)
		result.ResponderScore = AnsweredRatio(responderSet, total)
	}
	result.Compatibility = Compatibility(result.CreatorScore, result.ResponderScore)
	return result
}
