package bank

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"duet-quiz-service/internal/domain"
)

//go:embed personality.yaml
var personalityYAML []byte

var (
	personalityOnce sync.Once
	personalityBank domain.Bank
	personalityErr  error
)

type yamlBank struct {
	Questions []yamlQuestion `yaml:"questions"`
	Buckets   []yamlBucket   `yaml:"buckets"`
}

type yamlQuestion struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Kind    string       `yaml:"kind"`
	Options []yamlOption `yaml:"options"`
}

type yamlOption struct {
	Label  string `yaml:"label"`
	Weight int    `yaml:"weight"`
}

type yamlBucket struct {
	Min   int    `yaml:"min"`
	Max   int    `yaml:"max"`
	Label string `yaml:"label"`
}

// Personality returns the canonical built-in bank. It is parsed and
// validated once; a copy is returned so callers cannot mutate the shared
// content.
func Personality() (domain.Bank, error) {
	personalityOnce.Do(func() {
		personalityBank, personalityErr = parsePersonality(personalityYAML)
	})
	if personalityErr != nil {
		return domain.Bank{}, personalityErr
	}
	return copyBank(personalityBank), nil
}

func parsePersonality(raw []byte) (domain.Bank, error) {
	var parsed yamlBank
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return domain.Bank{}, fmt.Errorf("parse personality bank: %w", err)
	}

	b := domain.Bank{
		Questions: make([]domain.Question, 0, len(parsed.Questions)),
		Buckets:   make([]domain.Bucket, 0, len(parsed.Buckets)),
	}
	for _, question := range parsed.Questions {
		options := make([]domain.Option, 0, len(question.Options))
		for _, opt := range question.Options {
			options = append(options, domain.Option{Label: opt.Label, Weight: opt.Weight})
		}
		b.Questions = append(b.Questions, domain.Question{
			ID:      question.ID,
			Text:    question.Text,
			Kind:    domain.QuestionKind(question.Kind),
			Options: options,
		})
	}
	for _, bucket := range parsed.Buckets {
		b.Buckets = append(b.Buckets, domain.Bucket{Min: bucket.Min, Max: bucket.Max, Label: bucket.Label})
	}

	if err := Validate(b); err != nil {
		return domain.Bank{}, fmt.Errorf("embedded personality bank: %w", err)
	}
	return b, nil
}

func copyBank(b domain.Bank) domain.Bank {
	out := domain.Bank{
		Questions: make([]domain.Question, len(b.Questions)),
		Buckets:   append([]domain.Bucket(nil), b.Buckets...),
	}
	for i, question := range b.Questions {
		question.Options = append([]domain.Option(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}
