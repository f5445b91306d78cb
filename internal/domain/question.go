package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionDifficulty is the requested difficulty of a practice question.
type QuestionDifficulty string

const (
	QuestionDifficultyEasy   QuestionDifficulty = "easy"
	QuestionDifficultyMedium QuestionDifficulty = "medium"
	QuestionDifficultyHard   QuestionDifficulty = "hard"
)

// IsValid returns true if the difficulty is a recognized value.
func (d QuestionDifficulty) IsValid() bool {
	switch d {
	case QuestionDifficultyEasy, QuestionDifficultyMedium, QuestionDifficultyHard:
		return true
	}
	return false
}

// Question is a generated practice question for a job info. Only its count
// matters for quota purposes.
type Question struct {
	ID         uuid.UUID
	JobInfoID  uuid.UUID
	Text       string
	Difficulty QuestionDifficulty
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateQuestionParams contains parameters for storing a question.
type CreateQuestionParams struct {
	Text       string
	Difficulty QuestionDifficulty
}

// Validate trims the text and checks required values.
func (p *CreateQuestionParams) Validate() error {
	const op = "question.validate"

	p.Text = strings.TrimSpace(p.Text)
	if p.Text == "" {
		return Invalid(op, "question text is required")
	}
	if !p.Difficulty.IsValid() {
		return Invalid(op, "difficulty must be easy, medium or hard")
	}
	return nil
}
