package quiz

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-grader/internal/grading"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrSubmitted       = errors.New("attempt already submitted")
)

type AttemptListOpts struct {
	QuizID string // filter by quiz
	UserID string // filter by learner
	Status string // optional: in_progress|submitted
	Limit  int
	Offset int
}

// Store persists quizzes and attempts. Grading happens in Service; stores
// only record the outcome.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)      // learner-safe (no answer keys)
	GetQuizAdmin(ctx context.Context, id string) (Quiz, error) // full quiz, for grading/authors
	NewAttempt(ctx context.Context, quizID, userID string) (Attempt, error)
	SaveResponses(ctx context.Context, attemptID string, resp map[string]interface{}) (Attempt, error)
	SaveGrade(ctx context.Context, attemptID string, g grading.AttemptGrade) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
}
