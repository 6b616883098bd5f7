package quiz

import "github.com/mind-engage/mindengage-grader/internal/grading"

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

type Quiz struct {
	ID        string             `json:"id"`
	Title     string             `json:"title" validate:"required"`
	Questions []grading.Question `json:"questions"`
	CreatedAt int64              `json:"created_at,omitempty"`
}

// LearnerView strips every answer key so the quiz can be served to learners.
func (q Quiz) LearnerView() Quiz {
	out := q
	out.Questions = make([]grading.Question, len(q.Questions))
	for i, qq := range q.Questions {
		out.Questions[i] = qq.StripKeys()
	}
	return out
}

type Attempt struct {
	ID          string                 `json:"id"`
	QuizID      string                 `json:"quiz_id"`
	UserID      string                 `json:"user_id"`
	Status      string                 `json:"status"` // in_progress|submitted
	Score       float64                `json:"score"`
	MaxScore    float64                `json:"max_score"`
	Percentage  int                    `json:"percentage"`
	Responses   map[string]interface{} `json:"responses"` // question index -> response payload
	Grade       *grading.AttemptGrade  `json:"grade,omitempty"`
	StartedAt   int64                  `json:"started_at,omitempty"`
	SubmittedAt int64                  `json:"submitted_at,omitempty"`
}

// applyGrade copies the aggregate of g onto the attempt and marks it submitted.
func (a *Attempt) applyGrade(g grading.AttemptGrade, at int64) {
	a.Score = g.TotalScore
	a.MaxScore = g.TotalPossible
	a.Percentage = g.Percentage
	a.Grade = &g
	a.Status = StatusSubmitted
	a.SubmittedAt = at
}
