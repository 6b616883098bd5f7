package grading

import "math"

// AttemptGrade aggregates the results of every question in a quiz.
//
// Percentage is round(TotalScore / TotalPossible * 100). A quiz whose
// questions are worth nothing in total cannot produce a meaningful
// percentage; it reports 0 and sets Ungraded.
type AttemptGrade struct {
	TotalScore    float64  `json:"total_score"`
	TotalPossible float64  `json:"total_possible"`
	Percentage    int      `json:"percentage"`
	Ungraded      bool     `json:"ungraded,omitempty"`
	PerQuestion   []Result `json:"per_question"`
}

// GradeAttempt grades questions in order against answers keyed by question
// index. Missing answers grade as unanswered. Every question is graded even
// when some of them fail.
func (g *Grader) GradeAttempt(questions []Question, answers map[int]Response) AttemptGrade {
	out := AttemptGrade{PerQuestion: make([]Result, 0, len(questions))}
	for i, q := range questions {
		r := g.Grade(q, answers[i], i)
		out.TotalScore += r.Score
		out.TotalPossible += r.MaxScore
		out.PerQuestion = append(out.PerQuestion, r)
	}
	out.Percentage, out.Ungraded = percentage(out.TotalScore, out.TotalPossible)
	g.observer.AttemptGraded(out)
	return out
}

func percentage(score, possible float64) (int, bool) {
	if possible <= 0 {
		return 0, true
	}
	return int(math.Round(score / possible * 100)), false
}
