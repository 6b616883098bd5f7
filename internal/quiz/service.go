package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-grader/internal/grading"
	"github.com/mind-engage/mindengage-grader/internal/logging"
	syncx "github.com/mind-engage/mindengage-grader/internal/sync"
)

var (
	ErrInvalidQuiz      = errors.New("invalid quiz")
	ErrInvalidResponses = errors.New("invalid responses")
)

// EventSink records domain events; *syncx.EventRepo satisfies it.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

// Service is the attempt-submission service around the grading engine:
// it loads quizzes and attempts, grades, and records the outcome.
type Service struct {
	store    Store
	events   EventSink
	siteID   string
	maxDepth int
	validate *validator.Validate
}

type ServiceOption func(*Service)

func WithEvents(sink EventSink, siteID string) ServiceOption {
	return func(s *Service) { s.events, s.siteID = sink, siteID }
}

func WithMaxDepth(n int) ServiceOption {
	return func(s *Service) { s.maxDepth = n }
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, maxDepth: grading.DefaultMaxDepth, validate: validator.New()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Store() Store { return s.store }

// grader builds a grader that logs through the request logger.
func (s *Service) grader(log logrus.FieldLogger) *grading.Grader {
	return grading.NewGrader(
		grading.WithMaxDepth(s.maxDepth),
		grading.WithObserver(grading.NewLogObserver(log)),
	)
}

// CreateQuiz validates every question definition and stores the quiz.
func (s *Service) CreateQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	if err := s.validate.Struct(q); err != nil {
		return Quiz{}, fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	g := s.grader(logging.FromContext(ctx))
	for i, qq := range q.Questions {
		if err := g.Validate(qq); err != nil {
			return Quiz{}, fmt.Errorf("%w: question %d: %v", ErrInvalidQuiz, i, err)
		}
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"quiz_id":   q.ID,
		"questions": len(q.Questions),
	}).Info("quiz stored")
	return q, nil
}

// SaveResponses merges answers into an in-progress attempt. Keys must be
// question indexes; values are kept as submitted and only interpreted at
// grading time.
func (s *Service) SaveResponses(ctx context.Context, attemptID string, resp map[string]interface{}) (Attempt, error) {
	if _, err := grading.ParseAnswers(resp); err != nil {
		return Attempt{}, fmt.Errorf("%w: %v", ErrInvalidResponses, err)
	}
	return s.store.SaveResponses(ctx, attemptID, resp)
}

// Submit grades an attempt and persists the result. Submitting twice
// returns the stored grade.
func (s *Service) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	log := logging.FromContext(ctx).WithField("attempt_id", attemptID)

	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == StatusSubmitted {
		return a, nil
	}
	// load full quiz WITH keys for grading
	q, err := s.store.GetQuizAdmin(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, fmt.Errorf("load quiz %s: %w", a.QuizID, err)
	}

	answers := storedAnswers(log, a.Responses)
	grade := s.grader(log.WithField("quiz_id", q.ID)).GradeAttempt(q.Questions, answers)

	graded, err := s.store.SaveGrade(ctx, attemptID, grade)
	if errors.Is(err, ErrSubmitted) {
		// a concurrent submit won; its grade is the same
		return s.store.GetAttempt(ctx, attemptID)
	}
	if err != nil {
		return Attempt{}, err
	}
	s.appendEvent(ctx, log, graded)
	return graded, nil
}

// Preview grades answers against questions without persisting anything.
func (s *Service) Preview(ctx context.Context, questions []grading.Question, raw map[string]interface{}) (grading.AttemptGrade, error) {
	answers, err := grading.ParseAnswers(raw)
	if err != nil {
		return grading.AttemptGrade{}, fmt.Errorf("%w: %v", ErrInvalidResponses, err)
	}
	return s.grader(logging.FromContext(ctx)).GradeAttempt(questions, answers), nil
}

func (s *Service) appendEvent(ctx context.Context, log logrus.FieldLogger, a Attempt) {
	if s.events == nil {
		return
	}
	e, err := syncx.NewEvent(s.siteID, syncx.TypeAttemptGraded, a.ID, map[string]interface{}{
		"quiz_id":      a.QuizID,
		"user_id":      a.UserID,
		"score":        a.Score,
		"max_score":    a.MaxScore,
		"percentage":   a.Percentage,
		"submitted_at": a.SubmittedAt,
	})
	if err == nil {
		err = s.events.Append(ctx, e)
	}
	if err != nil {
		// the grade is already stored; the event log is best effort
		log.WithError(err).Warn("append attempt event")
	}
}

// storedAnswers parses persisted responses, dropping keys that are not
// question indexes.
func storedAnswers(log logrus.FieldLogger, raw map[string]interface{}) map[int]grading.Response {
	out := make(map[int]grading.Response, len(raw))
	for k, v := range raw {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			log.WithField("key", k).Warn("ignoring response with non-index key")
			continue
		}
		out[i] = grading.ParseResponse(v)
	}
	return out
}
