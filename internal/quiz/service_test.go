package quiz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-grader/internal/grading"
	"github.com/mind-engage/mindengage-grader/internal/quiz"
	syncx "github.com/mind-engage/mindengage-grader/internal/sync"
)

/* ---------------- in-memory event sink ---------------- */

type fakeSink struct {
	events []syncx.Event
	err    error
}

func (f *fakeSink) Append(_ context.Context, e syncx.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func geographyQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:    "geo-1",
		Title: "Capitals",
		Questions: []grading.Question{
			{Kind: grading.KindSingleChoice, Prompt: "Capital of Italy", AnswerKey: grading.AnswerKey{"2"}, MaxPoints: 1},
			{Kind: grading.KindFreeText, Prompt: "Capital of France", AnswerKey: grading.AnswerKey{"Paris"}, MaxPoints: 2},
			{Kind: grading.KindMultiSelect, Prompt: "EU members", AnswerKey: grading.AnswerKey{"0", "1"}, MaxPoints: 2, AllowPartialCredit: true},
		},
	}
}

func TestService_CreateQuiz(t *testing.T) {
	ctx := context.Background()
	svc := quiz.NewService(quiz.NewInMemoryStore())

	q := geographyQuiz()
	q.ID = ""
	stored, err := svc.CreateQuiz(ctx, q)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	learner, err := svc.Store().GetQuiz(ctx, stored.ID)
	require.NoError(t, err)
	for _, qq := range learner.Questions {
		assert.Nil(t, qq.AnswerKey)
	}
	admin, err := svc.Store().GetQuizAdmin(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, grading.AnswerKey{"Paris"}, admin.Questions[1].AnswerKey)
}

func TestService_CreateQuizRejectsInvalid(t *testing.T) {
	svc := quiz.NewService(quiz.NewInMemoryStore())

	bad := geographyQuiz()
	bad.Questions = append(bad.Questions, grading.Question{Kind: "essay", AnswerKey: grading.AnswerKey{"x"}})
	_, err := svc.CreateQuiz(context.Background(), bad)
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)

	untitled := geographyQuiz()
	untitled.Title = ""
	_, err = svc.CreateQuiz(context.Background(), untitled)
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)
}

func TestService_SubmitFlow(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	store := quiz.NewInMemoryStore()
	svc := quiz.NewService(store, quiz.WithEvents(sink, "site-a"))

	_, err := svc.CreateQuiz(ctx, geographyQuiz())
	require.NoError(t, err)
	a, err := store.NewAttempt(ctx, "geo-1", "u1")
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusInProgress, a.Status)

	_, err = svc.SaveResponses(ctx, a.ID, map[string]interface{}{"0": float64(2), "1": "paris"})
	require.NoError(t, err)
	_, err = svc.SaveResponses(ctx, a.ID, map[string]interface{}{"2": []interface{}{"0", "3"}})
	require.NoError(t, err)

	graded, err := svc.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusSubmitted, graded.Status)
	// 1 + 2 + round(2 * (1-1)/2)
	assert.Equal(t, 3.0, graded.Score)
	assert.Equal(t, 5.0, graded.MaxScore)
	assert.Equal(t, 60, graded.Percentage)
	require.NotNil(t, graded.Grade)
	assert.Len(t, graded.Grade.PerQuestion, 3)
	assert.NotZero(t, graded.SubmittedAt)

	require.Len(t, sink.events, 1)
	assert.Equal(t, syncx.TypeAttemptGraded, sink.events[0].Type)
	assert.Equal(t, a.ID, sink.events[0].Key)
	assert.Equal(t, "site-a", sink.events[0].SiteID)
	assert.Contains(t, sink.events[0].DataJSON, `"percentage":60`)

	again, err := svc.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, graded.Score, again.Score)
	assert.Len(t, sink.events, 1)

	_, err = svc.SaveResponses(ctx, a.ID, map[string]interface{}{"0": "1"})
	assert.ErrorIs(t, err, quiz.ErrSubmitted)
}

func TestService_SubmitWithoutAnswers(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	svc := quiz.NewService(store)
	_, err := svc.CreateQuiz(ctx, geographyQuiz())
	require.NoError(t, err)
	a, err := store.NewAttempt(ctx, "geo-1", "u2")
	require.NoError(t, err)

	graded, err := svc.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, graded.Score)
	assert.Equal(t, 5.0, graded.MaxScore)
	assert.Zero(t, graded.Percentage)
}

func TestService_EventFailureDoesNotFailSubmit(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	svc := quiz.NewService(store, quiz.WithEvents(&fakeSink{err: errors.New("disk full")}, ""))
	_, err := svc.CreateQuiz(ctx, geographyQuiz())
	require.NoError(t, err)
	a, err := store.NewAttempt(ctx, "geo-1", "u3")
	require.NoError(t, err)

	graded, err := svc.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusSubmitted, graded.Status)
}

func TestService_SaveResponsesRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	svc := quiz.NewService(store)
	_, err := svc.CreateQuiz(ctx, geographyQuiz())
	require.NoError(t, err)
	a, err := store.NewAttempt(ctx, "geo-1", "u4")
	require.NoError(t, err)

	_, err = svc.SaveResponses(ctx, a.ID, map[string]interface{}{"first": "x"})
	assert.ErrorIs(t, err, quiz.ErrInvalidResponses)
}

func TestService_NotFound(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	svc := quiz.NewService(store)

	_, err := svc.Submit(ctx, "missing")
	assert.ErrorIs(t, err, quiz.ErrAttemptNotFound)
	_, err = store.NewAttempt(ctx, "missing", "u1")
	assert.ErrorIs(t, err, quiz.ErrQuizNotFound)
}

func TestService_Preview(t *testing.T) {
	svc := quiz.NewService(quiz.NewInMemoryStore())
	g, err := svc.Preview(context.Background(), geographyQuiz().Questions, map[string]interface{}{"1": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, g.TotalScore)
	assert.Equal(t, 40, g.Percentage)

	_, err = svc.Preview(context.Background(), nil, map[string]interface{}{"x": 1})
	assert.ErrorIs(t, err, quiz.ErrInvalidResponses)
}

func TestMemoryStore_ListAttempts(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	require.NoError(t, store.PutQuiz(ctx, geographyQuiz()))
	for _, u := range []string{"u1", "u1", "u2"} {
		_, err := store.NewAttempt(ctx, "geo-1", u)
		require.NoError(t, err)
	}

	all, err := store.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "geo-1"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := store.ListAttempts(ctx, quiz.AttemptListOpts{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	paged, err := store.ListAttempts(ctx, quiz.AttemptListOpts{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	submitted, err := store.ListAttempts(ctx, quiz.AttemptListOpts{Status: quiz.StatusSubmitted})
	require.NoError(t, err)
	assert.Empty(t, submitted)
}
