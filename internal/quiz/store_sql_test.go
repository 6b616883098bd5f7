package quiz_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-grader/internal/db"
	"github.com/mind-engage/mindengage-grader/internal/grading"
	"github.com/mind-engage/mindengage-grader/internal/quiz"
	syncx "github.com/mind-engage/mindengage-grader/internal/sync"
)

func openSQLite(t *testing.T) *quiz.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "grader.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return quiz.NewSQLStore(conn, string(db.DriverSQLite))
}

func TestSQLStore_QuizRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	q := geographyQuiz()
	q.Questions = append(q.Questions, grading.Question{
		Kind:      grading.KindComposite,
		MaxPoints: 1,
		AnswerKey: grading.AnswerKey{"x"},
		SubQuestions: []grading.Question{
			{Kind: grading.KindBoolean, AnswerKey: grading.AnswerKey{"true"}, MaxPoints: 1},
		},
	})
	require.NoError(t, store.PutQuiz(ctx, q))

	admin, err := store.GetQuizAdmin(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Title, admin.Title)
	require.Len(t, admin.Questions, 4)
	assert.Equal(t, grading.AnswerKey{"0", "1"}, admin.Questions[2].AnswerKey)
	assert.True(t, admin.Questions[2].AllowPartialCredit)
	assert.Equal(t, grading.AnswerKey{"true"}, admin.Questions[3].SubQuestions[0].AnswerKey)

	learner, err := store.GetQuiz(ctx, q.ID)
	require.NoError(t, err)
	assert.Nil(t, learner.Questions[0].AnswerKey)
	assert.Nil(t, learner.Questions[3].SubQuestions[0].AnswerKey)

	q.Title = "Capitals v2"
	require.NoError(t, store.PutQuiz(ctx, q))
	admin, err = store.GetQuizAdmin(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capitals v2", admin.Title)

	_, err = store.GetQuizAdmin(ctx, "nope")
	assert.ErrorIs(t, err, quiz.ErrQuizNotFound)
}

func TestSQLStore_SubmitThroughService(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)
	svc := quiz.NewService(store)

	_, err := svc.CreateQuiz(ctx, geographyQuiz())
	require.NoError(t, err)
	a, err := store.NewAttempt(ctx, "geo-1", "u1")
	require.NoError(t, err)

	_, err = svc.SaveResponses(ctx, a.ID, map[string]interface{}{"0": "2"})
	require.NoError(t, err)
	saved, err := svc.SaveResponses(ctx, a.ID, map[string]interface{}{"1": "Pariss", "2": []interface{}{"1", "0"}})
	require.NoError(t, err)
	assert.Len(t, saved.Responses, 3)

	graded, err := svc.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusSubmitted, graded.Status)
	assert.Equal(t, 5.0, graded.MaxScore)
	// "pariss" contains "paris": 0.9 similarity, correct, full points
	assert.Equal(t, 5.0, graded.Score)
	assert.Equal(t, 100, graded.Percentage)
	require.NotNil(t, graded.Grade)
	assert.Len(t, graded.Grade.PerQuestion, 3)
	assert.NotZero(t, graded.SubmittedAt)

	_, err = store.SaveGrade(ctx, a.ID, grading.AttemptGrade{})
	assert.ErrorIs(t, err, quiz.ErrSubmitted)
	_, err = store.SaveResponses(ctx, a.ID, map[string]interface{}{"0": "1"})
	assert.ErrorIs(t, err, quiz.ErrSubmitted)
	_, err = store.SaveGrade(ctx, "missing", grading.AttemptGrade{})
	assert.ErrorIs(t, err, quiz.ErrAttemptNotFound)
}

func TestSQLStore_ListAttempts(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)
	require.NoError(t, store.PutQuiz(ctx, geographyQuiz()))
	for _, u := range []string{"u1", "u1", "u2"} {
		_, err := store.NewAttempt(ctx, "geo-1", u)
		require.NoError(t, err)
	}

	mine, err := store.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "geo-1", UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	paged, err := store.ListAttempts(ctx, quiz.AttemptListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 2)

	none, err := store.ListAttempts(ctx, quiz.AttemptListOpts{Status: quiz.StatusSubmitted})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.NewAttempt(ctx, "missing", "u1")
	assert.ErrorIs(t, err, quiz.ErrQuizNotFound)
}

func TestSQLStore_EventLog(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "events.db")
	conn, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	defer conn.Close()

	events := syncx.NewEventRepo(conn)
	store := quiz.NewSQLStore(conn, string(db.DriverSQLite))
	svc := quiz.NewService(store, quiz.WithEvents(events, "site-b"))

	_, err = svc.CreateQuiz(ctx, geographyQuiz())
	require.NoError(t, err)
	a, err := store.NewAttempt(ctx, "geo-1", "u1")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, a.ID)
	require.NoError(t, err)

	got, err := events.Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, syncx.TypeAttemptGraded, got[0].Type)
	assert.Equal(t, a.ID, got[0].Key)
	assert.Equal(t, "site-b", got[0].SiteID)
	assert.NotZero(t, got[0].Seq)

	later, err := events.Since(ctx, got[0].Seq, 10)
	require.NoError(t, err)
	assert.Empty(t, later)
}
