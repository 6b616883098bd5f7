package quiz

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-grader/internal/db"
	"github.com/mind-engage/mindengage-grader/internal/grading"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "grader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewSQLStore(conn, string(db.DriverSQLite))
}

func seedAttempt(t *testing.T, s *SQLStore) Attempt {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.PutQuiz(ctx, Quiz{ID: "q1", Title: "t", Questions: []grading.Question{
		{Kind: grading.KindBoolean, AnswerKey: grading.AnswerKey{"true"}, MaxPoints: 1},
	}}))
	a, err := s.NewAttempt(ctx, "q1", "u1")
	require.NoError(t, err)
	return a
}

// The attempt is graded between reading it and writing the merged answers.
func TestSQLStore_WriteResponsesAfterSubmit(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	a := seedAttempt(t, s)

	require.NoError(t, s.writeResponses(ctx, a.ID, map[string]interface{}{"0": "true"}))
	_, err := s.SaveGrade(ctx, a.ID, grading.AttemptGrade{TotalPossible: 1})
	require.NoError(t, err)

	err = s.writeResponses(ctx, a.ID, map[string]interface{}{"0": "false"})
	assert.ErrorIs(t, err, ErrSubmitted)
	err = s.writeResponses(ctx, "missing", map[string]interface{}{"0": "false"})
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	got, err := s.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "true", got.Responses["0"])
}

func TestSQLStore_CorruptAttemptColumns(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	a := seedAttempt(t, s)
	_, err := s.db.ExecContext(ctx, `UPDATE attempts SET responses_json=$1 WHERE id=$2`, `{"0":`, a.ID)
	require.NoError(t, err)
	_, err = s.GetAttempt(ctx, a.ID)
	assert.ErrorContains(t, err, "decode responses of attempt "+a.ID)

	b, err := s.NewAttempt(ctx, "q1", "u2")
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `UPDATE attempts SET grade_json=$1 WHERE id=$2`, `[1,2]`, b.ID)
	require.NoError(t, err)
	_, err = s.GetAttempt(ctx, b.ID)
	assert.ErrorContains(t, err, "decode grade of attempt "+b.ID)

	_, err = s.ListAttempts(ctx, AttemptListOpts{QuizID: "q1"})
	assert.Error(t, err)
}
