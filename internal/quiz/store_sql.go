package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-grader/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,questions_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, questions_json=EXCLUDED.questions_json`,
		q.ID, q.Title, string(qj), q.CreatedAt)
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := s.GetQuizAdmin(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	// Strip answer keys when serving to learners (parity with in-memory behavior)
	return q.LearnerView(), nil
}

func (s *SQLStore) GetQuizAdmin(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,questions_json,created_at FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.Title, &qjson, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("decode questions of quiz %s: %w", id, err)
	}
	return q, nil
}

func (s *SQLStore) NewAttempt(ctx context.Context, quizID, userID string) (Attempt, error) {
	// ensure quiz exists
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, quizID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrQuizNotFound
		}
		return Attempt{}, err
	}
	a := Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    StatusInProgress,
		Responses: map[string]interface{}{},
		StartedAt: time.Now().Unix(),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts (id,quiz_id,user_id,status,score,max_score,percentage,responses_json,started_at)
		VALUES ($1,$2,$3,$4,0,0,0,'{}',$5)`,
		a.ID, quizID, userID, StatusInProgress, a.StartedAt)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SaveResponses(ctx context.Context, attemptID string, resp map[string]interface{}) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == StatusSubmitted {
		return Attempt{}, ErrSubmitted
	}
	// merge
	if a.Responses == nil {
		a.Responses = map[string]interface{}{}
	}
	for k, v := range resp {
		a.Responses[k] = v
	}
	if err := s.writeResponses(ctx, attemptID, a.Responses); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

// writeResponses stores responses while the attempt is still in progress.
// A submit that landed after the read leaves no row to update.
func (s *SQLStore) writeResponses(ctx context.Context, attemptID string, resp map[string]interface{}) error {
	buf, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET responses_json=$1 WHERE id=$2 AND status=$3`,
		string(buf), attemptID, StatusInProgress)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetAttempt(ctx, attemptID); err != nil {
			return err
		}
		return ErrSubmitted
	}
	return nil
}

func (s *SQLStore) SaveGrade(ctx context.Context, attemptID string, g grading.AttemptGrade) (Attempt, error) {
	gj, err := json.Marshal(g)
	if err != nil {
		return Attempt{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status=$1, score=$2, max_score=$3, percentage=$4, grade_json=$5, submitted_at=$6
		WHERE id=$7 AND status=$8`,
		StatusSubmitted, g.TotalScore, g.TotalPossible, g.Percentage, string(gj), time.Now().Unix(),
		attemptID, StatusInProgress)
	if err != nil {
		return Attempt{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either missing or graded by a concurrent submit
		if _, err := s.GetAttempt(ctx, attemptID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, ErrSubmitted
	}
	return s.GetAttempt(ctx, attemptID)
}

const attemptColumns = `id,quiz_id,user_id,status,score,max_score,percentage,responses_json,grade_json,started_at,submitted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var rjson string
	var gjson sql.NullString
	var submitted sql.NullInt64
	if err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.Score, &a.MaxScore, &a.Percentage,
		&rjson, &gjson, &a.StartedAt, &submitted); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(rjson), &a.Responses); err != nil {
		return Attempt{}, fmt.Errorf("decode responses of attempt %s: %w", a.ID, err)
	}
	if a.Responses == nil {
		a.Responses = map[string]interface{}{}
	}
	if gjson.Valid && gjson.String != "" {
		var g grading.AttemptGrade
		if err := json.Unmarshal([]byte(gjson.String), &g); err != nil {
			return Attempt{}, fmt.Errorf("decode grade of attempt %s: %w", a.ID, err)
		}
		a.Grade = &g
	}
	if submitted.Valid {
		a.SubmittedAt = submitted.Int64
	}
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id=$1`, id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var where []string
	var args []any
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	add("quiz_id", opts.QuizID)
	add("user_id", opts.UserID)
	add("status", opts.Status)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + attemptColumns + ` FROM attempts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit, opts.Offset)
	q += fmt.Sprintf(` ORDER BY started_at DESC, id ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
