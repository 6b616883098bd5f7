package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Kind identifies how a question is graded.
type Kind string

const (
	KindSingleChoice Kind = "single_choice"
	KindMultiSelect  Kind = "multi_select"
	KindBoolean      Kind = "boolean"
	KindFreeText     Kind = "free_text"
	KindComposite    Kind = "composite"
)

// Known reports whether k is one of the supported kinds.
func (k Kind) Known() bool {
	switch k {
	case KindSingleChoice, KindMultiSelect, KindBoolean, KindFreeText, KindComposite:
		return true
	}
	return false
}

var (
	ErrUnknownKind   = errors.New("unknown question kind")
	ErrMissingKey    = errors.New("question has no answer key")
	ErrDepthExceeded = errors.New("composite nesting too deep")
	ErrNoSubQuestion = errors.New("composite question has no sub-questions")
)

// Question is an immutable question definition as authored in a quiz.
//
// AnswerKey holds the canonical answer(s) as strings: the choice index or
// boolean for single_choice/boolean, the correct set for multi_select and
// the acceptable strings for free_text. Composite questions ignore it.
type Question struct {
	Kind               Kind       `json:"kind" validate:"required"`
	Prompt             string     `json:"prompt,omitempty"`
	AnswerKey          AnswerKey  `json:"answer_key,omitempty"`
	MaxPoints          float64    `json:"max_points" validate:"gte=0"`
	AllowPartialCredit bool       `json:"allow_partial_credit,omitempty"`
	CaseSensitive      bool       `json:"case_sensitive,omitempty"`
	SubQuestions       []Question `json:"sub_questions,omitempty"`
}

// UnmarshalJSON applies the default of one point when max_points is absent.
func (q *Question) UnmarshalJSON(b []byte) error {
	type plain Question
	p := plain{MaxPoints: 1}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = Question(p)
	return nil
}

// Points is the maximum score of the question. For composite questions it
// is the sum of the sub-questions' points; MaxPoints on the composite is
// ignored.
func (q Question) Points() float64 {
	if q.Kind != KindComposite {
		return q.MaxPoints
	}
	total := 0.0
	for _, sq := range q.SubQuestions {
		total += sq.Points()
	}
	return total
}

var validate = validator.New()

// Validate checks the definition of q and all of its sub-questions, allowing
// composite nesting up to DefaultMaxDepth.
func (q Question) Validate() error {
	return q.validate(0, DefaultMaxDepth)
}

func (q Question) validate(depth, maxDepth int) error {
	if err := validate.Struct(q); err != nil {
		return err
	}
	if !q.Kind.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
	}
	if q.Kind != KindComposite {
		if len(q.AnswerKey.nonEmpty()) == 0 {
			return ErrMissingKey
		}
		return nil
	}
	if len(q.SubQuestions) == 0 {
		return ErrNoSubQuestion
	}
	if depth+1 > maxDepth {
		return fmt.Errorf("%w (max %d)", ErrDepthExceeded, maxDepth)
	}
	for i, sq := range q.SubQuestions {
		if err := sq.validate(depth+1, maxDepth); err != nil {
			return fmt.Errorf("sub-question %d: %w", i, err)
		}
	}
	return nil
}

// StripKeys returns a copy of q with every answer key removed, suitable for
// serving to learners.
func (q Question) StripKeys() Question {
	q.AnswerKey = nil
	if len(q.SubQuestions) > 0 {
		subs := make([]Question, len(q.SubQuestions))
		for i, sq := range q.SubQuestions {
			subs[i] = sq.StripKeys()
		}
		q.SubQuestions = subs
	}
	return q
}

// AnswerKey is the stringified reference answer. In JSON it may be a single
// string, number or boolean, or a list of them.
type AnswerKey []string

func (k *AnswerKey) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*k = nil
		return nil
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case []interface{}:
		out := make(AnswerKey, 0, len(t))
		for i, e := range t {
			s, ok := stringify(e)
			if !ok {
				return fmt.Errorf("answer_key[%d]: unsupported value %T", i, e)
			}
			out = append(out, s)
		}
		*k = out
	default:
		s, ok := stringify(t)
		if !ok {
			return fmt.Errorf("answer_key: unsupported value %T", t)
		}
		*k = AnswerKey{s}
	}
	return nil
}

func (k AnswerKey) nonEmpty() []string {
	out := make([]string, 0, len(k))
	for _, s := range k {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// stringify renders a scalar JSON value the way it is compared against
// answer keys: numbers without trailing zeros, booleans as true/false.
func stringify(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	default:
		return "", false
	}
}
