package grading

import (
	"errors"
	"fmt"
	"math"
)

// Details carries kind-specific explanation of a grade.
type Details struct {
	Selected    []string `json:"selected,omitempty"`
	Correct     []string `json:"correct,omitempty"`
	CorrectHits int      `json:"correct_hits,omitempty"`
	WrongHits   int      `json:"wrong_hits,omitempty"`
	Similarity  *float64 `json:"similarity,omitempty"`
	SubResults  []Result `json:"sub_results,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Result is the outcome of grading a single question response.
// 0 <= Score <= MaxScore always holds.
type Result struct {
	Index     int     `json:"index"`
	Kind      Kind    `json:"kind"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	IsCorrect bool    `json:"is_correct"`
	Details   Details `json:"details"`
}

// Strategy grades a single question kind. depth is the nesting level of q
// (0 for top-level questions).
type Strategy interface {
	Grade(q Question, resp Response, depth int) (Result, error)
}

// Grader routes by question kind to the correct Strategy. It holds no
// mutable state and is safe for concurrent use.
type Grader struct {
	strategies map[Kind]Strategy
	maxDepth   int
	observer   Observer
}

// Engine options

type Option func(*config)

type config struct {
	MaxDepth int      // deepest allowed sub-question level
	Observer Observer // grading events sink
}

func WithMaxDepth(n int) Option      { return func(c *config) { c.MaxDepth = n } }
func WithObserver(o Observer) Option { return func(c *config) { c.Observer = o } }

const DefaultMaxDepth = 2

// NewGrader installs the built-in strategies.
func NewGrader(opts ...Option) *Grader {
	cfg := &config{MaxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	g := &Grader{maxDepth: cfg.MaxDepth, observer: cfg.Observer}
	g.strategies = map[Kind]Strategy{
		KindSingleChoice: singleChoiceStrategy{},
		KindBoolean:      singleChoiceStrategy{},
		KindMultiSelect:  multiSelectStrategy{},
		KindFreeText:     freeTextStrategy{},
		KindComposite:    compositeStrategy{g: g},
	}
	return g
}

// Grade grades one top-level question. It never panics and never returns
// an error: failures are reported in Details.Error with a zero score.
func (g *Grader) Grade(q Question, resp Response, index int) Result {
	res := g.grade(q, resp, 0)
	res.Index = index
	g.reportAnomalies(index, res)
	g.observer.QuestionGraded(res)
	return res
}

// reportAnomalies forwards every failed (sub-)result to the observer.
func (g *Grader) reportAnomalies(index int, r Result) {
	if r.Details.Error != "" {
		g.observer.Anomaly(index, r.Kind, errors.New(r.Details.Error))
	}
	for _, sr := range r.Details.SubResults {
		g.reportAnomalies(index, sr)
	}
}

func (g *Grader) grade(q Question, resp Response, depth int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed(q, fmt.Errorf("grading panic: %v", r))
		}
	}()
	s, ok := g.strategies[q.Kind]
	if !ok {
		return failed(q, fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind))
	}
	if resp.Shape() == ShapeInvalid {
		return failed(q, resp.Err())
	}
	res, err := s.Grade(q, resp, depth)
	if err != nil {
		return failed(q, err)
	}
	res.Kind = q.Kind
	return clamp(res)
}

func failed(q Question, err error) Result {
	points := q.Points()
	if points < 0 || math.IsNaN(points) || math.IsInf(points, 0) {
		points = 0
	}
	return Result{Kind: q.Kind, MaxScore: points, Details: Details{Error: err.Error()}}
}

func clamp(r Result) Result {
	if r.Score < 0 || math.IsNaN(r.Score) {
		r.Score = 0
	}
	if r.Score > r.MaxScore {
		r.Score = r.MaxScore
	}
	return r
}

// roundPoints rounds half away from zero; scores are never negative so this
// matches round-half-up.
func roundPoints(v float64) float64 { return math.Round(v) }

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(q Question, resp Response, _ int) (Result, error) {
	if err := checkDefinition(q); err != nil {
		return Result{}, err
	}
	key := q.AnswerKey.nonEmpty()[0]
	res := Result{MaxScore: q.MaxPoints, Details: Details{Correct: []string{key}}}
	switch resp.Shape() {
	case ShapeNone:
		return res, nil
	case ShapeScalar:
	default:
		return res, fmt.Errorf("response must be a single value, got %s", resp.Shape())
	}
	res.Details.Selected = []string{resp.Value()}
	if resp.Value() == key {
		res.Score = q.MaxPoints
		res.IsCorrect = true
	}
	return res, nil
}

type multiSelectStrategy struct{}

func (multiSelectStrategy) Grade(q Question, resp Response, _ int) (Result, error) {
	if err := checkDefinition(q); err != nil {
		return Result{}, err
	}
	correct := dedupe(q.AnswerKey.nonEmpty())
	res := Result{MaxScore: q.MaxPoints, Details: Details{Correct: correct}}

	if !resp.Answered() {
		return res, nil
	}
	selected, ok := resp.selections()
	if !ok {
		return res, fmt.Errorf("response must be a list of values, got %s", resp.Shape())
	}
	submitted := dedupe(selected)

	want := toSet(correct)
	hits, wrong := 0, 0
	for _, s := range submitted {
		if _, ok := want[s]; ok {
			hits++
		} else {
			wrong++
		}
	}
	exact := hits == len(correct) && wrong == 0

	res.Details.Selected = submitted
	res.Details.CorrectHits = hits
	res.Details.WrongHits = wrong
	res.IsCorrect = exact
	switch {
	case exact:
		res.Score = q.MaxPoints
	case q.AllowPartialCredit:
		net := hits - wrong
		if net < 0 {
			net = 0
		}
		res.Score = roundPoints(q.MaxPoints * float64(net) / float64(len(correct)))
	}
	return res, nil
}

type freeTextStrategy struct{}

func (freeTextStrategy) Grade(q Question, resp Response, _ int) (Result, error) {
	if err := checkDefinition(q); err != nil {
		return Result{}, err
	}
	refs := q.AnswerKey.nonEmpty()
	res := Result{MaxScore: q.MaxPoints, Details: Details{Correct: refs}}

	var answer string
	switch resp.Shape() {
	case ShapeNone:
	case ShapeScalar:
		answer = resp.Value()
		res.Details.Selected = []string{answer}
	default:
		return res, fmt.Errorf("response must be a single value, got %s", resp.Shape())
	}

	sim := MatchText(answer, refs, q.CaseSensitive)
	res.Details.Similarity = &sim
	res.IsCorrect = sim >= freeTextCorrectness
	switch {
	case q.AllowPartialCredit:
		res.Score = roundPoints(q.MaxPoints * sim)
	case res.IsCorrect:
		res.Score = q.MaxPoints
	}
	return res, nil
}

type compositeStrategy struct{ g *Grader }

func (s compositeStrategy) Grade(q Question, resp Response, depth int) (Result, error) {
	if len(q.SubQuestions) == 0 {
		return Result{}, ErrNoSubQuestion
	}
	if depth+1 > s.g.maxDepth {
		return Result{}, fmt.Errorf("%w (max %d)", ErrDepthExceeded, s.g.maxDepth)
	}
	switch resp.Shape() {
	case ShapeNone, ShapeNested, ShapeList:
	default:
		return Result{}, fmt.Errorf("response must map sub-question indexes to answers, got %s", resp.Shape())
	}

	res := Result{IsCorrect: true}
	subs := make([]Result, 0, len(q.SubQuestions))
	for i, sq := range q.SubQuestions {
		sr := s.g.grade(sq, resp.Part(i), depth+1)
		sr.Index = i
		res.Score += sr.Score
		res.MaxScore += sr.MaxScore
		res.IsCorrect = res.IsCorrect && sr.IsCorrect
		subs = append(subs, sr)
	}
	// a partially credited sub-question leaves the composite incorrect
	res.IsCorrect = res.IsCorrect && res.Score == res.MaxScore
	res.Details.SubResults = subs
	return res, nil
}

// checkDefinition rejects legacy definitions that cannot be graded.
func checkDefinition(q Question) error {
	if q.MaxPoints < 0 || math.IsNaN(q.MaxPoints) || math.IsInf(q.MaxPoints, 0) {
		return fmt.Errorf("invalid max points %v", q.MaxPoints)
	}
	if len(q.AnswerKey.nonEmpty()) == 0 {
		return ErrMissingKey
	}
	return nil
}

// helpers

func dedupe(arr []string) []string {
	seen := make(map[string]struct{}, len(arr))
	out := make([]string, 0, len(arr))
	for _, s := range arr {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

// Validate checks a question definition against this grader's depth limit.
func (g *Grader) Validate(q Question) error {
	return q.validate(0, g.maxDepth)
}
