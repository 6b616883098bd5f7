package grading

import "github.com/sirupsen/logrus"

// Observer receives grading events. Implementations must not mutate the
// results they are handed.
type Observer interface {
	QuestionGraded(r Result)
	Anomaly(index int, kind Kind, err error)
	AttemptGraded(a AttemptGrade)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) QuestionGraded(Result)      {}
func (NopObserver) Anomaly(int, Kind, error)   {}
func (NopObserver) AttemptGraded(AttemptGrade) {}

// LogObserver writes grading events to a logrus logger. Anomalies are data
// integrity problems in the quiz definition or the submitted answers and are
// logged at warning level.
type LogObserver struct {
	Log logrus.FieldLogger
}

func NewLogObserver(log logrus.FieldLogger) LogObserver {
	return LogObserver{Log: log}
}

func (o LogObserver) QuestionGraded(r Result) {
	o.Log.WithFields(logrus.Fields{
		"question":   r.Index,
		"kind":       r.Kind,
		"score":      r.Score,
		"max_score":  r.MaxScore,
		"is_correct": r.IsCorrect,
	}).Debug("question graded")
}

func (o LogObserver) Anomaly(index int, kind Kind, err error) {
	o.Log.WithError(err).WithFields(logrus.Fields{
		"question": index,
		"kind":     kind,
	}).Warn("question could not be graded")
}

func (o LogObserver) AttemptGraded(a AttemptGrade) {
	o.Log.WithFields(logrus.Fields{
		"questions":      len(a.PerQuestion),
		"total_score":    a.TotalScore,
		"total_possible": a.TotalPossible,
		"percentage":     a.Percentage,
		"ungraded":       a.Ungraded,
	}).Info("attempt graded")
}
