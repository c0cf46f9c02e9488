package scoring

import (
	"fmt"

	"challenge-response-service/internal/domain"
)

// Aggregator derives the summary status and overall score from per-question scores.
type Aggregator interface {
	Aggregate(doc *domain.ScoringDoc)
}

// AggregatorFunc adapts a function to Aggregator.
type AggregatorFunc func(doc *domain.ScoringDoc)

func (f AggregatorFunc) Aggregate(doc *domain.ScoringDoc) { f(doc) }

// Engine builds and scores scoring documents.
type Engine struct {
	aggregator Aggregator
}

// NewEngine returns an engine using agg, or Sum when agg is nil.
func NewEngine(agg Aggregator) *Engine {
	if agg == nil {
		agg = Sum
	}
	return &Engine{aggregator: agg}
}

// CreateScoringDoc returns an ungraded document with one entry per question.
func (e *Engine) CreateScoringDoc(challenge domain.Challenge) domain.ScoringDoc {
	doc := domain.ScoringDoc{
		Questions: make(map[string]domain.QuestionScore, len(challenge.Questions)),
		Status:    domain.ScoringPending,
	}
	for _, q := range challenge.Questions {
		doc.Questions[q.ID] = domain.QuestionScore{}
	}
	return doc
}

// MultipleChoiceScores grades every multiple choice question of the challenge against
// the response. Other question types are never part of the result.
func (e *Engine) MultipleChoiceScores(challenge domain.Challenge, response domain.Response) map[string]domain.QuestionScore {
	scores := make(map[string]domain.QuestionScore)
	for _, q := range challenge.Questions {
		if !q.Type.AutoGradable() {
			continue
		}
		scores[q.ID] = scoreMultipleChoice(q, response.Responses[q.ID])
	}
	return scores
}

// AssignStatusAndOverallScore recomputes doc.Status and doc.OverallScore in place.
func (e *Engine) AssignStatusAndOverallScore(doc *domain.ScoringDoc) {
	e.aggregator.Aggregate(doc)
}

func scoreMultipleChoice(q domain.Question, answer domain.Answer) domain.QuestionScore {
	if !answer.Answered() {
		return domain.QuestionScore{Score: domain.Float(0), Notes: "unanswered"}
	}
	if answer.Choice == q.Correct {
		return domain.QuestionScore{Score: domain.Float(q.MaxPoints())}
	}
	return domain.QuestionScore{Score: domain.Float(0)}
}

// Sum totals every present score; the doc is graded once every question has a score.
var Sum = AggregatorFunc(func(doc *domain.ScoringDoc) {
	total, _, complete := tally(doc)
	doc.OverallScore = total
	doc.Status = statusFor(complete)
})

// Average takes the mean of present scores with the same completeness rule as Sum.
var Average = AggregatorFunc(func(doc *domain.ScoringDoc) {
	total, n, complete := tally(doc)
	doc.OverallScore = 0
	if n > 0 {
		doc.OverallScore = total / float64(n)
	}
	doc.Status = statusFor(complete)
})

// AggregatorFor resolves a configured aggregation name.
func AggregatorFor(name string) (Aggregator, error) {
	switch name {
	case "", "sum":
		return Sum, nil
	case "average":
		return Average, nil
	}
	return nil, fmt.Errorf("unknown scoring aggregate %q", name)
}

func tally(doc *domain.ScoringDoc) (total float64, scored int, complete bool) {
	complete = len(doc.Questions) > 0
	for _, qs := range doc.Questions {
		if qs.Score == nil {
			complete = false
			continue
		}
		total += *qs.Score
		scored++
	}
	return total, scored, complete
}

func statusFor(complete bool) domain.ScoringStatus {
	if complete {
		return domain.ScoringGraded
	}
	return domain.ScoringPending
}
