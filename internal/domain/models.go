package domain

import "time"

// QuestionType identifies how a question is answered and graded.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeFreeText       QuestionType = "free_text"
)

// AutoGradable reports whether answers of this type can be scored without a grader.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionTypeMultipleChoice
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeFreeText:
		return true
	}
	return false
}

// Option represents a possible answer for a multiple choice question.
type Option struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
}

// Question is a single item of a challenge. Correct is only used by multiple choice.
type Question struct {
	ID      string       `json:"id" bson:"id"`
	Type    QuestionType `json:"type" bson:"type"`
	Prompt  string       `json:"prompt" bson:"prompt"`
	Options []Option     `json:"options,omitempty" bson:"options,omitempty"`
	Correct string       `json:"correct,omitempty" bson:"correct,omitempty"`
	Points  float64      `json:"points" bson:"points"` // defaults to 1 if zero
}

// MaxPoints returns the credit awarded for a fully correct answer.
func (q Question) MaxPoints() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Challenge is an ordered set of questions.
type Challenge struct {
	ID        string     `json:"id" bson:"_id"`
	Title     string     `json:"title" bson:"title"`
	Questions []Question `json:"questions" bson:"questions"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

// ResponseStatus is the lifecycle state of a response.
type ResponseStatus string

const (
	StatusInProgress ResponseStatus = "IN_PROGRESS"
	StatusComplete   ResponseStatus = "COMPLETE"
)

// Answer is a user's answer to one question. Type is fixed when the response is
// created; Choice carries multiple choice answers and Text free text answers.
type Answer struct {
	Type   QuestionType `json:"type" bson:"type"`
	Choice string       `json:"choice,omitempty" bson:"choice,omitempty"`
	Text   string       `json:"text,omitempty" bson:"text,omitempty"`
}

// Answered reports whether the answer carries a value for its type.
func (a Answer) Answered() bool {
	switch a.Type {
	case QuestionTypeMultipleChoice:
		return a.Choice != ""
	case QuestionTypeFreeText:
		return a.Text != ""
	}
	return a.Choice != "" || a.Text != ""
}

// ScoringStatus summarises how far grading has progressed.
type ScoringStatus string

const (
	ScoringPending ScoringStatus = "pending"
	ScoringGraded  ScoringStatus = "graded"
)

// QuestionScore is the grading record of one question. A nil Score means ungraded.
type QuestionScore struct {
	Score *float64 `json:"score,omitempty" bson:"score,omitempty"`
	Notes string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// ScoringDoc is the per-question and aggregate scoring state of a response.
type ScoringDoc struct {
	Questions    map[string]QuestionScore `json:"questions" bson:"questions"`
	Status       ScoringStatus            `json:"status" bson:"status"`
	OverallScore float64                  `json:"overallScore" bson:"overallScore"`
}

// Clone returns a deep copy of the document.
func (d ScoringDoc) Clone() ScoringDoc {
	out := d
	out.Questions = make(map[string]QuestionScore, len(d.Questions))
	for id, qs := range d.Questions {
		if qs.Score != nil {
			v := *qs.Score
			qs.Score = &v
		}
		out.Questions[id] = qs
	}
	return out
}

// Response is one user's attempt at a challenge.
type Response struct {
	ID          string            `json:"id" bson:"_id"`
	UID         string            `json:"uid" bson:"uid"`
	ChallengeID string            `json:"challengeId" bson:"challengeId"`
	Status      ResponseStatus    `json:"status" bson:"status"`
	Responses   map[string]Answer `json:"responses" bson:"responses"`
	Scoring     ScoringDoc        `json:"scoring" bson:"scoring"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (r Response) Clone() Response {
	out := r
	out.Responses = make(map[string]Answer, len(r.Responses))
	for id, a := range r.Responses {
		out.Responses[id] = a
	}
	out.Scoring = r.Scoring.Clone()
	return out
}

// ScoreSubmission is a manual grading entry. A nil Score or empty Notes leaves the
// existing value untouched.
type ScoreSubmission struct {
	Score *float64
	Notes string
}

// Float returns a pointer to v, handy for building scores.
func Float(v float64) *float64 {
	return &v
}
