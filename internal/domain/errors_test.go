package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfResolvesWrappedErrors(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrResponseNotFound, KindNotFound},
		{fmt.Errorf("load: %w", ErrChallengeNotFound), KindNotFound},
		{&InvalidQuestionsError{IDs: []string{"q9"}}, KindInvalidArgument},
		{fmt.Errorf("save: %w", ErrStatusConflict), KindInvalidState},
		{ErrNotOwner, KindPermissionDenied},
		{fmt.Errorf("%w: challenge c1", ErrChallengeMissing), KindIntegrity},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestInvalidQuestionsErrorListsIDs(t *testing.T) {
	err := &InvalidQuestionsError{IDs: []string{"q3", "q4"}}
	if err.Error() != "invalid question IDs: q3, q4" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidQuestions) {
		t.Fatalf("expected errors.Is to match ErrInvalidQuestions")
	}
}

func TestResponseCloneIsDeep(t *testing.T) {
	orig := Response{
		Responses: map[string]Answer{"q1": {Type: QuestionTypeFreeText, Text: "a"}},
		Scoring: ScoringDoc{Questions: map[string]QuestionScore{
			"q1": {Score: Float(2), Notes: "ok"},
		}},
	}
	clone := orig.Clone()
	clone.Responses["q1"] = Answer{Type: QuestionTypeFreeText, Text: "b"}
	*clone.Scoring.Questions["q1"].Score = 5

	if orig.Responses["q1"].Text != "a" {
		t.Fatalf("clone shares responses map")
	}
	if *orig.Scoring.Questions["q1"].Score != 2 {
		t.Fatalf("clone shares score pointer")
	}
}
