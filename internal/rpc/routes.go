package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
)

type createChallengeParams struct {
	Attributes domain.Challenge `json:"attributes"`
}

type challengeParams struct {
	ChallengeID string `json:"challengeId"`
}

type beginParams struct {
	ChallengeID string `json:"challengeId"`
	UID         string `json:"uid"`
}

type submitResponsesParams struct {
	ResponseID string                   `json:"responseId"`
	Responses  map[string]domain.Answer `json:"responses"`
}

type finalizeParams struct {
	ResponseID string `json:"responseId"`
	UID        string `json:"uid"`
}

// scoreEntry is loosely typed on purpose: a non-numeric score or non-string notes
// are ignored rather than rejected.
type scoreEntry struct {
	Score any `json:"score"`
	Notes any `json:"notes"`
}

type submitScoresParams struct {
	ResponseID string                `json:"responseId"`
	Scoring    map[string]scoreEntry `json:"scoring"`
}

type responseParams struct {
	ResponseID string `json:"responseId"`
}

// PingResult is the liveness payload.
type PingResult struct {
	Message string          `json:"message"`
	Params  json.RawMessage `json:"params"`
}

// RegisterRoutes wires the Challenge, Ping and Response namespaces.
func RegisterRoutes(r *Responder, challenges *app.ChallengeService, responses *app.ResponseService) {
	r.Register("Challenge", map[string]Handler{
		"create": func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p createChallengeParams
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			return challenges.Create(ctx, p.Attributes)
		},
		"findOne": func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p challengeParams
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			return challenges.Get(ctx, p.ChallengeID)
		},
	})

	r.Register("Ping", map[string]Handler{
		"ping": func(_ context.Context, raw json.RawMessage) (any, error) {
			if len(raw) == 0 {
				raw = nil
			}
			return PingResult{Message: "Pinged!", Params: raw}, nil
		},
	})

	r.Register("Response", map[string]Handler{
		"begin": func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p beginParams
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			return responses.Begin(ctx, p.ChallengeID, p.UID)
		},
		"submitResponses": func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p submitResponsesParams
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			return responses.SubmitResponses(ctx, p.ResponseID, p.Responses)
		},
		"finalize": func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p finalizeParams
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			return responses.Finalize(ctx, p.ResponseID, p.UID)
		},
		"submitScores": func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p submitScoresParams
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			return responses.SubmitScores(ctx, p.ResponseID, toSubmissions(p.Scoring))
		},
		"findOne": func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p responseParams
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if p.ResponseID == "" {
				return nil, fmt.Errorf("%w: responseId required", ErrInvalidParams)
			}
			return responses.FindOne(ctx, p.ResponseID)
		},
	})
}

func toSubmissions(entries map[string]scoreEntry) map[string]domain.ScoreSubmission {
	out := make(map[string]domain.ScoreSubmission, len(entries))
	for questionID, e := range entries {
		var sub domain.ScoreSubmission
		if score, ok := e.Score.(float64); ok {
			sub.Score = domain.Float(score)
		}
		if notes, ok := e.Notes.(string); ok {
			sub.Notes = notes
		}
		out[questionID] = sub
	}
	return out
}
