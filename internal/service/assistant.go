package service

import (
	"context"
	"log"
	"strings"

	"stockpilot-api/internal/model"
	"stockpilot-api/pkg/apierror"
)

// Analyzer answers a business question given a formatted data summary.
// The AI client satisfies this; tests substitute their own.
type Analyzer interface {
	Analyze(ctx context.Context, question, summary string) (*model.QueryResponse, error)
}

// AssistantService routes natural-language questions. When a language model
// is configured it goes first; its failure, or its absence, falls through to
// the rule-based answerer. A nil Analyzer means no model credential was
// provided and the model path is never attempted.
type AssistantService struct {
	contextSvc *ContextService
	ai         Analyzer
}

func NewAssistantService(contextSvc *ContextService, ai Analyzer) *AssistantService {
	return &AssistantService{
		contextSvc: contextSvc,
		ai:         ai,
	}
}

// Answer resolves a question against the user's current business data.
func (s *AssistantService) Answer(ctx context.Context, userID, question string) (*model.QueryResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apierror.BadRequest("question is required")
	}

	snap := s.contextSvc.Snapshot(ctx, userID)

	if s.ai != nil {
		summary := FormatSummary(BuildSummary(snap))
		resp, aiErr := s.ai.Analyze(ctx, question, summary)
		if aiErr == nil {
			return resp, nil
		}
		log.Printf("[AssistantService] Warning: AI analysis failed, falling back to rules: %v", aiErr)
	}

	return AnswerWithRules(snap, question), nil
}
