package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/pkg/errors"
)

// AssistantService answers questions grounded in the owner's graph and
// summarizes arbitrary text via the AI provider
type AssistantService struct {
	graph  *GraphService
	ai     ports.AIClient
	logger *zap.Logger
}

// NewAssistantService creates the assistant
func NewAssistantService(graph *GraphService, ai ports.AIClient, logger *zap.Logger) *AssistantService {
	return &AssistantService{graph: graph, ai: ai, logger: logger}
}

// contextNodeLimit caps how many nodes are serialized into the question context
const contextNodeLimit = 30

// AskQuestion builds a textual context from the owner's graph and asks the
// provider to answer against it
func (s *AssistantService) AskQuestion(ctx context.Context, ownerID, question string) (string, error) {
	if question == "" {
		return "", errors.NewValidationError("question cannot be empty")
	}
	if !s.ai.Enabled() {
		return "", errors.NewNotConfiguredError("ai provider")
	}

	snapshot, err := s.graph.FetchSnapshot(ctx, ownerID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	count := 0
	for _, node := range snapshot.Nodes() {
		if node.IsRoot() {
			continue
		}
		b.WriteString("- ")
		b.WriteString(node.Label())
		b.WriteString(" (")
		b.WriteString(string(node.Type()))
		b.WriteString(")")
		if content := node.ContentText(); content != "" {
			b.WriteString(": ")
			b.WriteString(content)
		}
		b.WriteString("\n")

		count++
		if count == contextNodeLimit {
			break
		}
	}

	return s.ai.AnswerQuestion(ctx, question, b.String())
}

// Summarize condenses a text to roughly maxWords words
func (s *AssistantService) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if text == "" {
		return "", errors.NewValidationError("text cannot be empty")
	}
	if !s.ai.Enabled() {
		return "", errors.NewNotConfiguredError("ai provider")
	}
	return s.ai.Summarize(ctx, text, maxWords)
}
