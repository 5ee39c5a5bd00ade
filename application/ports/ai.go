package ports

import "context"

// NodeDescriptor is the slice of a node handed to the AI provider for judging
type NodeDescriptor struct {
	ID      string
	Label   string
	Type    string
	Content string
}

// RelationJudgement is the provider's verdict on a candidate node pair
type RelationJudgement struct {
	Related          bool
	Confidence       float64
	RelationshipType string
	Explanation      string
}

// StructuredKnowledge is the result of a structured extraction call
type StructuredKnowledge struct {
	Concepts []string
	Summary  string
}

// RankedItem is one search result offered to the provider for re-ranking
type RankedItem struct {
	ID      string
	Title   string
	Content string
}

// AIClient is the port to the generative AI provider. All methods are remote
// calls subject to per-credential rate limiting; implementations report
// failures through the shared error taxonomy (not configured, provider
// error, rate limited, malformed response).
type AIClient interface {
	// Enabled reports whether at least one credential is configured.
	// When false every AI-backed feature degrades instead of crashing.
	Enabled() bool

	// ExtractConcepts pulls key concept labels out of a text.
	// Unparseable responses degrade to an empty slice, not an error.
	ExtractConcepts(ctx context.Context, text string) ([]string, error)

	// ExtractStructuredKnowledge pulls concept labels plus a one-sentence
	// summary. Unparseable responses degrade to an empty result.
	ExtractStructuredKnowledge(ctx context.Context, text string) (StructuredKnowledge, error)

	// JudgeRelation asks whether two nodes are related and how strongly
	JudgeRelation(ctx context.Context, source, target NodeDescriptor) (RelationJudgement, error)

	// AnswerQuestion generates an answer grounded in the supplied context
	AnswerQuestion(ctx context.Context, question, context string) (string, error)

	// Summarize condenses a text to roughly maxWords words
	Summarize(ctx context.Context, text string, maxWords int) (string, error)

	// RerankSearchResults asks the provider to reorder results by semantic
	// relevance, returning result IDs best first
	RerankSearchResults(ctx context.Context, query string, results []RankedItem) ([]string, error)
}
