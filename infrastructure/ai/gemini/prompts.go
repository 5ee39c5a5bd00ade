package gemini

import (
	"fmt"
	"strings"

	"secondbrain-backend/application/ports"
)

func conceptExtractionPrompt(text string) string {
	return fmt.Sprintf(`Extract key concepts from the following text. Return only a JSON array of concept strings, nothing else.

Text: %s

Concepts:`, text)
}

func structuredKnowledgePrompt(text string) string {
	return fmt.Sprintf(`Analyze the following text and extract key knowledge.
Return a JSON object with two fields:
1. "concepts": an array of short, high-level concept labels.
2. "summary": a one-sentence summary of the text.

Text: %s

JSON:`, text)
}

func relationJudgementPrompt(source, target ports.NodeDescriptor) string {
	return fmt.Sprintf(`Analyze the relationship between these two knowledge nodes:

Source: "%s" (%s)
Content: %s

Target: "%s" (%s)
Content: %s

Determine:
1. Are these concepts related? (yes/no)
2. Confidence score (0.0 to 1.0)
3. Type of relationship (relates_to, depends_on, part_of, similar_to, etc.)
4. Brief explanation (max 50 words)

Respond in JSON format:
{
  "related": boolean,
  "confidence": number,
  "relationship_type": string,
  "explanation": string
}`,
		source.Label, source.Type, truncate(source.Content, 500),
		target.Label, target.Type, truncate(target.Content, 500))
}

func answerQuestionPrompt(question, context string) string {
	return fmt.Sprintf(`You are a helpful AI assistant. Answer the following question based on the provided context.

Context:
%s

Question: %s

Answer:`, context, question)
}

func summarizePrompt(text string, maxWords int) string {
	return fmt.Sprintf(`Summarize the following text in approximately %d words:

%s

Summary:`, maxWords, text)
}

func rerankPrompt(query string, results []ports.RankedItem) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s: %s: %s", r.ID, r.Title, r.Content))
	}
	return fmt.Sprintf(`Given the search query "%s" and these results:
%s

Rank them by semantic relevance (1-100) and return just the IDs in order of relevance, comma-separated.`,
		query, strings.Join(lines, "\n"))
}

// stripCodeFences removes markdown code fences the provider wraps around JSON
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
