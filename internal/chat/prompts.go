package chat

import "strings"

// System instructions carrying the response-length policy. Which one is sent
// depends on a cheap lexical check; the actual judgement of complexity is
// delegated to the model through the instruction text itself.
const (
	shortAnswerPolicy = "You are a helpful assistant. Provide clear and complete answers. " +
		"For simple questions, respond in 2-3 sentences under 350 characters. " +
		"For others, use a natural length, not too short or overly long."

	balancedAnswerPolicy = "You are a helpful assistant. Provide clear and complete answers " +
		"with a natural length, not too short, but not overly long. " +
		"Aim for a balanced, informative response."
)

var simpleQuestionStarters = []string{
	"what is", "who is", "when is", "where is", "how many", "define",
}

// AnswerPolicy returns the system instruction matching the query shape.
func AnswerPolicy(query string) string {
	if SimpleQuery(query) {
		return shortAnswerPolicy
	}
	return balancedAnswerPolicy
}

// SimpleQuery reports whether query looks like a short factual question:
// under ten words, or opening with a known question starter.
func SimpleQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(strings.Fields(q)) < 10 {
		return true
	}
	for _, starter := range simpleQuestionStarters {
		if strings.HasPrefix(q, starter) {
			return true
		}
	}
	return false
}
