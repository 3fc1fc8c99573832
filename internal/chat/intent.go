package chat

import "strings"

// Intent classifies the purpose of a plain-text message.
type Intent string

const (
	IntentPlainQuery      Intent = "plain_query"
	IntentImageGeneration Intent = "image_generation_request"
)

var (
	generationVerbs = []string{"generate", "create", "draw"}
	generationNouns = []string{"image", "picture", "art"}
)

// DetectIntent reports whether text asks for image generation: a generation
// verb and an image noun co-occurring anywhere in the text, case-insensitive
// and order-independent, so natural phrasings like "can you generate an image
// of a cat" are caught too. Matching is on whole words.
func DetectIntent(text string) Intent {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var hasVerb, hasNoun bool
	for _, w := range words {
		if !hasVerb && containsWord(generationVerbs, w) {
			hasVerb = true
		}
		if !hasNoun && containsWord(generationNouns, w) {
			hasNoun = true
		}
		if hasVerb && hasNoun {
			return IntentImageGeneration
		}
	}
	return IntentPlainQuery
}

func containsWord(set []string, word string) bool {
	for _, s := range set {
		if s == word {
			return true
		}
	}
	return false
}
