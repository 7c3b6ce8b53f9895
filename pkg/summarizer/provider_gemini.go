package summarizer

import "github.com/openai/openai-go/option"

// GeminiBaseURL is Google's OpenAI-compatible endpoint
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// NewGeminiProvider creates a Gemini provider on top of the OpenAI client
func NewGeminiProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	opts = append([]option.RequestOption{option.WithBaseURL(GeminiBaseURL)}, opts...)
	return newOpenAICompatible("gemini", apiKey, opts...)
}
