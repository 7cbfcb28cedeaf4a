// Package llm provides internal representations of the generative-language
// generateContent API request and response payloads.
package llm

// GenerateContentRequest is the body POSTed to the models/{model}:generateContent endpoint.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"` // Prompt content, one entry per turn

	// Generation options, omitted from the wire when nil
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is a single turn of prompt content.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model", omitted for single-turn prompts
	Parts []Part `json:"parts"`
}

// Part is one piece of a Content. Only text parts are produced.
type Part struct {
	Text string `json:"text"`
}

// NewTextRequest builds a single-turn request carrying prompt as its only text part.
// The service sees no earlier turns: each request is stateless.
func NewTextRequest(prompt string, cfg *GenerationConfig) *GenerateContentRequest {
	return &GenerateContentRequest{
		Contents: []Content{
			{Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: cfg.orNil(),
	}
}
