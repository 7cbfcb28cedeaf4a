package llm

// GenerationConfig contains model inference parameters.
type GenerationConfig struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty" toml:"temperature"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"topP,omitempty" toml:"top_p"`             // Nucleus sampling threshold
	TopK        *int     `json:"topK,omitempty" toml:"top_k"`             // Top-k sampling

	// Length parameters
	MaxOutputTokens *int `json:"maxOutputTokens,omitempty" toml:"max_output_tokens"`

	// Stop sequences
	StopSequences []string `json:"stopSequences,omitempty" toml:"stop"`
}

// IsZero reports whether no parameter is set.
func (g *GenerationConfig) IsZero() bool {
	return g == nil ||
		(g.Temperature == nil && g.TopP == nil && g.TopK == nil &&
			g.MaxOutputTokens == nil && len(g.StopSequences) == 0)
}

func (g *GenerationConfig) orNil() *GenerationConfig {
	if g.IsZero() {
		return nil
	}
	return g
}
