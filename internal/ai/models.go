package ai

// ProviderConfig holds the configuration needed to create a Ranker. Empty
// BaseURL and Model select the provider defaults; an empty APIKey disables
// ranking.
type ProviderConfig struct {
	Provider string // "openai" | "openrouter" | "anthropic"
	APIKey   string
	BaseURL  string
	Model    string
}

// RankedSource is a search candidate the model judged relevant to the input
// text. Confidence is always within [0, 100].
type RankedSource struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason,omitempty"`
}
