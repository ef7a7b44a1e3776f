package domain

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderGroq   AIProvider = "groq"
	AIProviderOllama AIProvider = "ollama"
)

// Default provider endpoints
const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OllamaBaseURL = "http://localhost:11434"
)

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider" mapstructure:"provider"`
	Model    string     `json:"model" mapstructure:"model"`
	APIKey   string     `json:"-" mapstructure:"api_key"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty" mapstructure:"base_url"`

	// Dimensions overrides the model's known vector size; 0 uses the model default
	Dimensions int `json:"dimensions,omitempty" mapstructure:"dimensions"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings configures the language-model provider
type LLMSettings struct {
	Provider AIProvider `json:"provider" mapstructure:"provider"`
	Model    string     `json:"model" mapstructure:"model"`
	APIKey   string     `json:"-" mapstructure:"api_key"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty" mapstructure:"base_url"`

	// Temperature is the sampling temperature for chat completions
	Temperature float32 `json:"temperature" mapstructure:"temperature"`

	// RequestsPerSecond throttles provider calls; 0 disables throttling
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" mapstructure:"requests_per_second"`
}

// IsConfigured returns true if LLM settings are properly configured
func (l *LLMSettings) IsConfigured() bool {
	if l.Provider == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama:
		return false // Self-hosted, no API key needed
	default:
		return true
	}
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderGroq, AIProviderOllama:
		return true
	default:
		return false
	}
}

// DefaultBaseURL returns the endpoint used when none is configured
func (p AIProvider) DefaultBaseURL() string {
	switch p {
	case AIProviderGroq:
		return GroqBaseURL
	case AIProviderOllama:
		return OllamaBaseURL
	default:
		return OpenAIBaseURL
	}
}
