package model

import "time"

// ================ Providers ================
type ProviderConfig struct {
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	// OpenAI-compatible endpoint used by the fallback agents (OpenAI, Groq, OpenRouter).
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
}

// ================ Models ================
type PrimaryModelConfig struct {
	Model       string  `envconfig:"PRIMARY_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PRIMARY_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"PRIMARY_TEMPERATURE" default:"0.3"`
}

type FallbackModelConfig struct {
	Model       string  `envconfig:"FALLBACK_MODEL" default:"gpt-4o-mini"`
	MaxTokens   int     `envconfig:"FALLBACK_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"FALLBACK_TEMPERATURE" default:"0.3"`
}

type SummaryModelConfig struct {
	Model       string  `envconfig:"SUMMARY_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SUMMARY_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"SUMMARY_TEMPERATURE" default:"0.4"`
}

// ================ Tools ================
type ToolConfig struct {
	MapsAPIKey  string `envconfig:"GOOGLE_MAPS_API_KEY" required:"true"`
	MapsCommand string `envconfig:"MAPS_MCP_COMMAND" default:"npx -y @modelcontextprotocol/server-google-maps"`

	AirbnbEnabled bool   `envconfig:"AIRBNB_MCP_ENABLED" default:"false"`
	AirbnbCommand string `envconfig:"AIRBNB_MCP_COMMAND" default:"npx -y @openbnb/mcp-server-airbnb --ignore-robots-txt"`

	WebSearchEndpoint   string `envconfig:"WEB_SEARCH_ENDPOINT" default:"https://html.duckduckgo.com/html/"`
	WebSearchMaxResults int    `envconfig:"WEB_SEARCH_MAX_RESULTS" default:"5"`

	ProbeTimeout time.Duration `envconfig:"TOOL_PROBE_TIMEOUT" default:"15s"`
}

// ================ Planner ================
type PlannerConfig struct {
	MaxConsecutiveFailures int  `envconfig:"PLANNER_MAX_CONSECUTIVE_FAILURES" default:"3"`
	ParallelLookups        bool `envconfig:"PLANNER_PARALLEL_LOOKUPS" default:"false"`
	RejectRevisits         bool `envconfig:"PLANNER_REJECT_REVISITS" default:"false"`
	ToolMaxCalls           int  `envconfig:"PLANNER_TOOL_MAX_CALLS" default:"8"`
}

// ================ Persistence ================
type StoreConfig struct {
	TTL         time.Duration `envconfig:"ITINERARY_TTL" default:"168h"`
	RecentLimit int           `envconfig:"ITINERARY_RECENT_LIMIT" default:"100"`
}
