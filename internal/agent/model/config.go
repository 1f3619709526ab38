package model

// ================ Config ================
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"24h"`
	Context struct {
		MaxTurns int `envconfig:"CONVERSATION_CONTEXT_MAX_TURNS" default:"20"`
	}
}

type PlannerModelConfig struct {
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-pro"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0"`
}

type ExecutorModelConfig struct {
	Model       string  `envconfig:"EXECUTOR_MODEL" default:"gemini-2.5-pro"`
	MaxTokens   int     `envconfig:"EXECUTOR_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"EXECUTOR_TEMPERATURE" default:"0"`
}

type ResponderModelConfig struct {
	Model       string  `envconfig:"RESPONDER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONDER_MAX_TOKENS" default:"1500"`
	Temperature float32 `envconfig:"RESPONDER_TEMPERATURE" default:"0"`
}

type VisualizerModelConfig struct {
	Model       string  `envconfig:"VISUALIZER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"VISUALIZER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"VISUALIZER_TEMPERATURE" default:"0"`
	Enabled     bool    `envconfig:"VISUALIZER_ENABLED" default:"true"`
}

type StoreConfig struct {
	Path string `envconfig:"TRANSACTIONS_DB_PATH" default:"finance.db"`
	Seed bool   `envconfig:"TRANSACTIONS_DB_SEED" default:"true"`
}

// TurnInput is the public input for one turn of the workflow.
type TurnInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}
