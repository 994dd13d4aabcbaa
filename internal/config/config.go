package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort                = 8000
	DefaultModel               = "gpt-realtime"
	DefaultVoice               = "alloy"
	DefaultHandoffTool         = "addHumanAgent"
	DefaultConferenceHeader    = "X-conferenceName"
	DefaultOpenAIBaseURL       = "https://api.openai.com"
	DefaultOpenAIRealtimeURL   = "wss://api.openai.com/v1/realtime"
	DefaultOpenAISIPHost       = "sip.api.openai.com"
	DefaultTwilioBaseURL       = "https://api.twilio.com"
	defaultInstructions        = "You are a friendly customer support agent on a phone call. Keep answers short and conversational. If the caller asks to speak with a person, or you cannot help them, call the addHumanAgent function."
	defaultGreeting            = "Greet the caller: say \"Thanks for calling, how can I help you today?\""
	defaultHoldMessage         = "A human agent is being connected to this call. Let the caller know, and keep them company until the agent joins."
	defaultHandoffDescription  = "Transfer the caller to a human agent. Call this when the caller asks to speak with a person."
	defaultRequestTimeout      = 15
	defaultParticipantPageSize = 20
	defaultMaxCallMinutes      = 240
	defaultSweepSeconds        = 60
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{Journal: JournalConfig{Enabled: true}}
	applyDefaults(&cfg)
	return cfg
}
