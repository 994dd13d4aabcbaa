package config

import "time"

// Config is the root configuration for warmline.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	OpenAI   OpenAIConfig   `yaml:"openai,omitempty"`
	Twilio   TwilioConfig   `yaml:"twilio,omitempty"`
	Agent    AgentConfig    `yaml:"agent,omitempty"`
	Transfer TransferConfig `yaml:"transfer,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Journal  JournalConfig  `yaml:"journal,omitempty"`
}

// GatewayConfig controls the webhook HTTP server.
type GatewayConfig struct {
	Port           int    `yaml:"port,omitempty"`
	Bind           string `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string `yaml:"customBindHost,omitempty"`
	PublicDomain   string `yaml:"publicDomain,omitempty"` // host providers reach the gateway on, without scheme
}

// OpenAIConfig holds credentials and endpoints for the AI provider.
type OpenAIConfig struct {
	APIKey        string `yaml:"apiKey,omitempty"`
	WebhookSecret string `yaml:"webhookSecret,omitempty"`
	ProjectID     string `yaml:"projectId,omitempty"`
	BaseURL       string `yaml:"baseUrl,omitempty"`
	RealtimeURL   string `yaml:"realtimeUrl,omitempty"`
	SIPHost       string `yaml:"sipHost,omitempty"`
}

// TwilioConfig holds credentials and endpoints for the telephony provider.
type TwilioConfig struct {
	AccountSID string `yaml:"accountSid,omitempty"`
	AuthToken  string `yaml:"authToken,omitempty"`
	BaseURL    string `yaml:"baseUrl,omitempty"`
}

// AgentConfig configures the AI voice agent session.
type AgentConfig struct {
	Model              string `yaml:"model,omitempty"`
	Voice              string `yaml:"voice,omitempty"`
	Instructions       string `yaml:"instructions,omitempty"`
	Greeting           string `yaml:"greeting,omitempty"`
	HoldMessage        string `yaml:"holdMessage,omitempty"`
	HandoffTool        string `yaml:"handoffTool,omitempty"`
	HandoffDescription string `yaml:"handoffDescription,omitempty"`
}

// TransferConfig configures the hand-off to a human agent.
type TransferConfig struct {
	HumanAgentNumber      string `yaml:"humanAgentNumber,omitempty"`
	ConferenceHeader      string `yaml:"conferenceHeader,omitempty"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds,omitempty"`
	ParticipantPageSize   int    `yaml:"participantPageSize,omitempty"`
}

// RequestTimeout bounds every outbound provider call.
func (t TransferConfig) RequestTimeout() time.Duration {
	return time.Duration(t.RequestTimeoutSeconds) * time.Second
}

// SessionConfig bounds how long call state is kept.
type SessionConfig struct {
	MaxCallMinutes int `yaml:"maxCallMinutes,omitempty"`
	SweepSeconds   int `yaml:"sweepSeconds,omitempty"`
}

func (s SessionConfig) MaxCallAge() time.Duration {
	return time.Duration(s.MaxCallMinutes) * time.Minute
}

func (s SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepSeconds) * time.Second
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// JournalConfig controls the call event journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // defaults to <home>/data/warmline.db
}
