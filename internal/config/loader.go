package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so secrets can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.OpenAI.APIKey = expandEnvVars(cfg.OpenAI.APIKey)
	cfg.OpenAI.WebhookSecret = expandEnvVars(cfg.OpenAI.WebhookSecret)
	cfg.OpenAI.ProjectID = expandEnvVars(cfg.OpenAI.ProjectID)
	cfg.Twilio.AccountSID = expandEnvVars(cfg.Twilio.AccountSID)
	cfg.Twilio.AuthToken = expandEnvVars(cfg.Twilio.AuthToken)
	cfg.Transfer.HumanAgentNumber = expandEnvVars(cfg.Transfer.HumanAgentNumber)
	cfg.Gateway.PublicDomain = expandEnvVars(cfg.Gateway.PublicDomain)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "lan"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.OpenAI.RealtimeURL == "" {
		cfg.OpenAI.RealtimeURL = DefaultOpenAIRealtimeURL
	}
	if cfg.OpenAI.SIPHost == "" {
		cfg.OpenAI.SIPHost = DefaultOpenAISIPHost
	}
	if cfg.Twilio.BaseURL == "" {
		cfg.Twilio.BaseURL = DefaultTwilioBaseURL
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = DefaultModel
	}
	if cfg.Agent.Voice == "" {
		cfg.Agent.Voice = DefaultVoice
	}
	if cfg.Agent.Instructions == "" {
		cfg.Agent.Instructions = defaultInstructions
	}
	if cfg.Agent.Greeting == "" {
		cfg.Agent.Greeting = defaultGreeting
	}
	if cfg.Agent.HoldMessage == "" {
		cfg.Agent.HoldMessage = defaultHoldMessage
	}
	if cfg.Agent.HandoffTool == "" {
		cfg.Agent.HandoffTool = DefaultHandoffTool
	}
	if cfg.Agent.HandoffDescription == "" {
		cfg.Agent.HandoffDescription = defaultHandoffDescription
	}
	if cfg.Transfer.ConferenceHeader == "" {
		cfg.Transfer.ConferenceHeader = DefaultConferenceHeader
	}
	if cfg.Transfer.RequestTimeoutSeconds == 0 {
		cfg.Transfer.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if cfg.Transfer.ParticipantPageSize == 0 {
		cfg.Transfer.ParticipantPageSize = defaultParticipantPageSize
	}
	if cfg.Session.MaxCallMinutes == 0 {
		cfg.Session.MaxCallMinutes = defaultMaxCallMinutes
	}
	if cfg.Session.SweepSeconds == 0 {
		cfg.Session.SweepSeconds = defaultSweepSeconds
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// envOverrides maps provider environment variables onto config fields.
var envOverrides = []struct {
	name  string
	apply func(cfg *Config, v string)
}{
	{"OPENAI_API_KEY", func(cfg *Config, v string) { cfg.OpenAI.APIKey = v }},
	{"OPENAI_WEBHOOK_SECRET", func(cfg *Config, v string) { cfg.OpenAI.WebhookSecret = v }},
	{"OPENAI_PROJECT_ID", func(cfg *Config, v string) { cfg.OpenAI.ProjectID = v }},
	{"TWILIO_ACCOUNT_SID", func(cfg *Config, v string) { cfg.Twilio.AccountSID = v }},
	{"TWILIO_AUTH_TOKEN", func(cfg *Config, v string) { cfg.Twilio.AuthToken = v }},
	{"HUMAN_AGENT_NUMBER", func(cfg *Config, v string) { cfg.Transfer.HumanAgentNumber = v }},
	{"PUBLIC_DOMAIN", func(cfg *Config, v string) { cfg.Gateway.PublicDomain = v }},
	{"PORT", setPort},
	{"WARMLINE_GATEWAY_PORT", setPort},
	{"WARMLINE_GATEWAY_BIND", func(cfg *Config, v string) { cfg.Gateway.Bind = v }},
	{"WARMLINE_LOG_LEVEL", func(cfg *Config, v string) { cfg.Logging.Level = strings.ToLower(v) }},
}

func setPort(cfg *Config, v string) {
	if port, err := strconv.Atoi(v); err == nil {
		cfg.Gateway.Port = port
	}
}

// applyEnvOverrides reads environment variables and overrides config
// values. WARMLINE_GATEWAY_PORT wins over PORT when both are set.
func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(cfg, v)
		}
	}
}
