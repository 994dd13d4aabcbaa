package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	required := []struct {
		path, env, value string
	}{
		{"openai.apiKey", "OPENAI_API_KEY", cfg.OpenAI.APIKey},
		{"openai.webhookSecret", "OPENAI_WEBHOOK_SECRET", cfg.OpenAI.WebhookSecret},
		{"openai.projectId", "OPENAI_PROJECT_ID", cfg.OpenAI.ProjectID},
		{"twilio.accountSid", "TWILIO_ACCOUNT_SID", cfg.Twilio.AccountSID},
		{"twilio.authToken", "TWILIO_AUTH_TOKEN", cfg.Twilio.AuthToken},
		{"transfer.humanAgentNumber", "HUMAN_AGENT_NUMBER", cfg.Transfer.HumanAgentNumber},
		{"gateway.publicDomain", "PUBLIC_DOMAIN", cfg.Gateway.PublicDomain},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" || envVarPattern.MatchString(r.value) {
			add(r.path, "required (set %s)", r.env)
		}
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		add("gateway.customBindHost", "required when bind is custom")
	}
	if d := cfg.Gateway.PublicDomain; strings.Contains(d, "://") || strings.Contains(d, "/") {
		add("gateway.publicDomain", "must be a bare host name, got %q", d)
	}

	// Agent validation
	if !toolNamePattern.MatchString(cfg.Agent.HandoffTool) {
		add("agent.handoffTool", "must match %s, got %q", toolNamePattern, cfg.Agent.HandoffTool)
	}

	// Transfer and session validation
	if cfg.Transfer.RequestTimeoutSeconds < 1 {
		add("transfer.requestTimeoutSeconds", "must be at least 1, got %d", cfg.Transfer.RequestTimeoutSeconds)
	}
	if cfg.Transfer.ParticipantPageSize < 1 || cfg.Transfer.ParticipantPageSize > 1000 {
		add("transfer.participantPageSize", "must be 1-1000, got %d", cfg.Transfer.ParticipantPageSize)
	}
	if cfg.Session.MaxCallMinutes < 1 {
		add("session.maxCallMinutes", "must be at least 1, got %d", cfg.Session.MaxCallMinutes)
	}
	if cfg.Session.SweepSeconds < 1 {
		add("session.sweepSeconds", "must be at least 1, got %d", cfg.Session.SweepSeconds)
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
