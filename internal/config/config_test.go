package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every environment override so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, o := range envOverrides {
		t.Setenv(o.name, "")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 8000, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.Equal(t, "https://api.openai.com", cfg.OpenAI.BaseURL)
	assert.Equal(t, "wss://api.openai.com/v1/realtime", cfg.OpenAI.RealtimeURL)
	assert.Equal(t, "sip.api.openai.com", cfg.OpenAI.SIPHost)
	assert.Equal(t, "https://api.twilio.com", cfg.Twilio.BaseURL)
	assert.Equal(t, "gpt-realtime", cfg.Agent.Model)
	assert.Equal(t, "alloy", cfg.Agent.Voice)
	assert.Equal(t, "addHumanAgent", cfg.Agent.HandoffTool)
	assert.NotEmpty(t, cfg.Agent.Instructions)
	assert.NotEmpty(t, cfg.Agent.Greeting)
	assert.NotEmpty(t, cfg.Agent.HoldMessage)
	assert.Equal(t, "X-conferenceName", cfg.Transfer.ConferenceHeader)
	assert.Equal(t, 15*time.Second, cfg.Transfer.RequestTimeout())
	assert.Equal(t, 20, cfg.Transfer.ParticipantPageSize)
	assert.Equal(t, 4*time.Hour, cfg.Session.MaxCallAge())
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
	assert.True(t, cfg.Journal.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Gateway.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
gateway:
  port: 9999
  bind: loopback
  publicDomain: calls.example.com
openai:
  apiKey: sk-file
  webhookSecret: whsec_abc
  projectId: proj_123
twilio:
  accountSid: AC123
  authToken: token
agent:
  voice: verse
  greeting: Hello there
transfer:
  humanAgentNumber: "+15559990000"
  requestTimeoutSeconds: 5
session:
  maxCallMinutes: 30
logging:
  level: debug
  consoleStyle: json
journal:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "calls.example.com", cfg.Gateway.PublicDomain)
	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(t, "proj_123", cfg.OpenAI.ProjectID)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, "verse", cfg.Agent.Voice)
	assert.Equal(t, "Hello there", cfg.Agent.Greeting)
	assert.Equal(t, "gpt-realtime", cfg.Agent.Model)
	assert.Equal(t, "+15559990000", cfg.Transfer.HumanAgentNumber)
	assert.Equal(t, 5*time.Second, cfg.Transfer.RequestTimeout())
	assert.Equal(t, 30, cfg.Session.MaxCallMinutes)
	assert.Equal(t, 60, cfg.Session.SweepSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.False(t, cfg.Journal.Enabled)
	assert.Empty(t, Validate(&cfg))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("OPENAI_PROJECT_ID", "proj_env")
	t.Setenv("TWILIO_ACCOUNT_SID", "ACenv")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok-env")
	t.Setenv("HUMAN_AGENT_NUMBER", "+15550001111")
	t.Setenv("PUBLIC_DOMAIN", "env.example.com")
	t.Setenv("PORT", "3000")
	t.Setenv("WARMLINE_LOG_LEVEL", "TRACE")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "whsec_env", cfg.OpenAI.WebhookSecret)
	assert.Equal(t, "proj_env", cfg.OpenAI.ProjectID)
	assert.Equal(t, "ACenv", cfg.Twilio.AccountSID)
	assert.Equal(t, "tok-env", cfg.Twilio.AuthToken)
	assert.Equal(t, "+15550001111", cfg.Transfer.HumanAgentNumber)
	assert.Equal(t, "env.example.com", cfg.Gateway.PublicDomain)
	assert.Equal(t, 3000, cfg.Gateway.Port)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Empty(t, Validate(&cfg))
}

func TestLoadGatewayPortPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("WARMLINE_GATEWAY_PORT", "4000")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Gateway.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai:\n  apiKey: sk-file\n"), 0o600))
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestLoadExpandsSecretReferences(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_TWILIO_TOKEN", "expanded-token")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "twilio:\n  authToken: ${MY_TWILIO_TOKEN}\nopenai:\n  apiKey: ${UNSET_WARMLINE_VAR}\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-token", cfg.Twilio.AuthToken)
	assert.Equal(t, "${UNSET_WARMLINE_VAR}", cfg.OpenAI.APIKey)
}
