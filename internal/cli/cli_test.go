package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/warmline/internal/config"
	"github.com/soyeahso/warmline/internal/logging"
	"github.com/soyeahso/warmline/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "silent"))
	err := cmd.Execute()
	return out.String(), err
}

func testHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("WARMLINE_HOME", home)
	return home
}

func seedJournal(t *testing.T, home string, events ...store.CallEvent) {
	t.Helper()
	db, err := store.Open(filepath.Join(home, "data", "warmline.db"), logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()

	j := store.NewSQLiteJournal(db)
	for _, ev := range events {
		require.NoError(t, j.Record(context.Background(), ev))
	}
}

func TestVersionCmd(t *testing.T) {
	testHome(t)
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "warmline")
}

func TestJournalCmd(t *testing.T) {
	home := testHome(t)
	now := time.Now()
	seedJournal(t, home,
		store.CallEvent{Conference: "CA1", Event: "call_started", Detail: "+15551230000", At: now.Add(-2 * time.Minute)},
		store.CallEvent{Conference: "CA2", Event: "call_started", At: now.Add(-time.Minute)},
		store.CallEvent{Conference: "CA1", AICallID: "RTC1", Event: "ai_accepted", At: now},
	)

	out, err := runCLI(t, "journal", "CA1")
	require.NoError(t, err)
	assert.Contains(t, out, "CONFERENCE")
	assert.Contains(t, out, "call_started")
	assert.Contains(t, out, "ai_accepted")
	assert.Contains(t, out, "RTC1")
	assert.NotContains(t, out, "CA2")

	out, err = runCLI(t, "journal", "--json", "--limit", "1")
	require.NoError(t, err)
	var events []store.CallEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "ai_accepted", events[0].Event)
}

func TestJournalCmdEmpty(t *testing.T) {
	testHome(t)
	out, err := runCLI(t, "journal")
	require.NoError(t, err)
	assert.Contains(t, out, "No events.")
}

func TestJournalCmdDisabled(t *testing.T) {
	home := testHome(t)
	require.NoError(t, config.SaveRaw(filepath.Join(home, "config.yaml"), map[string]any{
		"journal": map[string]any{"enabled": false},
	}))

	_, err := runCLI(t, "journal")
	assert.ErrorIs(t, err, errJournalDisabled)
}

func TestJournalPruneCmd(t *testing.T) {
	home := testHome(t)
	now := time.Now()
	seedJournal(t, home,
		store.CallEvent{Conference: "CAold", Event: "call_started", At: now.Add(-48 * time.Hour)},
		store.CallEvent{Conference: "CAnew", Event: "call_started", At: now},
	)

	out, err := runCLI(t, "journal", "prune", "--older-than", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 event(s)")

	out, err = runCLI(t, "journal")
	require.NoError(t, err)
	assert.Contains(t, out, "CAnew")
	assert.NotContains(t, out, "CAold")
}

func TestStatusCmdReportsIssues(t *testing.T) {
	testHome(t)
	for _, name := range []string{"OPENAI_API_KEY", "OPENAI_WEBHOOK_SECRET", "OPENAI_PROJECT_ID", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "HUMAN_AGENT_NUMBER", "PUBLIC_DOMAIN", "PORT", "WARMLINE_GATEWAY_PORT"} {
		t.Setenv(name, "")
	}
	t.Setenv("WARMLINE_GATEWAY_PORT", "1")

	out, err := runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Gateway:  port=1 bind=lan domain=(not set)")
	assert.Contains(t, out, "Running:  no")
	assert.Contains(t, out, "Validation issues (7)")
	assert.Contains(t, out, "openai.apiKey: required (set OPENAI_API_KEY)")
}

func TestStatusCmdJournalSummary(t *testing.T) {
	home := testHome(t)

	out, err := runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "(not created yet)")
	assert.NoFileExists(t, filepath.Join(home, "data", "warmline.db"))

	seedJournal(t, home,
		store.CallEvent{Conference: "CA1", Event: "call_started"},
		store.CallEvent{Conference: "CA1", Event: "call_ended"},
	)
	out, err = runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "(schema v2, 2 event(s), 1 call(s))")
}

func TestServeRefusesInvalidConfig(t *testing.T) {
	testHome(t)
	for _, name := range []string{"OPENAI_API_KEY", "OPENAI_WEBHOOK_SECRET", "OPENAI_PROJECT_ID", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "HUMAN_AGENT_NUMBER", "PUBLIC_DOMAIN"} {
		t.Setenv(name, "")
	}

	_, err := runCLI(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed with 7 issue(s)")
}

func TestTransferOptions(t *testing.T) {
	cfg := config.Defaults()
	cfg.Gateway.PublicDomain = "calls.example.com"
	cfg.OpenAI.ProjectID = "proj_123"
	cfg.Transfer.HumanAgentNumber = "+15559990000"
	cfg.Transfer.RequestTimeoutSeconds = 7

	opts := transferOptions(cfg)
	assert.Equal(t, "calls.example.com", opts.PublicDomain)
	assert.Equal(t, "proj_123", opts.ProjectID)
	assert.Equal(t, "+15559990000", opts.HumanAgentNumber)
	assert.Equal(t, config.DefaultOpenAISIPHost, opts.SIPHost)
	assert.Equal(t, config.DefaultConferenceHeader, opts.ConferenceHeader)
	assert.Equal(t, config.DefaultHandoffTool, opts.HandoffTool)
	assert.Equal(t, 7*time.Second, opts.RequestTimeout)
	assert.Equal(t, 20, opts.ParticipantPageSize)
	assert.NotEmpty(t, opts.Greeting)
	assert.NotEmpty(t, opts.HoldMessage)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"8000", 8000},
		{"1.5", 1.5},
		{"+15559990000", "+15559990000"},
		{"calls.example.com", "calls.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestConfigSetGetUnset(t *testing.T) {
	home := testHome(t)
	t.Setenv("PORT", "")
	t.Setenv("WARMLINE_GATEWAY_PORT", "")

	out, err := runCLI(t, "config", "set", "transfer.humanAgentNumber", "+15559990000")
	require.NoError(t, err)
	assert.Contains(t, out, "Set transfer.humanAgentNumber = +15559990000")

	_, err = runCLI(t, "config", "set", "gateway.port", "9000")
	require.NoError(t, err)

	out, err = runCLI(t, "config", "get", "transfer.humanAgentNumber")
	require.NoError(t, err)
	assert.Equal(t, "+15559990000\n", out)

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Gateway.Port)

	_, err = runCLI(t, "config", "unset", "gateway.port")
	require.NoError(t, err)
	_, err = runCLI(t, "config", "get", "gateway.port")
	assert.Error(t, err)

	_, err = runCLI(t, "config", "set", "channels.irc.server", "irc.example.net")
	assert.ErrorContains(t, err, "unknown config section")

	out, err = runCLI(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml")+"\n", out)
}
