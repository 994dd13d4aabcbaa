package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/soyeahso/warmline/internal/config"
	"github.com/soyeahso/warmline/internal/gateway"
	"github.com/soyeahso/warmline/internal/store"
	"github.com/soyeahso/warmline/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show warmline status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "warmline %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway:  port=%d bind=%s domain=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, orNone(cfg.Gateway.PublicDomain))
			fmt.Fprintf(out, "Agent:    model=%s voice=%s tool=%s\n",
				cfg.Agent.Model, cfg.Agent.Voice, cfg.Agent.HandoffTool)
			fmt.Fprintf(out, "Transfer: human=%s header=%s timeout=%s\n",
				orNone(cfg.Transfer.HumanAgentNumber), cfg.Transfer.ConferenceHeader, cfg.Transfer.RequestTimeout())
			fmt.Fprintf(out, "Session:  maxAge=%s sweep=%s\n",
				cfg.Session.MaxCallAge(), cfg.Session.SweepInterval())
			fmt.Fprintf(out, "Journal:  %s\n", journalSummary(cmd.Context(), cfg))

			// Live gateway
			if live, err := fetchStatus(cmd.Context(), cfg); err == nil {
				fmt.Fprintf(out, "Running:  yes (uptime %s, %d active call(s))\n", live.Uptime, live.ActiveCalls)
			} else {
				fmt.Fprintln(out, "Running:  no")
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

// fetchStatus asks a locally running gateway for its status.
func fetchStatus(ctx context.Context, cfg config.Config) (*gateway.StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d%s", cfg.Gateway.Port, gateway.PathStatus)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var status gateway.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// journalSummary describes the journal without creating it.
func journalSummary(ctx context.Context, cfg config.Config) string {
	if !cfg.Journal.Enabled {
		return "(in memory)"
	}
	path := paths.JournalPath(cfg)
	if _, err := os.Stat(path); err != nil {
		return path + " (not created yet)"
	}
	db, err := store.Open(path, log)
	if err != nil {
		return fmt.Sprintf("%s (error: %v)", path, err)
	}
	defer db.Close()

	schema, err := db.SchemaVersion()
	if err != nil {
		return fmt.Sprintf("%s (error: %v)", path, err)
	}
	st, err := store.NewSQLiteJournal(db).Stats(ctx)
	if err != nil {
		return fmt.Sprintf("%s (error: %v)", path, err)
	}
	return fmt.Sprintf("%s (schema v%d, %d event(s), %d call(s))", path, schema, st.Events, st.Conferences)
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
