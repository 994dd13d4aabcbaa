package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/warmline/internal/config"
	"github.com/soyeahso/warmline/internal/gateway"
	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/logging"
	"github.com/soyeahso/warmline/internal/openai"
	"github.com/soyeahso/warmline/internal/session"
	"github.com/soyeahso/warmline/internal/store"
	"github.com/soyeahso/warmline/internal/transfer"
	"github.com/soyeahso/warmline/internal/twilio"
	"github.com/spf13/cobra"
	"github.com/tillberg/autorestart"
)

// memoryJournalCapacity bounds the journal kept when SQLite is disabled.
const memoryJournalCapacity = 1000

func newServeCmd() *cobra.Command {
	var (
		port  int
		bind  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run"},
		Short:   "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			log = logging.NewConsole(cfg.Logging.ConsoleStyle, cfg.Logging.Level)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if watch {
				go autorestart.RestartOnChange()
				log.Info().Msg("restarting on binary change")
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}
			hookMgr := hooks.NewManager(log)

			// Initialize call journal (SQLite or in-memory)
			var journal store.Journal
			if cfg.Journal.Enabled {
				dbPath := paths.JournalPath(cfg)
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening journal: %w", err)
				}
				defer db.Close()
				journal = store.NewSQLiteJournal(db)
				log.Info().Str("path", dbPath).Msg("using SQLite call journal")
			} else {
				journal = store.NewMemoryJournal(memoryJournalCapacity)
				log.Info().Msg("using in-memory call journal")
			}
			store.Subscribe(hookMgr, journal)
			// Drain hook handlers before the journal closes.
			defer hookMgr.Wait()

			svc := newTransferService(cfg, hookMgr, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go svc.RunSweeper(ctx, cfg.Session.SweepInterval(), cfg.Session.MaxCallAge())

			srv := gateway.New(cfg, svc, log,
				gateway.WithHooks(hookMgr),
				gateway.WithJournal(journal),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")
	cmd.Flags().BoolVar(&watch, "watch", false, "restart when the binary is rebuilt")

	return cmd
}

// newTransferService wires the provider clients into a transfer service.
func newTransferService(cfg config.Config, hookMgr *hooks.Manager, log *logging.Logger) *transfer.Service {
	tw := twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, twilio.WithBaseURL(cfg.Twilio.BaseURL))
	ai := openai.NewClient(cfg.OpenAI.APIKey, openai.WithBaseURL(cfg.OpenAI.BaseURL))

	return transfer.New(transferOptions(cfg), transfer.Deps{
		Registry:  session.NewRegistry(),
		Telephony: transfer.NewTwilioTelephony(tw),
		Acceptor:  ai,
		Dialer:    transfer.NewRealtimeDialer(cfg.OpenAI.RealtimeURL, cfg.OpenAI.APIKey),
		Hooks:     hookMgr,
	}, log)
}

func transferOptions(cfg config.Config) transfer.Options {
	return transfer.Options{
		PublicDomain:        cfg.Gateway.PublicDomain,
		HumanAgentNumber:    cfg.Transfer.HumanAgentNumber,
		ProjectID:           cfg.OpenAI.ProjectID,
		SIPHost:             cfg.OpenAI.SIPHost,
		ConferenceHeader:    cfg.Transfer.ConferenceHeader,
		Model:               cfg.Agent.Model,
		Voice:               cfg.Agent.Voice,
		Instructions:        cfg.Agent.Instructions,
		Greeting:            cfg.Agent.Greeting,
		HoldMessage:         cfg.Agent.HoldMessage,
		HandoffTool:         cfg.Agent.HandoffTool,
		HandoffDescription:  cfg.Agent.HandoffDescription,
		RequestTimeout:      cfg.Transfer.RequestTimeout(),
		ParticipantPageSize: cfg.Transfer.ParticipantPageSize,
	}
}
