package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/bunshin-agent/internal/agent"
	"github.com/zulandar/bunshin-agent/internal/config"
	"github.com/zulandar/bunshin-agent/internal/statusserver"
	"github.com/zulandar/bunshin-agent/internal/transcript"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:   "bunshin-agent",
		Short: "Bunshin agent stub — a scriptable stand-in for a real coding agent",
		Long: "bunshin-agent simulates a long-running agent subprocess for testing orchestrators.\n" +
			"It reads commands from stdin, emits timestamped log lines to stdout, and shuts\n" +
			"down cleanly on quit, end of input, or interrupt.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Model, "model", "", "AI model to simulate (required)")
	cmd.Flags().StringVar(&flags.AgentID, "agent-id", "", "agent ID (overrides "+config.EnvAgentID+")")
	cmd.Flags().StringVar(&flags.AgentName, "agent-name", "", "agent name (overrides "+config.EnvAgentName+")")
	cmd.Flags().StringVar(&flags.Project, "project", "", "project name (overrides "+config.EnvProject+")")
	cmd.Flags().StringVar(&flags.Task, "task", "", "task description (overrides "+config.EnvTask+")")
	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "", "path to optional YAML config file")
	cmd.Flags().StringVar(&flags.TranscriptDB, "transcript-db", "", "sqlite path for recording received commands")
	cmd.Flags().IntVar(&flags.StatusPort, "status-port", 0, "port for the HTTP status endpoint (0 = disabled)")
	cmd.Flags().DurationVar(&flags.Heartbeat, "heartbeat", 0, "interval between liveness log lines (0 = disabled)")
	_ = cmd.MarkFlagRequired("model")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bunshin-agent %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func runAgent(cmd *cobra.Command, flags config.Flags) error {
	cfg, err := config.Resolve(flags, os.LookupEnv)
	if err != nil {
		return err
	}

	log := agent.NewLogger(cmd.OutOrStdout(), cmd.ErrOrStderr())
	sess := agent.NewSession(cfg)
	dispatcher := agent.NewDispatcher(sess, log)

	if cfg.TranscriptDB != "" {
		db, err := transcript.Open(cfg.TranscriptDB)
		if err != nil {
			return err
		}
		dispatcher.Recorder = transcript.New(db, cfg.SessionID, cfg.AgentID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent.StartupBanner(log, sess)

	if cfg.StatusPort > 0 {
		go func() {
			if err := statusserver.Start(ctx, statusserver.StartOpts{
				Session: sess,
				Log:     log,
				Port:    cfg.StatusPort,
			}); err != nil {
				log.Errorf("status server: %v", err)
			}
		}()
	}

	if cfg.Heartbeat > 0 {
		if _, err := agent.StartHeartbeat(ctx, log, sess, cfg.Heartbeat); err != nil {
			return err
		}
	}

	loop := &agent.Loop{Dispatcher: dispatcher, Log: log, Session: sess}
	if _, err := loop.Run(ctx, cmd.InOrStdin()); err != nil {
		log.Errorf("Unexpected error: %v", err)
		return err
	}
	loop.Summary()
	return nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
