package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/config"
	"github.com/angristan/deo-tui/internal/logging"
	"github.com/angristan/deo-tui/internal/tui"
)

type options struct {
	demo     bool
	backend  string
	agentID  string
	logLevel string
}

// logSink holds the log file opened by the root command
type logSink struct {
	closer io.Closer
}

// Close releases the log file, whatever the command returned
func (s *logSink) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root, sink := newRootCmd()
	defer sink.Close()

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() (*cobra.Command, *logSink) {
	opts := &options{}
	sink := &logSink{}
	var log zerolog.Logger

	root := &cobra.Command{
		Use:          "deo",
		Short:        "Display enhancement override settings",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logging.NewFromEnv(logging.DefaultPath())
			if opts.logLevel != "" {
				cfg.Level = logging.ParseLevel(opts.logLevel)
			}
			var err error
			log, sink.closer, err = logging.New(cfg)
			if err != nil {
				return fmt.Errorf("open log: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts, log)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.demo, "demo", false, "use the simulated display")
	flags.StringVar(&opts.backend, "backend", "", "backend to use: auto, demo, backlight or agent")
	flags.StringVar(&opts.agentID, "agent", "", "agent id to connect to (agent backend)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")

	root.AddCommand(
		newDiscoverCmd(),
		newStatusCmd(opts, &log),
	)
	return root, sink
}

func runTUI(opts *options, log zerolog.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	client, err := selectBackend(cfg, opts.agentID, log)
	if err != nil {
		return err
	}
	log.Info().Str("backend", string(cfg.EffectiveBackend())).Msg("starting")

	p := tea.NewProgram(tui.NewModel(cfg, client, log), tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.backend != "" {
		backend, err := config.ParseBackend(opts.backend)
		if err != nil {
			return nil, err
		}
		cfg.Backend = backend
	}
	if opts.demo {
		cfg.Demo = true
	}
	return cfg, nil
}

func newDiscoverCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List display agents on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := api.DiscoverAgents(cmd.Context(), timeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(agents) == 0 {
				fmt.Fprintln(out, "No agents found")
				return nil
			}
			for _, a := range agents {
				fmt.Fprintf(out, "%-24s %-16s %s\n", a.Host, a.AgentID, a.Name)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for answers")
	return cmd
}

func newStatusCmd(opts *options, log *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the override state of the selected display",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			client, err := selectBackend(cfg, opts.agentID, *log)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("display enhancement override is not supported on this device")
			}

			ctx, cancel := contextWithTimeout(cmd, 10*time.Second)
			defer cancel()
			state, err := client.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("read override state: %w", err)
			}
			printState(cmd.OutOrStdout(), client.Name(), state)
			return nil
		},
	}
}
