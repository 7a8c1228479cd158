package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anlsys/libnrm-sub000/internal/config"
	"github.com/anlsys/libnrm-sub000/internal/dispatcher"
	"github.com/anlsys/libnrm-sub000/internal/eventbase"
	"github.com/anlsys/libnrm-sub000/internal/log"
	"github.com/anlsys/libnrm-sub000/internal/role"
	"github.com/anlsys/libnrm-sub000/internal/state"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "nrmd",
	Short:   "nrmd - node-level resource management daemon",
	Long:    "nrmd tracks per-node actuators, scopes, sensors, and slices, and aggregates sensor events into rolling per-period windows for downstream policy decisions.",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("nrmd version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	runCmd.Flags().String("listen-uri", "", "Override NRM_UPSTREAM_URI (e.g. tcp://127.0.0.1)")
	runCmd.Flags().Int("rpc-port", 0, "Override NRM_UPSTREAM_RPC_PORT")
	runCmd.Flags().Int("pub-port", 0, "Override NRM_UPSTREAM_PUB_PORT")
	runCmd.Flags().Int("period-ms", 0, "Override the event-base tick period, in milliseconds")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
}

// overlayFlags applies any --listen-uri/--rpc-port/--pub-port/
// --period-ms flags the caller set on top of the env-derived cfg and
// period, leaving either untouched where the flag wasn't set.
func overlayFlags(cmd *cobra.Command, cfg *config.Config, period *time.Duration) error {
	if cmd.Flags().Changed("listen-uri") {
		uri, _ := cmd.Flags().GetString("listen-uri")
		host, err := config.ParseUpstreamHost(uri)
		if err != nil {
			return err
		}
		cfg.UpstreamHost = host
	}
	if cmd.Flags().Changed("rpc-port") {
		cfg.RPCPort, _ = cmd.Flags().GetInt("rpc-port")
	}
	if cmd.Flags().Changed("pub-port") {
		cfg.PubPort, _ = cmd.Flags().GetInt("pub-port")
	}
	if cmd.Flags().Changed("period-ms") {
		ms, _ := cmd.Flags().GetInt("period-ms")
		*period = time.Duration(ms) * time.Millisecond
	}
	return nil
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		period := dispatcher.DefaultPeriod
		if err := overlayFlags(cmd, &cfg, &period); err != nil {
			return fmt.Errorf("apply flags: %w", err)
		}

		ctrl, err := role.NewControllerRole(cfg.RPCAddr(), cfg.PubAddr())
		if err != nil {
			return fmt.Errorf("bind controller role: %w", err)
		}

		tables := state.New()
		eb := eventbase.New(eventbase.DefaultCurrentCapacity, eventbase.DefaultPastCapacity)
		d := dispatcher.New(ctrl, tables, eb, period, dispatcher.Callbacks{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		errCh := make(chan error, 1)
		go func() { errCh <- d.Run(ctx) }()

		log.Logger.Info().
			Str("rpc_addr", ctrl.RPCAddr()).
			Str("pub_addr", ctrl.PubAddr()).
			Msg("nrmd listening")

		select {
		case <-sigCh:
			log.Logger.Info().Msg("shutting down")
			cancel()
			return <-errCh
		case err := <-errCh:
			return err
		}
	},
}
