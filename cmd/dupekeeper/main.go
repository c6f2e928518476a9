package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ivoronin/dupekeeper/internal/config"
	"github.com/ivoronin/dupekeeper/internal/engine"
	"github.com/ivoronin/dupekeeper/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:          "dupekeeper",
		Short:        "Find duplicate files and quarantine redundant copies",
		Version:      version + " (" + commit + ")",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "Config file (default $HOME/.dupekeeper/config.yaml or ./config.yaml)")
	root.PersistentFlags().String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String(config.KeyQuarantineRoot, engine.DefaultQuarantineRoot(), "Directory holding quarantine batches")

	root.AddCommand(newScanCmd(g), newUndoCmd(g), newBatchesCmd(g))
	return root
}

// loadConfig merges the config file with the flags of cmd and builds the logger.
func loadConfig(cmd *cobra.Command, g *globalOptions) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(viper.New(), g.configFile, cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logger.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
