// Package commands implements the documind command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodia-labs/documind/internal/config"
)

// cli carries state shared by the subcommands of one invocation
type cli struct {
	version string
	cfgFile string
	viper   *viper.Viper
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCommand builds the documind command tree
func NewRootCommand(version string) *cobra.Command {
	c := &cli{version: version, viper: viper.New()}

	root := &cobra.Command{
		Use:           "documind",
		Short:         "documind: document question answering over uploaded files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.load()
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "log format: text or json")
	_ = c.viper.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = c.viper.BindPFlag("log.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		c.serveCommand(),
		c.ingestCommand(),
		c.qaCommand(),
		c.migrateCommand(),
		c.versionCommand(),
	)
	return root
}

// load reads configuration and installs the default logger
func (c *cli) load() error {
	cfg, err := config.Load(c.viper, c.cfgFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(c.logger)
	return nil
}

// Execute runs the root command and exits non-zero on failure
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "documind %s\n", c.version)
		},
	}
}
