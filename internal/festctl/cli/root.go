// Package cli contains festctl's commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"festival-hub/internal/festctl/config"
	"festival-hub/internal/festctl/output"
	"festival-hub/internal/infrastructure/credstore"

	"github.com/spf13/cobra"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile string
	verbose bool
	noColor bool
	version string

	cfg     *config.Config
	logger  *slog.Logger
	printer *output.Printer
}

// Execute runs festctl with os.Args.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "festctl",
		Short: "Festival Hub command-line client",
		Long: `festctl signs in to Festival Hub with a Kratos session token and
inspects or ends that session.

Example usage:
  festctl auth login --token ory_st_...   # store a session token
  festctl auth status                     # ask festival-hub about the session
  festctl auth whoami                     # ask Kratos directly
  festctl auth logout                     # end the session and forget the token`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .festctl.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newAuthCmd(a), newVersionCmd(a))
	return root
}

func (a *app) init(out, errOut io.Writer) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.printer = output.NewPrinter(out, errOut, !a.noColor && output.ResolveColors(cfg.Output.Colors))

	a.logger.Debug("configuration loaded",
		"server_url", cfg.Server.URL,
		"kratos_url", cfg.Kratos.URL,
		"credentials_dir", cfg.Credentials.Dir)
	return nil
}

func (a *app) store() (*credstore.FileStore, error) {
	return credstore.NewFileStoreAt(a.cfg.Credentials.Dir)
}
