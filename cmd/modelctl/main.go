// Command modelctl serves demo models with devtools and manages stored snapshots.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vango-dev/vmodel/internal/config"
	vmerrors "github.com/vango-dev/vmodel/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		vmerrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "modelctl",
		Short: "Inspect and persist vmodel models",
		Long: `modelctl runs models behind an HTTP and WebSocket inspector
and manages the JSON snapshots they are persisted to.

Configuration is read from flags, VMODEL_* environment variables,
.env files and an optional modelctl.yaml, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./modelctl.yaml if present)")
	config.BindFlags(rootCmd.PersistentFlags())

	loader := func(cmd *cobra.Command) (*config.Config, error) {
		return loadConfig(cmd, configPath)
	}

	rootCmd.AddCommand(
		serveCmd(loader),
		snapshotCmd(loader),
		versionCmd(),
	)
	return rootCmd
}

type configLoader func(cmd *cobra.Command) (*config.Config, error)

func loadConfig(cmd *cobra.Command, configPath string) (*config.Config, error) {
	v := viper.New()
	config.InitEnv(v)
	if err := config.ReadFile(v, configPath, "."); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
