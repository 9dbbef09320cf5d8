// Package app wires the command line interface of the Activity Registry API server.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mergington/activity-registry/internal/config"
	"github.com/mergington/activity-registry/internal/versions"
)

// NewRootCmd creates the root command and its subcommands.
// Flags are bound to a fresh viper instance that also reads ACTIVITY_REGISTRY_* variables.
// --debug lowers logLevel to debug when set.
func NewRootCmd(logLevel *slog.LevelVar) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "activity-registry-api",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Mergington High School activity registry API server",
		Long: `Activity Registry API server keeps the extracurricular activity catalog in memory
and lets students sign up for and unregister from activities over HTTP.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if logLevel != nil && v.GetBool("debug") {
				logLevel.Set(slog.LevelDebug)
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newValidateCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.Get()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			switch format {
			case "json":
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
			case "", "text":
				fmt.Fprintln(cmd.OutOrStdout(), info.String())
			default:
				return fmt.Errorf("unsupported format %q, expected text or json", format)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "", "Output format (text or json)")
	return cmd
}
