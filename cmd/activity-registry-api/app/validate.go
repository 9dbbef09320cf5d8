package app

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mergington/activity-registry/internal/service"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file without starting the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := v.GetString("validate-config")
			if path == "" {
				return fmt.Errorf("--config is required")
			}

			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration %s is valid\n", path)
			fmt.Fprintf(out, "registry: %s\n", cfg.GetRegistryName())
			fmt.Fprintf(out, "capacity enforced: %t\n", cfg.CapacityEnforced())
			fmt.Fprintf(out, "telemetry enabled: %t\n", cfg.Telemetry != nil && cfg.Telemetry.Enabled)

			catalog := cfg.Catalog()
			fmt.Fprintf(out, "activities: %d\n", len(catalog))
			return renderCatalog(cmd, catalog)
		},
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	// Stored under its own key so it does not shadow serve's optional --config
	if err := v.BindPFlag("validate-config", cmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind flag", "flag", "config", "error", err)
	}

	return cmd
}

// renderCatalog prints one row per activity in name order
func renderCatalog(cmd *cobra.Command, catalog service.Catalog) error {
	rows := make([][]string, 0, len(catalog))
	for _, name := range catalog.Names() {
		a := catalog[name]
		rows = append(rows, []string{
			name,
			a.Schedule,
			strconv.Itoa(len(a.Participants)),
			strconv.Itoa(a.MaxParticipants),
		})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	defer table.Close()
	table.Header("Activity", "Schedule", "Participants", "Capacity")
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build activity table: %w", err)
	}
	return table.Render()
}
