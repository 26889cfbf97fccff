package main

import (
	"database/sql"
	"encoding/json"

	"car-showroom/internal/repository"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect the site settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored site settings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *sql.DB) error {
			settings, err := repository.NewSettingsRepository(db).Get(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		})
	},
}
