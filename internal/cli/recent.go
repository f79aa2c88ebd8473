package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Proton-105/geogate/internal/repository"
)

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently stored results",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		db, err := app.openDB(cmd.Context())
		if err != nil {
			return err
		}

		results := repository.NewResultRepository(db, app.log)
		records, err := results.Recent(cmd.Context(), recentLimit)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no stored results")
			return nil
		}

		for _, r := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%q\t%.6f, %.6f\t%s\n",
				r.CreatedAt.Format(time.RFC3339), r.Provider, r.Query,
				r.Latitude, r.Longitude, r.Address)
		}

		return nil
	},
}

func init() {
	recentCmd.Flags().IntVar(&recentLimit, "limit", 20, "maximum number of results to list")
	rootCmd.AddCommand(recentCmd)
}
