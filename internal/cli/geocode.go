package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Proton-105/geogate/pkg/geocode"
)

var geocodeAsJSON bool

var geocodeCmd = &cobra.Command{
	Use:   "geocode <query>...",
	Short: "Resolve a free-form address to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		client, err := app.buildClient(cmd.Context())
		if err != nil {
			return err
		}

		loc, err := client.Geocode(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		return printLocation(cmd.OutOrStdout(), loc, geocodeAsJSON)
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse <lat> <lon>",
	Short: "Resolve coordinates to an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, latErr := strconv.ParseFloat(args[0], 64)
		lon, lonErr := strconv.ParseFloat(args[1], 64)
		if latErr != nil || lonErr != nil {
			return fmt.Errorf("lat and lon must be valid coordinates")
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		client, err := app.buildClient(cmd.Context())
		if err != nil {
			return err
		}

		loc, err := client.Reverse(cmd.Context(), lat, lon)
		if err != nil {
			return err
		}

		return printLocation(cmd.OutOrStdout(), loc, geocodeAsJSON)
	},
}

func printLocation(w io.Writer, loc *geocode.Location, asJSON bool) error {
	if loc == nil {
		_, err := fmt.Fprintln(w, "no result")
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(loc)
	}

	_, err := fmt.Fprintf(w, "%s\n%.6f, %.6f\n", loc.Address, loc.Latitude, loc.Longitude)
	return err
}

func init() {
	geocodeCmd.Flags().BoolVar(&geocodeAsJSON, "json", false, "print the full result as JSON")
	reverseCmd.Flags().BoolVar(&geocodeAsJSON, "json", false, "print the full result as JSON")

	rootCmd.AddCommand(geocodeCmd, reverseCmd)
}
