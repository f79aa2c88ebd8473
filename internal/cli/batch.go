package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	progressbar "github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Proton-105/geogate/internal/domain"
	"github.com/Proton-105/geogate/internal/geocoder"
	"github.com/Proton-105/geogate/internal/jobs"
	"github.com/Proton-105/geogate/internal/repository"
)

var (
	batchSave    bool
	batchEnqueue bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Geocode a list of queries, one per line",
	Long: `
Reads queries from the given file, or from stdin when no file is provided,
and resolves them in order through the paced client. With --enqueue the list
is handed to the background worker instead of running locally.
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, err := readQueries(args)
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			return fmt.Errorf("no queries to resolve")
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if batchEnqueue {
			return enqueueBatch(cmd, app, queries)
		}

		return runBatch(cmd, app, queries)
	},
}

func readQueries(args []string) ([]string, error) {
	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var queries []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			queries = append(queries, line)
		}
	}

	return queries, scanner.Err()
}

func enqueueBatch(cmd *cobra.Command, app *app, queries []string) error {
	task, err := jobs.NewGeocodeBatchTask(queries, batchSave)
	if err != nil {
		return err
	}

	manager := jobs.NewManager(asynqRedisOpt(app), app.log)
	defer func() { _ = manager.Close() }()

	info, err := manager.Enqueue(cmd.Context(), task)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "enqueued batch of %d queries (task %s)\n", len(queries), info.ID)
	return nil
}

func runBatch(cmd *cobra.Command, app *app, queries []string) error {
	client, err := app.buildClient(cmd.Context())
	if err != nil {
		return err
	}

	var results repository.ResultRepository
	if batchSave {
		db, err := app.openDB(cmd.Context())
		if err != nil {
			return err
		}
		results = repository.NewResultRepository(db, app.log)
	}

	bar := progressbar.NewOptions(len(queries),
		progressbar.OptionSetDescription("Geocoding"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	resolved := 0
	outcomes, err := client.GeocodeBatch(cmd.Context(), queries, func(index, total int, out geocoder.Outcome) {
		_ = bar.Add(1)

		if !out.Success() || out.Value == nil {
			return
		}
		resolved++

		if results != nil {
			record := &domain.Record{
				Provider:  client.Provider(),
				Operation: "geocode",
				Query:     queries[index],
				Address:   out.Value.Address,
				Latitude:  out.Value.Latitude,
				Longitude: out.Value.Longitude,
				Raw:       out.Value.Raw,
			}
			if saveErr := results.Save(cmd.Context(), record); saveErr != nil {
				app.log.Warn("failed to save result", "query", queries[index], "error", saveErr)
			}
		}
	})
	_ = bar.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "resolved %d of %d queries\n", resolved, len(queries))

	if err != nil {
		return fmt.Errorf("batch stopped after %d queries: %w", len(outcomes), err)
	}
	return nil
}

func init() {
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "store resolved results in the database")
	batchCmd.Flags().BoolVar(&batchEnqueue, "enqueue", false, "queue the batch for the background worker")

	rootCmd.AddCommand(batchCmd)
}
