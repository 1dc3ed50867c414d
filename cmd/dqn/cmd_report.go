package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fiorenza2/RL-Algorithms/experiment/tracker"
)

func newReportCmd() *cobra.Command {
	var (
		dbPath  string
		returns []string
		out     string
		title   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Plot episode returns as an HTML report",
		Long: `Plot the returns of recorded runs, with their moving averages,
as an HTML line chart. Runs are read from the SQLite database given by
--db and from gob-encoded returns files given by --returns.`,
		Example: `  dqn report --db ./runs/runs.db --out report.html
  dqn report --returns ./runs/returns_train.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" && len(returns) == 0 {
				return errors.New("report: need --db or --returns")
			}

			series := make(map[string][]float64)
			if dbPath != "" {
				if err := dbSeries(cmd, dbPath, series); err != nil {
					return err
				}
			}
			for _, path := range returns {
				data, err := tracker.LoadData(path)
				if err != nil {
					return err
				}
				series[filepath.Base(path)] = data
			}

			f, err := os.Create(out)
			if err != nil {
				return errors.Wrap(err, "report")
			}
			if err := tracker.Report(f, title, series); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "report")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d series to %v\n",
				len(series), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database of recorded runs")
	cmd.Flags().StringSliceVar(&returns, "returns", nil, "Gob-encoded returns files")
	cmd.Flags().StringVar(&out, "out", "report.html", "Output HTML file")
	cmd.Flags().StringVar(&title, "title", "Episode returns", "Chart title")
	return cmd
}

// dbSeries adds the returns of each run in the database at path to series
func dbSeries(cmd *cobra.Command, path string, series map[string][]float64) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(err, "report")
	}

	store, err := tracker.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(cmd.Context())
	if err != nil {
		return err
	}
	for _, run := range runs {
		episodes, err := store.Episodes(cmd.Context(), run.ID)
		if err != nil {
			return err
		}
		if len(episodes) == 0 {
			continue
		}

		data := make([]float64, len(episodes))
		for i, e := range episodes {
			data[i] = e.Return
		}
		name := strings.Join([]string{run.Mode, run.EnvID, run.ID[:8]}, " ")
		series[name] = data
	}
	return nil
}
