package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/PepTag/pkg/writer/sqlite"
)

func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [results.db]",
		Short: "Summarize stored search results",
		Long: `Print score statistics for each search run stored in a results database: top
match score distribution, unmatched peaks and the gap to the runner-up.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(args[0])
		},
	}
	cmd.Flags().String("run", "", "Only this run id")
	return cmd
}

// runSummary holds the statistics of one run.
type runSummary struct {
	Spectra       int
	Mean, StdDev  float64
	Median, Q90   float64
	MeanUnmatched float64
	MeanDelta     float64 // mean of top score minus second score, over spectra with two matches
}

func summarizeScores(scores []sqlite.Score) runSummary {
	var top, unmatched, deltas []float64
	for i, s := range scores {
		if s.Rank != 1 {
			continue
		}
		top = append(top, s.Score)
		unmatched = append(unmatched, float64(s.Unmatched))
		if i+1 < len(scores) && scores[i+1].Rank == 2 {
			deltas = append(deltas, s.Score-scores[i+1].Score)
		}
	}

	var sum runSummary
	sum.Spectra = len(top)
	if len(top) == 0 {
		return sum
	}
	sum.Mean, sum.StdDev = stat.MeanStdDev(top, nil)
	sort.Float64s(top)
	sum.Median = stat.Quantile(0.5, stat.Empirical, top, nil)
	sum.Q90 = stat.Quantile(0.9, stat.Empirical, top, nil)
	sum.MeanUnmatched = stat.Mean(unmatched, nil)
	if len(deltas) > 0 {
		sum.MeanDelta = stat.Mean(deltas, nil)
	}
	return sum
}

func runSummarize(path string) error {
	runs, err := sqlite.LoadRuns(path)
	if err != nil {
		return err
	}
	only := viper.GetString("run")

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Run\tDate\tInstrument\tSpectra\tMatched\tMean\tStdDev\tMedian\tQ90\tUnmatched\tDelta")
	shown := 0
	for _, run := range runs {
		if only != "" && run.ID != only {
			continue
		}
		scores, err := sqlite.LoadScores(path, run.ID, 2)
		if err != nil {
			return err
		}
		s := summarizeScores(scores)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			run.ID, run.CreationDate, run.Instrument, run.SpectrumCount, s.Spectra,
			s.Mean, s.StdDev, s.Median, s.Q90, s.MeanUnmatched, s.MeanDelta)
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if only != "" && shown == 0 {
		return fmt.Errorf("run %q not found in %s", only, path)
	}
	return nil
}
