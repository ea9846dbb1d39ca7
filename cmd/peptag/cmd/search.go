package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/PepTag/pkg/search"
	"github.com/ChrisMcGann/PepTag/pkg/writer/sqlite"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [spectra]",
		Short: "Search spectra against a peptide database",
		Long: `Search every spectrum of an MSP or MGF file against candidate peptides from a
peptide list or a digested FASTA database, and store the ranked matches.

Examples:
  # Tryptic search of an MGF file, results to SQLite
  peptag search run.mgf --fasta human.fasta --out results.db

  # High resolution CID search with oxidation and a phospho gate
  peptag search run.mgf --fasta human.fasta --instrument ESI-Q-CID \
    --fragment-tol 20ppm --mods 'Oxidation@M;Phospho@STY' --require loss

  # Print the top match per spectrum of a library against a peptide list
  peptag search library.msp --peptides peptides.txt --top-n 1`,
		Args:    cobra.ExactArgs(1),
		PreRunE: bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args[0])
		},
	}

	addEngineFlags(cmd)
	addFilterFlags(cmd)
	addCandidateFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "SQLite results database (default: print to stdout)")
	return cmd
}

func runSearch(ctx context.Context, spectraPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}
	engine, err := buildEngine(modDB)
	if err != nil {
		return err
	}
	settings := engine.Settings()

	spectra, err := readSpectra(spectraPath, modDB, filterFromConfig(settings.FragmentTol))
	if err != nil {
		return err
	}
	cands, err := loadCandidates()
	if err != nil {
		return err
	}

	consume, finish, err := newSink(settings)
	if err != nil {
		return err
	}

	start := time.Now()
	searched, matched := 0, 0
	runErr := engine.Run(ctx, spectra, cands, func(r search.Result) error {
		searched++
		if len(r.Matches) > 0 {
			matched++
		}
		return consume(r)
	})
	if err := finish(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("search complete",
		zap.Int("spectra", len(spectra)),
		zap.Int("searched", searched),
		zap.Int("matched", matched),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// newSink returns the result consumer for the configured output and a function that
// flushes it.
func newSink(settings search.Settings) (func(search.Result) error, func() error, error) {
	out := viper.GetString("out")
	if out == "" {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Spectrum\tRank\tSequence\tProtein\tScore\tUnmatched\tMassError\tModification")
		consume := func(r search.Result) error {
			for i, m := range r.Matches {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.2f\t%d\t%.4f\t%s\n",
					r.Spectrum.Name(), i+1, m.Sequence, m.Protein, m.Score, m.Unmatched, m.MassError, m.Modification)
			}
			return nil
		}
		return consume, tw.Flush, nil
	}

	dump, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling settings: %w", err)
	}
	w, err := sqlite.NewWriter(out, settings.Instrument.String(), string(dump))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output database: %w", err)
	}
	logger.Info("writing results", zap.String("out", out), zap.String("run", w.RunID()))

	consume := func(r search.Result) error {
		return w.WriteResult(r.Spectrum, r.Parent, r.Matches)
	}
	return consume, w.Finalize, nil
}
