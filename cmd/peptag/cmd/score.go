package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [spectra] [peptide...]",
		Short: "Score given peptides against every spectrum",
		Long: `Score one or more peptide sequences against each spectrum of a file, reporting
every accepted interpretation including modified variants.

Examples:
  peptag score run.mgf PEPTIDEK PEPmIDEK
  peptag score library.msp SAMPLER --instrument ESI-ETD-high-res --fragment-tol 10ppm`,
		Args:    cobra.MinimumNArgs(2),
		PreRunE: bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(args[0], args[1:])
		},
	}

	addEngineFlags(cmd)
	addFilterFlags(cmd)
	return cmd
}

func runScore(spectraPath string, seqs []string) error {
	peps := make([]core.Peptide, len(seqs))
	for i, s := range seqs {
		p, err := core.ParsePeptide(s)
		if err != nil {
			return err
		}
		peps[i] = p
	}

	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}
	engine, err := buildEngine(modDB)
	if err != nil {
		return err
	}
	spectra, err := readSpectra(spectraPath, modDB, filterFromConfig(engine.Settings().FragmentTol))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Spectrum\tPeptide\tSequence\tScore\tUnmatched\tMassError\tModification")
	for _, spec := range spectra {
		sess, err := engine.NewSession(spec)
		if err != nil {
			logger.Sugar().Warnf("skipping spectrum %s: %v", spec.Name(), err)
			continue
		}
		for i, pep := range peps {
			matches := sess.Score(pep)
			if len(matches) == 0 {
				fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\trejected\n", spec.Name(), seqs[i])
				continue
			}
			for _, m := range matches {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%.4f\t%s\n",
					spec.Name(), seqs[i], m.Sequence, m.Score, m.Unmatched, m.MassError, m.Modification)
			}
		}
	}
	return tw.Flush()
}
