package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Print the resolved ion score tables of an instrument",
		Long: `Print the score of every searched ion type for each precursor charge bucket and
terminal basicity of an instrument class.

Examples:
  peptag tables --instrument ESI-Q-CID
  peptag tables --instrument ESI-TRAP-CID-low-res --charge 3`,
		Args:    cobra.NoArgs,
		PreRunE: bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables()
		},
	}

	cmd.Flags().String("instrument", scoretable.Generic.String(), "Instrument class: "+strings.Join(scoretable.InstrumentNames(), ", "))
	cmd.Flags().String("ions", "a,b,y", "Ion types for the Generic class")
	cmd.Flags().String("profiles", "", "TOML file of instrument score profiles overriding the built-in ones")
	cmd.Flags().Int("charge", 0, "Only this precursor charge (0 = all buckets)")
	return cmd
}

func runTables() error {
	inst, ok := scoretable.LookupInstrument(viper.GetString("instrument"))
	if !ok {
		return fmt.Errorf("unknown instrument %q", viper.GetString("instrument"))
	}
	profiles, err := loadProfiles()
	if err != nil {
		return err
	}
	ions, err := profiles.IonConfig(inst, viper.GetString("ions"))
	if err != nil {
		return err
	}
	resolver := scoretable.NewResolver(profiles, ions)
	for _, fb := range resolver.Fallbacks() {
		if fb == inst {
			fmt.Printf("# %s has no profile of its own, using %s scores\n", inst, scoretable.Generic)
		}
	}

	var buckets []scoretable.ChargeBucket
	if z := viper.GetInt("charge"); z > 0 {
		buckets = []scoretable.ChargeBucket{scoretable.BucketFor(z)}
	} else {
		for b := 0; b < scoretable.NumBuckets; b++ {
			buckets = append(buckets, scoretable.ChargeBucket(b))
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := []string{"Charge", "Basic"}
	for _, d := range ions.N {
		header = append(header, d.Name)
	}
	for _, d := range ions.C {
		header = append(header, d.Name)
	}
	header = append(header, "immonium", "internal", "crosslink", "unmatched")
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, b := range buckets {
		for _, basic := range []struct {
			n, c  bool
			label string
		}{{false, false, "-"}, {true, false, "N"}, {false, true, "C"}, {true, true, "NC"}} {
			t := resolver.Resolve(inst, b, basic.n, basic.c)
			row := []string{b.String(), basic.label}
			for _, s := range t.N {
				row = append(row, formatScore(s))
			}
			for _, s := range t.C {
				row = append(row, formatScore(s))
			}
			row = append(row, formatScore(t.Immonium), formatScore(t.Internal), formatScore(t.Crosslink), formatScore(t.Unmatched))
			fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
		}
	}
	return tw.Flush()
}

func formatScore(s float64) string {
	return fmt.Sprintf("%g", s)
}
