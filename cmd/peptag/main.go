// PepTag - MS/MS peptide tag scoring
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/PepTag/cmd/peptag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
