package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ChrisMcGann/PepTag/pkg/composition"
	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/digest"
	"github.com/ChrisMcGann/PepTag/pkg/filter"
	"github.com/ChrisMcGann/PepTag/pkg/modsearch"
	"github.com/ChrisMcGann/PepTag/pkg/reader/fasta"
	"github.com/ChrisMcGann/PepTag/pkg/reader/mgf"
	"github.com/ChrisMcGann/PepTag/pkg/reader/msp"
	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
	"github.com/ChrisMcGann/PepTag/pkg/search"
)

// addEngineFlags registers the scoring options shared by search and score.
func addEngineFlags(cmd *cobra.Command) {
	d := search.DefaultSettings()
	f := cmd.Flags()

	f.String("instrument", d.Instrument.String(), "Instrument class: "+strings.Join(scoretable.InstrumentNames(), ", "))
	f.String("ions", d.Biemann, "Ion types for the Generic class, e.g. 'a,b,y,i'")
	f.String("profiles", "", "TOML file of instrument score profiles overriding the built-in ones")
	f.String("parent-tol", d.ParentTol.String(), "Precursor mass tolerance (Da, ppm or %)")
	f.String("fragment-tol", d.FragmentTol.String(), "Fragment mass tolerance (Da, ppm or %)")
	f.Int("top-n", d.TopN, "Matches kept per spectrum (0 = all)")
	f.Int("max-unmatched", d.MaxUnmatched, "Reject candidates leaving more unmatched peaks (-1 = off)")
	f.Int("max-immonium-unmatched", d.MaxImmoniumUnmatched, "Reject candidates leaving more unmatched immonium peaks (-1 = off)")
	f.Bool("first-match-wins", d.FirstMatchWins, "Score each peak by the first matching ion type instead of the best")
	f.Bool("crosslink", d.Crosslink, "Score unmatched peaks as crosslinked fragments")
	f.Float64("crosslink-max", d.CrosslinkMax, "Largest crosslink contribution to a score")
	f.Float64("bridge-mass", d.BridgeMass, "Neutral mass the crosslinker adds between the two peptides")
	f.Int("internal-min-len", d.InternalMinLen, "Shortest internal fragment")
	f.Int("internal-max-len", d.InternalMaxLen, "Longest internal fragment (0 = no limit)")
	f.Int("workers", d.Workers, "Worker goroutines (0 = one per CPU)")

	f.String("mods", "", "Variable modifications, e.g. 'Oxidation@M;Acetyl@N-term'")
	f.String("mod-file", "", "CSV of extra modification definitions (mod,massshift,aa)")
	f.Bool("unknown-mod", false, "Allow one mass-only modification at a free terminus")
	f.Float64("unknown-mod-min", -100, "Smallest unknown modification mass")
	f.Float64("unknown-mod-max", 300, "Largest unknown modification mass")

	f.String("require", "", "Composition every candidate must carry, e.g. 'C,K,nterm'")
	f.String("exclude", "", "Composition no candidate may carry")
	f.String("policy", "and", "Combine required composition with 'and' or 'or'")
}

// addFilterFlags registers the spectrum preprocessing options.
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("format", "", "Spectrum format: msp or mgf (auto-detect if not specified)")
	f.Int("peaks", 0, "Keep only top N most intense peaks (0 = no limit)")
	f.Float64("cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	f.Float64("min-mz", 0, "Drop peaks below this m/z (0 = no limit)")
	f.Float64("max-mz", 0, "Drop peaks above this m/z (0 = no limit)")
	f.Bool("remove-precursor", false, "Drop peaks at the precursor and its water and ammonia losses")
	f.Bool("annotated-charges", false, "Take fragment charges from library annotations")
}

func settingsFromConfig() (search.Settings, error) {
	s := search.DefaultSettings()

	name := viper.GetString("instrument")
	inst, ok := scoretable.LookupInstrument(name)
	if !ok {
		logger.Sugar().Warnf("unknown instrument %q, using %s", name, inst)
	}
	s.Instrument = inst
	s.Biemann = viper.GetString("ions")

	var err error
	if s.ParentTol, err = core.ParseTolerance(viper.GetString("parent-tol")); err != nil {
		return s, fmt.Errorf("parent-tol: %w", err)
	}
	if s.FragmentTol, err = core.ParseTolerance(viper.GetString("fragment-tol")); err != nil {
		return s, fmt.Errorf("fragment-tol: %w", err)
	}

	s.TopN = viper.GetInt("top-n")
	s.MaxUnmatched = viper.GetInt("max-unmatched")
	s.MaxImmoniumUnmatched = viper.GetInt("max-immonium-unmatched")
	s.FirstMatchWins = viper.GetBool("first-match-wins")
	s.Crosslink = viper.GetBool("crosslink")
	s.CrosslinkMax = viper.GetFloat64("crosslink-max")
	s.BridgeMass = viper.GetFloat64("bridge-mass")
	s.InternalMinLen = viper.GetInt("internal-min-len")
	s.InternalMaxLen = viper.GetInt("internal-max-len")
	s.Workers = viper.GetInt("workers")
	return s, s.Validate()
}

func loadProfiles() (*scoretable.Profiles, error) {
	profiles := scoretable.DefaultProfiles()
	path := viper.GetString("profiles")
	if path == "" {
		return profiles, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles: %w", err)
	}
	defer f.Close()

	loaded, err := scoretable.LoadProfiles(f)
	if err != nil {
		return nil, fmt.Errorf("profiles %s: %w", path, err)
	}
	return profiles.Override(loaded), nil
}

func loadModDatabase() (*core.ModDatabase, error) {
	modDB := core.DefaultModDatabase()
	path := viper.GetString("mod-file")
	if path == "" {
		return modDB, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open modification file: %w", err)
	}
	defer f.Close()
	if err := modDB.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("modification file %s: %w", path, err)
	}
	return modDB, nil
}

// buildEngine assembles a search engine from the bound configuration.
func buildEngine(modDB *core.ModDatabase) (*search.Engine, error) {
	s, err := settingsFromConfig()
	if err != nil {
		return nil, err
	}
	profiles, err := loadProfiles()
	if err != nil {
		return nil, err
	}
	engine, err := search.NewEngine(s, profiles)
	if err != nil {
		return nil, err
	}
	engine.SetLogger(logger)

	policy, err := composition.ParsePolicy(viper.GetString("policy"))
	if err != nil {
		return nil, err
	}
	gate, err := composition.ParseGate(viper.GetString("require"), viper.GetString("exclude"), policy)
	if err != nil {
		return nil, err
	}
	engine.SetGate(gate)

	specs, err := modDB.ParseModSpecs(viper.GetString("mods"))
	if err != nil {
		return nil, err
	}
	unknown := modsearch.UnknownMod{
		Enabled: viper.GetBool("unknown-mod"),
		Min:     viper.GetFloat64("unknown-mod-min"),
		Max:     viper.GetFloat64("unknown-mod-max"),
	}
	if len(specs) > 0 || unknown.Enabled {
		p := modsearch.NewTableProvider(specs)
		p.Unknown = unknown
		engine.SetProvider(p)
	}

	logger.Debug("engine ready")
	return engine, nil
}

func filterFromConfig(fragmentTol core.Tolerance) *filter.Config {
	return &filter.Config{
		TopN:             viper.GetInt("peaks"),
		IntensityCutoff:  viper.GetFloat64("cutoff"),
		MinMZ:            viper.GetFloat64("min-mz"),
		MaxMZ:            viper.GetFloat64("max-mz"),
		RemovePrecursor:  viper.GetBool("remove-precursor"),
		AnnotatedCharges: viper.GetBool("annotated-charges"),
		FragmentTol:      fragmentTol,
	}
}

// spectrumReader is the streaming interface shared by the spectrum readers.
type spectrumReader interface {
	Next() bool
	Spectrum() *core.Spectrum
	Err() error
}

func detectFormat(path, format string) (string, error) {
	if format == "" {
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".msp":
			format = "msp"
		case ".mgf":
			format = "mgf"
		default:
			return "", fmt.Errorf("cannot auto-detect format from extension '%s', please specify --format", ext)
		}
	}
	format = strings.ToLower(format)
	if format != "msp" && format != "mgf" {
		return "", fmt.Errorf("invalid spectrum format '%s', must be msp or mgf", format)
	}
	return format, nil
}

// readSpectra loads and preprocesses every spectrum of a file. Spectra the filter rejects
// are logged and skipped.
func readSpectra(path string, modDB *core.ModDatabase, fc *filter.Config) ([]*core.Spectrum, error) {
	format, err := detectFormat(path, viper.GetString("format"))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spectra: %w", err)
	}
	defer f.Close()

	var r spectrumReader
	if format == "msp" {
		r = msp.NewReader(f, modDB)
	} else {
		r = mgf.NewReader(f)
	}

	var spectra []*core.Spectrum
	for r.Next() {
		spec := r.Spectrum()
		spec.SourceFile = path
		if err := fc.Apply(spec); err != nil {
			logger.Sugar().Warnf("failed to filter spectrum %s: %v", spec.Name(), err)
			continue
		}
		spectra = append(spectra, spec)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return spectra, nil
}

// addCandidateFlags registers the peptide source options.
func addCandidateFlags(cmd *cobra.Command) {
	d := digest.DefaultConfig()
	f := cmd.Flags()
	f.String("fasta", "", "Protein FASTA database to digest")
	f.String("peptides", "", "Peptide list, one sequence per line with an optional protein column")
	f.String("enzyme", d.Enzyme.Name, "Enzyme: trypsin, lys-c, arg-c, glu-c or none")
	f.Int("missed-cleavages", d.MissedCleavages, "Missed cleavages allowed")
	f.Int("min-length", d.MinLength, "Shortest peptide")
	f.Int("max-length", d.MaxLength, "Longest peptide")
	f.Float64("min-mass", d.MinMass, "Lightest peptide (0 = no limit)")
	f.Float64("max-mass", d.MaxMass, "Heaviest peptide (0 = no limit)")
	f.Bool("clip-met", d.ClipMethionine, "Also digest proteins without their initiator methionine")
}

func loadCandidates() (*search.CandidateSet, error) {
	var cands []search.Candidate

	if path := viper.GetString("peptides"); path != "" {
		list, err := readPeptideList(path)
		if err != nil {
			return nil, err
		}
		cands = append(cands, list...)
	}

	if path := viper.GetString("fasta"); path != "" {
		digested, err := digestFasta(path)
		if err != nil {
			return nil, err
		}
		cands = append(cands, digested...)
	}

	if len(cands) == 0 {
		return nil, fmt.Errorf("no candidate peptides: give --fasta or --peptides")
	}
	logger.Sugar().Infof("loaded %d candidate peptides", len(cands))
	return search.NewCandidateSet(cands), nil
}

func readPeptideList(path string) ([]search.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open peptide list: %w", err)
	}
	defer f.Close()

	var cands []search.Candidate
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		pep, err := core.ParsePeptide(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, lineNum, err)
		}
		c := search.Candidate{Peptide: pep}
		if len(fields) > 1 {
			c.Protein = fields[1]
		}
		cands = append(cands, c)
	}
	return cands, scanner.Err()
}

func digestFasta(path string) ([]search.Candidate, error) {
	enzyme, err := digest.ParseEnzyme(viper.GetString("enzyme"))
	if err != nil {
		return nil, err
	}
	cfg := digest.Config{
		Enzyme:          enzyme,
		MissedCleavages: viper.GetInt("missed-cleavages"),
		MinLength:       viper.GetInt("min-length"),
		MaxLength:       viper.GetInt("max-length"),
		MinMass:         viper.GetFloat64("min-mass"),
		MaxMass:         viper.GetFloat64("max-mass"),
		ClipMethionine:  viper.GetBool("clip-met"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FASTA: %w", err)
	}
	defer f.Close()

	// A peptide shared by several proteins is searched once, under its first protein
	seen := make(map[string]struct{})
	var cands []search.Candidate
	r := fasta.NewReader(f)
	proteins := 0
	for r.Next() {
		prot := r.Protein()
		proteins++
		for _, p := range cfg.Digest(prot.Sequence) {
			seq := p.Peptide.Sequence()
			if _, dup := seen[seq]; dup {
				continue
			}
			seen[seq] = struct{}{}
			cands = append(cands, search.Candidate{Peptide: p.Peptide, Protein: prot.Accession, Mass: p.Mass})
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	logger.Sugar().Debugf("digested %d proteins from %s", proteins, path)
	return cands, nil
}
