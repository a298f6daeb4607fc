package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinfit/internal/config"
	"github.com/san-kum/kinfit/internal/evaluate"
	"github.com/san-kum/kinfit/internal/experiment"
	"github.com/san-kum/kinfit/internal/kinetics"
	"github.com/san-kum/kinfit/internal/sim"
)

var (
	configFile string
	preset     string
	dataDir    string
	runsDir    string
	quiet      bool

	// evaluate
	saveRun bool
	// optimize
	generations int
	population  int
	seed        uint64
	workers     int
	resumeRun   string
	// scan
	scanLevels int
	// sensitivity and reduce
	sensOut    string
	topN       int
	delta      float64
	drop       int
	sampleN    int
	reduceOut  string
	exhaustive bool
	// plot
	pngOut    string
	plotGroup int
	plotPoint int
)

// main registers the kinfit commands and exits with status 1 when the
// selected command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "kinfit",
		Short:         "combustion kinetics error metrics and rate constant fitting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration (family/name)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "directory holding mechanism and datasets")
	rootCmd.PersistentFlags().StringVar(&runsDir, "runs", "", "run storage directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress simulation warnings")

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "score the mechanism against every dataset",
		Args:  cobra.NoArgs,
		RunE:  runEvaluate,
	}
	evaluateCmd.Flags().BoolVar(&saveRun, "save", false, "store results and trajectories as a run")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "rank reactions by sensitivity of the tracked species",
		Args:  cobra.NoArgs,
		RunE:  runSensitivity,
	}
	sensitivityCmd.Flags().StringVarP(&sensOut, "out", "o", "", "write coefficients to csv")
	sensitivityCmd.Flags().IntVar(&topN, "top", 10, "number of reactions to print")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "fit rate constant multipliers with a genetic algorithm",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().IntVar(&generations, "generations", 0, "number of generations")
	optimizeCmd.Flags().IntVar(&population, "population", 0, "population size")
	optimizeCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
	optimizeCmd.Flags().IntVar(&workers, "workers", 0, "parallel objective evaluations")
	optimizeCmd.Flags().StringVar(&resumeRun, "resume", "", "continue the run with this id from its latest checkpoint")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "grid search over rate constant multipliers",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	scanCmd.Flags().IntVar(&scanLevels, "levels", 3, "multiplier levels per target")

	reduceCmd := &cobra.Command{
		Use:   "reduce",
		Short: "build a skeletal mechanism",
		Args:  cobra.NoArgs,
		RunE:  runReduce,
	}
	reduceCmd.Flags().Float64Var(&delta, "delta", 0, "tolerated error increase")
	reduceCmd.Flags().IntVar(&drop, "drop", 0, "optional species to drop")
	reduceCmd.Flags().IntVar(&sampleN, "sample", 0, "evaluate at most this many species candidates")
	reduceCmd.Flags().StringVarP(&reduceOut, "out", "o", "", "skeletal mechanism output path")
	reduceCmd.Flags().BoolVar(&exhaustive, "exhaustive", false, "score every species candidate instead of evolving masks")
	reduceCmd.Flags().IntVar(&generations, "generations", 0, "species mask generations")
	reduceCmd.Flags().IntVar(&population, "population", 0, "species mask population size")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one ignition case, or the fitness history of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlot,
	}
	plotCmd.Flags().StringVar(&pngOut, "png", "", "also write a png")
	plotCmd.Flags().IntVar(&plotGroup, "group", 0, "group index")
	plotCmd.Flags().IntVar(&plotPoint, "point", 0, "point index")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(evaluateCmd, sensitivityCmd, optimizeCmd, scanCmd, reduceCmd, plotCmd, listCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig layers the configuration: file or preset, then environment,
// then command line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	case preset != "":
		family, name := "toy", preset
		if i := strings.IndexByte(preset, '/'); i >= 0 {
			family, name = preset[:i], preset[i+1:]
		}
		if cfg = config.GetPreset(family, name); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("runs") {
		cfg.RunsDir = runsDir
	}
	if flags.Changed("generations") {
		cfg.GA.Generations = generations
	}
	if flags.Changed("population") {
		cfg.GA.Population = population
	}
	if flags.Changed("seed") {
		cfg.GA.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.GA.Workers = workers
	}
	if flags.Changed("delta") {
		cfg.Reduction.Delta = delta
	}
	if flags.Changed("drop") {
		cfg.Reduction.Drop = drop
	}
	if flags.Changed("exhaustive") {
		cfg.Reduction.Exhaustive = exhaustive
	}
	if flags.Changed("out") && cmd.Name() == "reduce" {
		cfg.Reduction.Output = reduceOut
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

type inputs struct {
	mech *kinetics.Mechanism
	idt  []*experiment.IDTDataset
	pfr  []*experiment.PFRDataset
}

func loadInputs(cfg *config.Config) (*inputs, error) {
	mech, err := kinetics.LoadMechanism(cfg.MechanismPath())
	if err != nil {
		return nil, err
	}
	in := &inputs{mech: mech}
	for _, path := range cfg.IDTPaths() {
		ds, err := experiment.LoadIDT(path)
		if err != nil {
			return nil, err
		}
		in.idt = append(in.idt, ds)
	}
	for _, path := range cfg.PFRPaths() {
		ds, err := experiment.LoadPFR(path)
		if err != nil {
			return nil, err
		}
		in.pfr = append(in.pfr, ds)
	}
	if len(in.idt) == 0 && len(in.pfr) == 0 {
		return nil, evaluate.ErrNoDatasets
	}
	return in, nil
}

func (in *inputs) engine(cfg *config.Config) sim.Engine {
	return sim.FromKinetics(kinetics.NewEngine(in.mech, cfg.Tolerances))
}

// reductionObjective scores skeletal mechanisms on ignition delays only,
// blended with the reduction average rate.
func (in *inputs) reductionObjective(cfg *config.Config, m *kinetics.Mechanism) *evaluate.Objective {
	return &evaluate.Objective{
		Base:    m,
		Tol:     cfg.Tolerances,
		IDT:     in.idt,
		Options: evaluate.Options{AverageRate: cfg.Reduction.AverageRate, Logger: newLogger("sim: ")},
	}
}

func (in *inputs) objective(cfg *config.Config, m *kinetics.Mechanism, targets []int) *evaluate.Objective {
	return &evaluate.Objective{
		Base:    m,
		Targets: targets,
		Tol:     cfg.Tolerances,
		IDT:     in.idt,
		PFR:     in.pfr,
		Options: evaluate.Options{AverageRate: cfg.AverageRate, Logger: newLogger("sim: ")},
	}
}

func newLogger(prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	return log.New(w, prefix, log.LstdFlags)
}

// targets returns the configured target reactions, or all of them.
func targets(cfg *config.Config, m *kinetics.Mechanism) []int {
	if len(cfg.Targets) > 0 {
		return cfg.Targets
	}
	all := make([]int, m.NumReactions())
	for i := range all {
		all[i] = i
	}
	return all
}
