package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynsym/internal/codegen"
	"github.com/san-kum/dynsym/internal/config"
	"github.com/san-kum/dynsym/internal/models"
	"github.com/san-kum/dynsym/internal/storage"
)

var (
	cfg *config.Config

	configFile string
	dataDir    string
	logLevel   string

	preset   string
	sets     map[string]string
	target   string
	pkgName  string
	sparse   bool
	observed bool
	simTime  float64
	gamma    float64
	outFile  string
	save     bool

	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
	sweepOutput int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dynsym",
		Short:         "symbolic equation systems compiled to numeric functions",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "artifact directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list models",
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Fprintf(out, "no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "show the flattened system",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectModel,
	}
	addValueFlags(inspectCmd)

	deriveCmd := &cobra.Command{
		Use:   "derive [model] [artifact]",
		Short: "print a symbolic derived artifact (function, tgrad, jacobian, gradient, hessian, observed, w, mass)",
		Args:  cobra.ExactArgs(2),
		RunE:  deriveArtifact,
	}

	evalCmd := &cobra.Command{
		Use:   "eval [model] [artifact]",
		Short: "evaluate a generated function at the resolved values",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  evalArtifact,
	}
	addValueFlags(evalCmd)
	addCodegenFlags(evalCmd)
	evalCmd.Flags().Float64Var(&simTime, "time", 0, "independent variable value")
	evalCmd.Flags().Float64Var(&gamma, "gamma", 1, "γ for w, wlower and wupper")

	codegenCmd := &cobra.Command{
		Use:   "codegen [model] [artifact]",
		Short: "emit Go source for a generated function",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  emitSource,
	}
	addValueFlags(codegenCmd)
	addCodegenFlags(codegenCmd)
	codegenCmd.Flags().StringVar(&target, "target", config.DefaultTarget, "target (native, go)")
	codegenCmd.Flags().StringVarP(&outFile, "out", "o", "", "write source to file")
	codegenCmd.Flags().BoolVar(&save, "save", false, "store the artifact")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model] [symbol]",
		Short: "plot one right-hand side output while sweeping a parameter or initial condition",
		Args:  cobra.ExactArgs(2),
		RunE:  sweepModel,
	}
	addValueFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "sweep end")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", config.DefaultSweepPoints, "number of points")
	sweepCmd.Flags().IntVar(&sweepOutput, "output", 0, "output index to plot")
	sweepCmd.Flags().Float64Var(&simTime, "time", 0, "independent variable value")
	sweepCmd.Flags().BoolVar(&save, "save", false, "store the sweep")

	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "list stored artifacts",
		RunE:  listArtifacts,
	}
	showCmd := &cobra.Command{
		Use:   "show [artifact_id]",
		Short: "print the source of a stored artifact",
		Args:  cobra.ExactArgs(1),
		RunE:  showArtifact,
	}
	exportCmd := &cobra.Command{
		Use:   "export [artifact_id]",
		Short: "export a stored artifact as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportArtifact,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")
	artifactsCmd.AddCommand(showCmd, exportCmd)

	rootCmd.AddCommand(listCmd, presetsCmd, inspectCmd, deriveCmd, evalCmd, codegenCmd, sweepCmd, artifactsCmd)
	addSimulateCmd(rootCmd)
	return rootCmd
}

func addValueFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset values")
	cmd.Flags().StringToStringVar(&sets, "set", nil, "override a value by qualified name (name=value)")
}

func addCodegenFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&sparse, "sparse", false, "keep only structurally nonzero entries")
	cmd.Flags().BoolVar(&observed, "observed", false, "evaluate observed equations as locals")
	cmd.Flags().StringVar(&pkgName, "package", "generated", "package clause of generated source")
}

// loadConfig reads the config file if given; flags set on the command line
// override its values.
func loadConfig(cmd *cobra.Command) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("target") {
		cfg.Target = target
	}
	if flags.Changed("package") {
		cfg.Package = pkgName
	}
	if flags.Changed("sparse") {
		cfg.Sparse = sparse
	}
	if flags.Changed("observed") {
		cfg.Observed = observed
	}
	if flags.Changed("time") {
		cfg.Time = simTime
	}
	if flags.Changed("points") {
		cfg.Sweep.Points = sweepPoints
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	setupLogger(cmd.ErrOrStderr(), level)
	return nil
}

func codegenOptions() (codegen.Options, error) {
	t, err := codegen.ParseTarget(cfg.Target)
	if err != nil {
		return codegen.Options{}, err
	}
	return codegen.Options{
		Target:   t,
		Sparse:   cfg.Sparse,
		Observed: cfg.Observed,
		Package:  cfg.Package,
	}, nil
}

func listModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tDESCRIPTION\tPRESETS")
	for _, m := range models.NewRegistry().List() {
		fmt.Fprintf(w, "%s\t%s\t%d\n", m.Name, m.Description, len(config.ListPresets(m.Name)))
	}
	return w.Flush()
}

func store() (*storage.Store, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
