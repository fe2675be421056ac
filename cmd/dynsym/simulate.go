package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynsym/internal/codegen"
	"github.com/san-kum/dynsym/internal/dynamo"
	"github.com/san-kum/dynsym/internal/export"
	"github.com/san-kum/dynsym/internal/integrators"
	"github.com/san-kum/dynsym/internal/optim"
	"github.com/san-kum/dynsym/internal/storage"
)

var (
	integrator string
	dt         float64
	duration   float64
	adaptive   bool
	plotVars   []int
	svgFile    string

	grid    map[string]string
	gradTol float64
	maxIter int
)

func addSimulateCmd(root *cobra.Command) {
	simulateCmd := &cobra.Command{
		Use:   "simulate [model]",
		Short: "integrate a model with its generated right-hand side",
		Args:  cobra.ExactArgs(1),
		RunE:  simulateModel,
	}
	addValueFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator ("+strings.Join(integrators.List(), ", ")+")")
	simulateCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	simulateCmd.Flags().Float64Var(&duration, "duration", 10.0, "duration")
	simulateCmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size (rk45)")
	simulateCmd.Flags().BoolVar(&observed, "observed", false, "evaluate observed equations as locals")
	simulateCmd.Flags().IntSliceVar(&plotVars, "plot", []int{0}, "unknown indices to plot")
	simulateCmd.Flags().BoolVar(&save, "save", false, "store the trajectory")
	simulateCmd.Flags().StringVar(&svgFile, "svg", "", "write the first plotted unknown against time, or the first two against each other, as SVG")

	minimizeCmd := &cobra.Command{
		Use:   "minimize [model]",
		Short: "minimize a model's loss with Newton's method on the generated gradient and Hessian",
		Args:  cobra.ExactArgs(1),
		RunE:  minimizeModel,
	}
	addValueFlags(minimizeCmd)
	minimizeCmd.Flags().StringToStringVar(&grid, "grid", nil, "search starting values on a grid (name=from:to:n)")
	minimizeCmd.Flags().Float64Var(&gradTol, "tol", 1e-8, "gradient norm tolerance")
	minimizeCmd.Flags().IntVar(&maxIter, "max-iter", 200, "maximum iterations")

	root.AddCommand(simulateCmd, minimizeCmd)
}

func applySimulateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Simulate.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Simulate.Dt = dt
	}
	if flags.Changed("duration") {
		cfg.Simulate.Duration = duration
	}
	if flags.Changed("adaptive") {
		cfg.Simulate.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Minimize.GradTol = gradTol
	}
	if flags.Changed("max-iter") {
		cfg.Minimize.MaxIter = maxIter
	}
}

// compileODE builds the dynamo.System for sys, with W solves when the
// integrator needs them.
func compileODE(in *instance, needsW bool) (dynamo.System, *codegen.Func, error) {
	opts := codegen.Options{Observed: cfg.Observed}
	f, err := codegen.GenerateFunction(in.sys, opts)
	if err != nil {
		return nil, nil, err
	}
	if !needsW {
		for _, eq := range in.sys.Equations() {
			if !eq.IsDifferential() {
				return nil, nil, fmt.Errorf("%s has algebraic equations; use implicit_euler", in.name)
			}
		}
		ode, err := codegen.NewODE(f)
		return ode, f, err
	}
	w, err := codegen.GenerateFactorizedW(in.sys, opts)
	if err != nil {
		return nil, nil, err
	}
	ode, err := codegen.NewStiffODE(f, w)
	return ode, f, err
}

func simulateModel(cmd *cobra.Command, args []string) error {
	applySimulateFlags(cmd)
	in, err := load(cfg, args[0], preset, sets)
	if err != nil {
		return err
	}
	integ, err := integrators.Get(cfg.Simulate.Integrator)
	if err != nil {
		return err
	}
	sys, f, err := compileODE(in, integrators.NeedsW(integ))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %s with %s...\n", in.name, cfg.Simulate.Integrator)
	start := time.Now()
	res, err := integrators.Run(context.Background(), integ, sys, in.u0, in.p, integrators.Config{
		Dt:        cfg.Simulate.Dt,
		Duration:  cfg.Simulate.Duration,
		T0:        cfg.Time,
		Adaptive:  cfg.Simulate.Adaptive,
		Tolerance: cfg.Simulate.Tolerance,
		MaxDt:     cfg.Simulate.Duration / 10,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "completed in %v\n", time.Since(start))
	fmt.Fprintf(out, "steps: %d\n\n", res.StepsTaken)

	unknowns := in.sys.Unknowns()
	for _, idx := range plotVars {
		if idx < 0 || idx >= len(unknowns) {
			return fmt.Errorf("plot index %d out of range [0, %d)", idx, len(unknowns))
		}
		data := make([]float64, len(res.States))
		for i, x := range res.States {
			data[i] = x[idx]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(cfg.Sweep.Height),
			asciigraph.Width(80),
			asciigraph.Caption(unknowns[idx].Name+" vs time"),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}

	if svgFile != "" {
		if err := writeSVG(svgFile, res); err != nil {
			return err
		}
	}

	final := res.States[len(res.States)-1]
	fmt.Fprintln(out, "final state:")
	for i, s := range unknowns {
		fmt.Fprintf(out, "  %-16s %g\n", s.Name, final[i])
	}

	if !save {
		return nil
	}
	values := &storage.Values{Header: []string{"time"}}
	for _, s := range unknowns {
		values.Header = append(values.Header, s.Name)
	}
	for i, x := range res.States {
		values.Rows = append(values.Rows, append([]float64{res.Times[i]}, x...))
	}
	st, err := store()
	if err != nil {
		return err
	}
	id, err := st.Save(storage.Metadata{
		Model:    in.name,
		Kind:     "trajectory",
		Function: f.Name,
		Target:   codegen.Native.String(),
		Rows:     f.Rows,
		Cols:     f.Cols,
		Defaults: in.values(),
	}, f.Source(), values)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved trajectory %s\n", id)
	return nil
}

func minimizeModel(cmd *cobra.Command, args []string) error {
	applySimulateFlags(cmd)
	in, err := load(cfg, args[0], preset, sets)
	if err != nil {
		return err
	}
	loss, err := codegen.GenerateLoss(in.sys, codegen.Options{})
	if err != nil {
		return err
	}
	grad, err := codegen.GenerateGradient(in.sys, codegen.Options{})
	if err != nil {
		return err
	}
	hess, err := codegen.GenerateHessian(in.sys, codegen.Options{})
	if err != nil {
		return err
	}

	prob := optim.Problem{
		Loss: func(x []float64) (float64, error) {
			v, err := loss.Vector(x, in.p, cfg.Time)
			if err != nil {
				return 0, err
			}
			return v[0], nil
		},
		Gradient: func(x []float64) ([]float64, error) {
			return grad.Vector(x, in.p, cfg.Time)
		},
		Hessian: func(x []float64) (*mat.Dense, error) {
			return hess.Matrix(codegen.Args{U: x, P: in.p, T: cfg.Time})
		},
	}

	ctx := context.Background()
	x0 := append([]float64(nil), in.u0...)
	if len(grid) > 0 {
		if x0, err = gridStart(ctx, cmd.ErrOrStderr(), in, prob, x0); err != nil {
			return err
		}
	}

	res, err := optim.Newton(ctx, prob, x0, optim.Settings{
		GradTol: cfg.Minimize.GradTol,
		MaxIter: cfg.Minimize.MaxIter,
		Armijo:  1e-4,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	status := "converged"
	if !res.Converged {
		status = "not converged"
	}
	fmt.Fprintf(out, "%s after %d iterations\n", status, res.Iterations)
	fmt.Fprintf(out, "loss: %g\n", res.Value)
	fmt.Fprintf(out, "|grad|: %g\n", res.GradNorm)
	for i, s := range in.sys.Unknowns() {
		fmt.Fprintf(out, "  %-16s %g\n", s.Name, res.X[i])
	}
	return nil
}

// gridStart picks the grid point with the lowest loss as the starting point.
func gridStart(ctx context.Context, w io.Writer, in *instance, prob optim.Problem, x0 []float64) ([]float64, error) {
	unknowns := in.sys.Unknowns()
	var names []string
	var ranges [][]float64
	for name, raw := range grid {
		if indexOfName(unknowns, name) < 0 {
			return nil, fmt.Errorf("cannot grid %s: not an unknown of %s", name, in.name)
		}
		r, err := parseRange(raw)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", name, err)
		}
		names = append(names, name)
		ranges = append(ranges, r)
	}

	point := func(p map[string]float64) []float64 {
		x := append([]float64(nil), x0...)
		for name, v := range p {
			x[indexOfName(unknowns, name)] = v
		}
		return x
	}
	best, val, err := optim.NewGridSearch(names, ranges).Search(ctx, func(p map[string]float64) (float64, error) {
		return prob.Loss(point(p))
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return x0, nil
	}
	fmt.Fprintf(w, "grid start %v (loss %g)\n", best, val)
	return point(best), nil
}

func parseRange(raw string) ([]float64, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("want from:to:n, got %q", raw)
	}
	from, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, err
	}
	to, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("need at least 1 point, got %d", n)
	}
	return optim.Linspace(from, to, n), nil
}

func writeSVG(path string, res *integrators.Result) error {
	column := func(idx int) []float64 {
		c := make([]float64, len(res.States))
		for i, x := range res.States {
			c[i] = x[idx]
		}
		return c
	}
	xs, ys := res.Times, column(plotVars[0])
	if len(plotVars) > 1 {
		xs, ys = ys, column(plotVars[1])
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return export.WriteTrajectory(file, export.Series(xs, ys), 800, 600, "#00ff00")
}
