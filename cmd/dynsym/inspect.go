package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynsym/internal/codegen"
	"github.com/san-kum/dynsym/internal/symbolic"
	"github.com/san-kum/dynsym/internal/system"
)

var (
	cyan  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	white = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", cyan.Render(title))
}

func inspectModel(cmd *cobra.Command, args []string) error {
	in, err := load(cfg, args[0], preset, sets)
	if err != nil {
		return err
	}
	sys := in.sys
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%s %s\n", cyan.Render("system"), white.Render(sys.Name()))
	if iv, ok := sys.IndependentVariable(); ok {
		fmt.Fprintf(w, "%s %s\n", dim.Render("independent variable"), iv.Name)
	}
	if children := sys.Children(); len(children) > 0 {
		names := make([]string, len(children))
		for i, c := range children {
			names[i] = c.Name()
		}
		fmt.Fprintf(w, "%s %s\n", dim.Render("subsystems"), strings.Join(names, ", "))
	}

	section(w, "equations")
	for _, eq := range sys.Equations() {
		fmt.Fprintf(w, "  %s\n", eq)
	}
	if obs := sys.Observed(); len(obs) > 0 {
		section(w, "observed")
		for _, eq := range obs {
			fmt.Fprintf(w, "  %s\n", eq)
		}
	}
	if loss, ok := sys.Loss(); ok {
		section(w, "loss")
		fmt.Fprintf(w, "  %s\n", loss)
	}

	vals := in.values()
	section(w, "unknowns")
	for _, s := range sys.Unknowns() {
		fmt.Fprintf(w, "  %-16s %s\n", s.Name, dim.Render(fmt.Sprintf("%g", vals[s.Name])))
	}
	if params := sys.Parameters(); len(params) > 0 {
		section(w, "parameters")
		for _, s := range params {
			fmt.Fprintf(w, "  %-16s %s\n", s.Name, dim.Render(fmt.Sprintf("%g", vals[s.Name])))
		}
	}

	if len(sys.Equations()) == len(sys.Unknowns()) && len(sys.Unknowns()) > 0 {
		pattern, err := sys.JacobianSparsity()
		if err != nil {
			return err
		}
		n := len(sys.Unknowns())
		section(w, fmt.Sprintf("jacobian sparsity (%d of %d)", len(pattern), n*n))
		fmt.Fprint(w, sparsityGrid(n, pattern))
	}
	return nil
}

func sparsityGrid(n int, pattern []symbolic.Index) string {
	grid := make([][]byte, n)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(".", n))
	}
	for _, idx := range pattern {
		grid[idx.Row][idx.Col] = '*'
	}
	var b strings.Builder
	for _, row := range grid {
		b.WriteString("  ")
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}

func deriveArtifact(cmd *cobra.Command, args []string) error {
	in, err := load(cfg, args[0], "", nil)
	if err != nil {
		return err
	}
	sys := in.sys
	w := cmd.OutOrStdout()

	switch args[1] {
	case "function":
		for i, eq := range sys.Equations() {
			fmt.Fprintf(w, "[%d] %s\n", i, eq.Output())
		}
	case "tgrad":
		grad, err := sys.CalculateTimeGradient()
		if err != nil {
			return err
		}
		printVector(w, grad)
	case "gradient":
		grad, err := sys.CalculateGradient()
		if err != nil {
			return err
		}
		printVector(w, grad)
	case "jacobian":
		jac, err := sys.CalculateJacobian()
		if err != nil {
			return err
		}
		printMatrix(w, jac)
	case "hessian":
		hess, err := sys.CalculateHessian()
		if err != nil {
			return err
		}
		printMatrix(w, hess)
	case "observed":
		for _, eq := range sys.Observed() {
			fmt.Fprintf(w, "%s\n", eq)
		}
	case "mass":
		printMatrix(w, sys.MassMatrix())
	case "w":
		fact, err := sys.CalculateFactorizedW()
		if err != nil {
			return err
		}
		section(w, "W = γM - J")
		printMatrix(w, fact.W)
		section(w, "L")
		printMatrix(w, fact.L)
		section(w, "U")
		printMatrix(w, fact.U)
	default:
		return fmt.Errorf("unknown artifact: %s", args[1])
	}
	return nil
}

func printVector(w io.Writer, v []symbolic.Expr) {
	for i, e := range v {
		fmt.Fprintf(w, "[%d] %s\n", i, e)
	}
}

func printMatrix(w io.Writer, m *symbolic.Matrix) {
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if e := m.At(i, j); !symbolic.IsZero(e) {
				fmt.Fprintf(w, "[%d,%d] %s\n", i, j, e)
			}
		}
	}
}

func evalArtifact(cmd *cobra.Command, args []string) error {
	kind := "function"
	if len(args) > 1 {
		kind = args[1]
	}
	g, err := generatorFor(kind)
	if err != nil {
		return err
	}
	in, err := load(cfg, args[0], preset, sets)
	if err != nil {
		return err
	}
	opts, err := codegenOptions()
	if err != nil {
		return err
	}
	opts.Target = codegen.Native
	f, err := g.build(in.sys, opts)
	if err != nil {
		return err
	}

	a := in.args(g, cfg.Time, gamma)
	w := cmd.OutOrStdout()
	if f.Sparse {
		sp, err := f.SparseMatrix(a)
		if err != nil {
			return err
		}
		for k, v := range sp.Values {
			fmt.Fprintf(w, "[%d,%d] %g\n", sp.RowIdx[k], sp.ColIdx[k], v)
		}
		return nil
	}
	if f.Cols > 1 {
		m, err := f.Matrix(a)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%v\n", mat.Formatted(m, mat.Squeeze()))
		return nil
	}
	vals, err := f.Eval(a)
	if err != nil {
		return err
	}
	for i, v := range vals {
		fmt.Fprintf(w, "%-16s %g\n", outputLabel(in.sys, kind, i), v)
	}
	return nil
}

// outputLabel names output i after the unknown its row belongs to where
// there is one.
func outputLabel(sys *system.System, kind string, i int) string {
	var names []string
	switch kind {
	case "function", "tgrad":
		for k, eq := range sys.Equations() {
			if s, ok := eq.Differentiated(); ok {
				names = append(names, "d"+s.Name)
			} else {
				names = append(names, fmt.Sprintf("residual[%d]", k))
			}
		}
	case "gradient":
		for _, s := range sys.Unknowns() {
			names = append(names, "∂/∂"+s.Name)
		}
	case "observed":
		for _, eq := range sys.Observed() {
			names = append(names, eq.LHS.String())
		}
	}
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("out[%d]", i)
}
