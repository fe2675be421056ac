package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynsym/internal/codegen"
	"github.com/san-kum/dynsym/internal/dynamo"
	"github.com/san-kum/dynsym/internal/storage"
	"github.com/san-kum/dynsym/internal/symbolic"
)

func emitSource(cmd *cobra.Command, args []string) error {
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
	f, err := g.build(in.sys, opts)
	if err != nil {
		return err
	}
	src := f.Source()

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(src), 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", outFile, humanize.Bytes(uint64(len(src))))
	} else {
		fmt.Fprint(cmd.OutOrStdout(), src)
	}

	if !save {
		return nil
	}
	st, err := store()
	if err != nil {
		return err
	}
	id, err := st.Save(storage.Metadata{
		Model:    in.name,
		Kind:     kind,
		Function: f.Name,
		Target:   opts.Target.String(),
		Sparse:   f.Sparse,
		Rows:     f.Rows,
		Cols:     f.Cols,
		Defaults: in.values(),
	}, src, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved artifact %s\n", id)
	return nil
}

func sweepModel(cmd *cobra.Command, args []string) error {
	in, err := load(cfg, args[0], preset, sets)
	if err != nil {
		return err
	}
	sym, ok := in.sys.Find(args[1])
	if !ok || sym.Kind == symbolic.KindIndependent {
		return fmt.Errorf("cannot sweep %s: not an unknown or parameter of %s", args[1], in.name)
	}
	slot := indexOf(in.sys.Unknowns(), sym)
	if sym.Kind == symbolic.KindParameter {
		slot = indexOf(in.sys.Parameters(), sym)
	}
	if slot < 0 {
		return fmt.Errorf("cannot sweep observed output %s", sym.Name)
	}

	f, err := codegen.GenerateFunction(in.sys, codegen.Options{Observed: cfg.Observed})
	if err != nil {
		return err
	}
	ode, err := codegen.NewODE(f)
	if err != nil {
		return err
	}
	if sweepOutput < 0 || sweepOutput >= ode.StateDim() {
		return fmt.Errorf("output %d out of range [0, %d)", sweepOutput, ode.StateDim())
	}

	n := cfg.Sweep.Points
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = sweepFrom + (sweepTo-sweepFrom)*float64(i)/float64(n-1)
	}
	isParam := sym.Kind == symbolic.KindParameter
	out, err := dynamo.Sample(context.Background(), ode, n, dynamo.State(in.u0), dynamo.Params(in.p), cfg.Time,
		func(i int, x dynamo.State, p dynamo.Params) {
			if isParam {
				p[slot] = xs[i]
			} else {
				x[slot] = xs[i]
			}
		})
	if err != nil {
		return err
	}

	series := make([]float64, n)
	values := &storage.Values{Header: []string{sym.Name}}
	for k := 0; k < ode.StateDim(); k++ {
		values.Header = append(values.Header, outputLabel(in.sys, "function", k))
	}
	for i, dx := range out {
		series[i] = dx[sweepOutput]
		values.Rows = append(values.Rows, append([]float64{xs[i]}, dx...))
	}

	caption := fmt.Sprintf("%s vs %s in [%g, %g]", outputLabel(in.sys, "function", sweepOutput), sym.Name, sweepFrom, sweepTo)
	graph := asciigraph.Plot(series,
		asciigraph.Height(cfg.Sweep.Height),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(cmd.OutOrStdout(), graph)

	if !save {
		return nil
	}
	st, err := store()
	if err != nil {
		return err
	}
	id, err := st.Save(storage.Metadata{
		Model:    in.name,
		Kind:     "sweep",
		Function: f.Name,
		Target:   codegen.Native.String(),
		Rows:     f.Rows,
		Cols:     f.Cols,
		Defaults: in.values(),
	}, f.Source(), values)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved sweep %s\n", id)
	return nil
}

func indexOf(syms []symbolic.Symbol, s symbolic.Symbol) int {
	for i, x := range syms {
		if x.Equal(s) {
			return i
		}
	}
	return -1
}

func indexOfName(syms []symbolic.Symbol, name string) int {
	for i, x := range syms {
		if x.Name == name {
			return i
		}
	}
	return -1
}

func listArtifacts(cmd *cobra.Command, args []string) error {
	st, err := store()
	if err != nil {
		return err
	}
	arts, err := st.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(arts) == 0 {
		fmt.Fprintln(out, "no artifacts found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tKIND\tSHAPE\tTARGET\tSIZE\tCREATED")
	for _, a := range arts {
		shape := fmt.Sprintf("%dx%d", a.Rows, a.Cols)
		if a.Sparse {
			shape += " sparse"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID,
			a.Model,
			a.Kind,
			shape,
			a.Target,
			humanize.Bytes(uint64(a.SourceBytes)),
			humanize.Time(a.Timestamp),
		)
	}
	return w.Flush()
}

func showArtifact(cmd *cobra.Command, args []string) error {
	st, err := store()
	if err != nil {
		return err
	}
	src, err := st.LoadSource(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), src)
	return nil
}

func exportArtifact(cmd *cobra.Command, args []string) error {
	st, err := store()
	if err != nil {
		return err
	}
	if outFile != "" {
		return st.ExportFile(outFile, args[0])
	}
	return st.Export(cmd.OutOrStdout(), args[0])
}
