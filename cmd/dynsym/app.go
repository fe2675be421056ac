package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/san-kum/dynsym/internal/binding"
	"github.com/san-kum/dynsym/internal/codegen"
	"github.com/san-kum/dynsym/internal/config"
	"github.com/san-kum/dynsym/internal/models"
	"github.com/san-kum/dynsym/internal/symbolic"
	"github.com/san-kum/dynsym/internal/system"
)

func setupLogger(w io.Writer, level slog.Level) {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    noColor,
		}),
	))
}

// instance is a built model with its numeric initial conditions and
// parameters resolved.
type instance struct {
	name string
	sys  *system.System
	u0   []float64
	p    []float64
}

// load builds model and resolves its values from, in increasing priority,
// the model defaults, the named preset, the config overrides and sets.
func load(cfg *config.Config, model, preset string, sets map[string]string) (*instance, error) {
	sys, err := models.NewRegistry().Get(model)
	if err != nil {
		return nil, err
	}

	o := config.Overrides{}
	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		o = o.Merge(*p)
	}
	o = o.Merge(cfg.OverridesFor(model))

	varmap, err := bindOverrides(sys, o)
	if err != nil {
		return nil, err
	}
	for name, raw := range sets {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		sym, ok := sys.Find(name)
		if !ok || sym.Kind == symbolic.KindIndependent {
			return nil, &system.UnknownSymbolError{System: sys.Name(), Name: name}
		}
		varmap.Set(sym, symbolic.Num(v))
	}

	defaults := sys.Defaults()
	u0, err := binding.Resolve(varmap, sys.Unknowns(), defaults)
	if err != nil {
		return nil, fmt.Errorf("initial conditions: %w", err)
	}
	p, err := binding.Resolve(varmap, sys.Parameters(), defaults)
	if err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}
	slog.Debug("loaded model", "model", model, "preset", preset, "unknowns", len(u0), "params", len(p))
	return &instance{name: model, sys: sys, u0: u0, p: p}, nil
}

func bindOverrides(sys *system.System, o config.Overrides) (binding.Map, error) {
	varmap := binding.Map{}
	groups := []struct {
		values map[string]float64
		kind   symbolic.SymbolKind
	}{
		{o.U0, symbolic.KindUnknown},
		{o.P, symbolic.KindParameter},
	}
	for _, g := range groups {
		for name, v := range g.values {
			sym, ok := sys.Find(name)
			if !ok || sym.Kind != g.kind {
				return nil, &system.UnknownSymbolError{System: sys.Name(), Name: name}
			}
			varmap.Set(sym, symbolic.Num(v))
		}
	}
	return varmap, nil
}

// values maps every qualified unknown and parameter name to its resolved
// value.
func (in *instance) values() map[string]float64 {
	out := map[string]float64{}
	for i, s := range in.sys.Unknowns() {
		if i < len(in.u0) {
			out[s.Name] = in.u0[i]
		}
	}
	for i, s := range in.sys.Parameters() {
		if i < len(in.p) {
			out[s.Name] = in.p[i]
		}
	}
	return out
}

type generator struct {
	build func(*system.System, codegen.Options) (*codegen.Func, error)
	// gamma marks functions taking γ as their extra argument.
	gamma bool
}

func wPart(pick func(*codegen.W) *codegen.Func) func(*system.System, codegen.Options) (*codegen.Func, error) {
	return func(sys *system.System, opts codegen.Options) (*codegen.Func, error) {
		w, err := codegen.GenerateFactorizedW(sys, opts)
		if err != nil {
			return nil, err
		}
		return pick(w), nil
	}
}

var generators = map[string]generator{
	"function": {build: codegen.GenerateFunction},
	"tgrad":    {build: codegen.GenerateTimeGradient},
	"jacobian": {build: codegen.GenerateJacobian},
	"gradient": {build: codegen.GenerateGradient},
	"hessian":  {build: codegen.GenerateHessian},
	"observed": {build: codegen.GenerateObserved},
	"w":        {build: wPart(func(w *codegen.W) *codegen.Func { return w.Matrix }), gamma: true},
	"wlower":   {build: wPart(func(w *codegen.W) *codegen.Func { return w.Lower }), gamma: true},
	"wupper":   {build: wPart(func(w *codegen.W) *codegen.Func { return w.Upper }), gamma: true},
}

func generatorFor(kind string) (generator, error) {
	g, ok := generators[kind]
	if !ok {
		return generator{}, fmt.Errorf("unknown artifact: %s (available: %v)", kind, artifactKinds())
	}
	return g, nil
}

func artifactKinds() []string {
	kinds := make([]string, 0, len(generators))
	for k := range generators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (in *instance) args(g generator, t, gamma float64) codegen.Args {
	a := codegen.Args{U: in.u0, P: in.p, T: t}
	if g.gamma {
		a.Extra = []float64{gamma}
	}
	return a
}
