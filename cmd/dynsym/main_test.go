package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/dynsym/internal/config"
	"github.com/san-kum/dynsym/internal/system"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := run(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, name := range []string{"lorenz", "pendulum", "coupled", "rosenbrock"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in output:\n%s", name, out)
		}
	}
}

func TestLoadPresetAndSets(t *testing.T) {
	in, err := load(config.DefaultConfig(), "pendulum", "small", map[string]string{"g": "1.62"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	vals := in.values()
	if vals["theta"] != 0.2 {
		t.Errorf("expected theta 0.2, got %f", vals["theta"])
	}
	if vals["g"] != 1.62 {
		t.Errorf("expected g 1.62, got %f", vals["g"])
	}
	if vals["m"] != 1.0 {
		t.Errorf("expected default m 1.0, got %f", vals["m"])
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Overrides["coupled"] = config.Overrides{
		U0: map[string]float64{"right₊x": -1},
		P:  map[string]float64{"left₊k": 3},
	}
	in, err := load(cfg, "coupled", "stiff", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	vals := in.values()
	if vals["right₊x"] != -1 {
		t.Errorf("expected right₊x -1, got %f", vals["right₊x"])
	}
	if vals["left₊k"] != 3 {
		t.Errorf("expected left₊k 3, got %f", vals["left₊k"])
	}
	if vals["kc"] != 50 {
		t.Errorf("expected preset kc 50, got %f", vals["kc"])
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := load(config.DefaultConfig(), "pendulum", "missing", nil); err == nil {
		t.Error("expected unknown preset error")
	}
	_, err := load(config.DefaultConfig(), "pendulum", "", map[string]string{"nope": "1"})
	if !errors.Is(err, system.ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Overrides["lorenz"] = config.Overrides{U0: map[string]float64{"rho": 1}}
	if _, err := load(cfg, "lorenz", "", nil); !errors.Is(err, system.ErrUnknownSymbol) {
		t.Errorf("expected parameter given as u0 to fail, got %v", err)
	}
	if _, err := load(config.DefaultConfig(), "pendulum", "", map[string]string{"g": "x"}); err == nil {
		t.Error("expected parse error")
	}
}

func TestEvalCommand(t *testing.T) {
	out, err := run(t, "eval", "lorenz", "--set", "rho=14")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	// x=y=z=1: dy = x(ρ-z) - y = 12
	if !strings.Contains(out, "12") {
		t.Errorf("expected dy 12 in output:\n%s", out)
	}

	out, err = run(t, "eval", "spring_mass", "w", "--gamma", "2")
	if err != nil {
		t.Fatalf("eval w failed: %v", err)
	}
	if !strings.Contains(out, "2") {
		t.Errorf("unexpected W:\n%s", out)
	}

	if _, err := run(t, "eval", "lorenz", "bogus"); err == nil {
		t.Error("expected unknown artifact error")
	}
}

func TestCodegenSaveAndArtifacts(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "codegen", "vanderpol", "jacobian", "--target", "go", "--sparse", "--save", "--data", dir)
	if err != nil {
		t.Fatalf("codegen failed: %v", err)
	}
	if !strings.Contains(out, "func Jacobian(out, u, p []float64, t float64)") {
		t.Errorf("unexpected source:\n%s", out)
	}

	out, err = run(t, "artifacts", "--data", dir)
	if err != nil {
		t.Fatalf("artifacts failed: %v", err)
	}
	if !strings.Contains(out, "vanderpol_jacobian_") || !strings.Contains(out, "sparse") {
		t.Errorf("expected stored artifact in listing:\n%s", out)
	}

	path := filepath.Join(dir, "rhs.go")
	if _, err := run(t, "codegen", "pendulum", "--observed", "-o", path); err != nil {
		t.Fatalf("codegen to file failed: %v", err)
	}
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "sweep", "spring_mass", "k", "--from", "0", "--to", "4", "--points", "5", "--output", "1", "--save", "--data", dir)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if !strings.Contains(out, "dv vs k") {
		t.Errorf("expected caption in output:\n%s", out)
	}

	if _, err := run(t, "sweep", "pendulum", "E"); err == nil {
		t.Error("expected observed output to be rejected")
	}
	if _, err := run(t, "sweep", "pendulum", "g", "--output", "7"); err == nil {
		t.Error("expected out of range output to be rejected")
	}
}

func TestDeriveCommand(t *testing.T) {
	out, err := run(t, "derive", "spring_mass", "mass")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if !strings.Contains(out, "[0,0] 1") || !strings.Contains(out, "[1,1] 1") {
		t.Errorf("unexpected mass matrix:\n%s", out)
	}

	if _, err := run(t, "derive", "lorenz", "gradient"); !errors.Is(err, system.ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape, got %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	out, err := run(t, "inspect", "coupled")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"left, right", "left₊F", "jacobian sparsity"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSimulateCommand(t *testing.T) {
	svg := filepath.Join(t.TempDir(), "phase.svg")
	out, err := run(t, "simulate", "spring_mass", "--duration", "1", "--dt", "0.01", "--plot", "0,1", "--svg", svg)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if !strings.Contains(out, "steps: 100") || !strings.Contains(out, "v vs time") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if data, err := os.ReadFile(svg); err != nil || !strings.Contains(string(data), "<path") {
		t.Errorf("expected svg trajectory, got %v", err)
	}

	dir := t.TempDir()
	if _, err := run(t, "simulate", "vanderpol", "--preset", "relaxation", "--integrator", "implicit_euler",
		"--duration", "2", "--save", "--data", dir); err != nil {
		t.Fatalf("implicit simulate failed: %v", err)
	}
	out, err = run(t, "artifacts", "--data", dir)
	if err != nil {
		t.Fatalf("artifacts failed: %v", err)
	}
	if !strings.Contains(out, "trajectory") {
		t.Errorf("expected stored trajectory:\n%s", out)
	}

	if _, err := run(t, "simulate", "coupled"); err == nil {
		t.Error("expected explicit integration of algebraic equations to be rejected")
	}
	if _, err := run(t, "simulate", "lorenz", "--plot", "9"); err == nil {
		t.Error("expected out of range plot index to be rejected")
	}
}

func TestMinimizeCommand(t *testing.T) {
	out, err := run(t, "minimize", "rosenbrock")
	if err != nil {
		t.Fatalf("minimize failed: %v", err)
	}
	if !strings.HasPrefix(out, "converged") {
		t.Errorf("expected convergence:\n%s", out)
	}

	out, err = run(t, "minimize", "rosenbrock", "--grid", "x=-2:2:5", "--grid", "y=-1:3:5")
	if err != nil {
		t.Fatalf("minimize with grid failed: %v", err)
	}
	if !strings.Contains(out, "loss: 0") {
		t.Errorf("expected the grid to hit the minimum:\n%s", out)
	}

	if _, err := run(t, "minimize", "lorenz"); !errors.Is(err, system.ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape, got %v", err)
	}
	if _, err := run(t, "minimize", "rosenbrock", "--grid", "a=0:1:2"); err == nil {
		t.Error("expected parameter grid to be rejected")
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("0:1:3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(r) != 3 || r[1] != 0.5 {
		t.Errorf("unexpected range %v", r)
	}
	for _, bad := range []string{"0:1", "a:1:2", "0:b:2", "0:1:c", "0:1:0"} {
		if _, err := parseRange(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
