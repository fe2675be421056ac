package symbolic

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	x  = Var("x")
	y  = Var("y")
	a  = Param("a")
	b  = Param("b")
	tv = IndepVar("t")
)

func TestDerivativeOfFreeExpressionIsZero(t *testing.T) {
	exprs := []Expr{
		Num(3),
		y.Expr(),
		Mul(a.Expr(), y.Expr()),
		Sin(Add(y.Expr(), Num(1))),
		Pow(b.Expr(), Num(2)),
		D(y.Expr()),
	}
	for _, e := range exprs {
		d := Simplify(Derivative(e, x))
		if !IsZero(d) {
			t.Errorf("d/dx(%s): expected 0, got %s", e, d)
		}
	}
}

func TestDerivativeRules(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		wrt  Symbol
		want string
	}{
		{"power", Pow(x.Expr(), Num(2)), x, "2*x"},
		{"sin", Sin(x.Expr()), x, "cos(x)"},
		{"cos", Cos(x.Expr()), x, "-sin(x)"},
		{"chain", Exp(Mul(Num(2), x.Expr())), x, "2*exp(2*x)"},
		{"log", Log(x.Expr()), x, "x^-1"},
		{"linear", Add(Mul(a.Expr(), x.Expr()), Mul(b.Expr(), y.Expr())), y, "b"},
		{"product", Mul(x.Expr(), y.Expr()), x, "y"},
		{"monomial", Mul(Pow(x.Expr(), Num(3)), y.Expr()), x, "3*x^2*y"},
		{"self", x.Expr(), x, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(Derivative(tt.expr, tt.wrt)).String()
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDerivativeByIndependentVariable(t *testing.T) {
	e := Mul(Sin(tv.Expr()), x.Expr())
	got := Simplify(Derivative(e, tv))
	want := Simplify(Mul(Cos(tv.Expr()), x.Expr()))
	if !Equal(got, want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"collect", Add(x.Expr(), x.Expr()), "2*x"},
		{"coefficients", Add(Mul(Num(2), x.Expr()), Mul(Num(3), x.Expr())), "5*x"},
		{"square", Mul(x.Expr(), x.Expr()), "x^2"},
		{"add zero", Add(x.Expr(), Num(0)), "x"},
		{"mul zero", Mul(x.Expr(), Num(0)), "0"},
		{"cancel", Sub(x.Expr(), x.Expr()), "0"},
		{"fold", Add(Num(1), Num(2)), "3"},
		{"unit power", Pow(x.Expr(), Num(1)), "x"},
		{"scaled sum", Mul(Num(2), Add(x.Expr(), y.Expr())), "2*(x + y)"},
		{"fold function", Sin(Num(0)), "0"},
		{"exp log", Exp(Log(x.Expr())), "x"},
		{"order", Add(y.Expr(), x.Expr()), "x + y"},
		{"difference", Sub(a.Expr(), b.Expr()), "a - b"},
		{"inverse", Div(x.Expr(), x.Expr()), "1"},
		{"nested power", Pow(Pow(x.Expr(), Num(2)), Num(3)), "x^6"},
		{"constant differential", D(Num(4)), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Simplify(tt.expr).String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSimplifyIsFixedPoint(t *testing.T) {
	exprs := []Expr{
		Add(Mul(a.Expr(), x.Expr()), Mul(b.Expr(), y.Expr()), Num(2), Mul(a.Expr(), x.Expr())),
		Mul(Pow(x.Expr(), Num(2)), y.Expr(), x.Expr(), Num(-3)),
		Sub(Sin(x.Expr()), Mul(Num(2), Cos(y.Expr()))),
		Div(Add(x.Expr(), y.Expr()), Mul(a.Expr(), b.Expr())),
		Pow(Mul(Num(2), x.Expr()), Num(2)),
	}
	for _, e := range exprs {
		once := Simplify(e)
		twice := Simplify(once)
		if !Equal(once, twice) {
			t.Errorf("simplify not idempotent: %s then %s", once, twice)
		}
	}
}

func TestEqualAndHash(t *testing.T) {
	e1 := Add(Mul(a.Expr(), x.Expr()), Sin(y.Expr()))
	e2 := Add(Mul(Param("a").Expr(), Var("x").Expr()), Sin(Var("y").Expr()))
	if !Equal(e1, e2) {
		t.Fatal("expected structurally equal trees to be equal")
	}
	if Hash(e1) != Hash(e2) {
		t.Error("expected equal trees to hash equally")
	}

	if Equal(Var("x").Expr(), Param("x").Expr()) {
		t.Error("symbols of different kind must differ")
	}
	if !Equal(NewSymbol("x", KindUnknown, Integer).Expr(), x.Expr()) {
		t.Error("value type must not affect identity")
	}
	if !Equal(Num(0), Num(math.Copysign(0, -1))) || Hash(Num(0)) != Hash(Num(math.Copysign(0, -1))) {
		t.Error("expected -0 and 0 to be equal with equal hashes")
	}
	if Equal(Num(math.NaN()), Num(math.NaN())) {
		t.Error("NaN constants must not be equal")
	}
	if Equal(Add(x.Expr(), y.Expr()), Mul(x.Expr(), y.Expr())) {
		t.Error("different operators must differ")
	}
}

func TestUnique(t *testing.T) {
	in := []Expr{x.Expr(), Add(x.Expr(), y.Expr()), Var("x").Expr(), Add(Var("x").Expr(), y.Expr()), y.Expr()}
	out := Unique(in)
	got := make([]string, len(out))
	for i, e := range out {
		got[i] = e.String()
	}
	if diff := cmp.Diff([]string{"x", "x + y", "y"}, got); diff != "" {
		t.Errorf("unique mismatch (-want +got):\n%s", diff)
	}
}

func TestSubstituteAndRewrite(t *testing.T) {
	e := Add(Mul(a.Expr(), x.Expr()), Sin(y.Expr()))

	same := Rewrite(e, func(Symbol) Expr { return nil })
	if same != e {
		t.Error("rewrite without changes must share the input tree")
	}

	b := Bindings{}
	b.Set(x, Num(2))
	b.Set(a, Num(3))
	got := Simplify(Substitute(e, b))
	if got.String() != "6 + sin(y)" && got.String() != "sin(y) + 6" {
		t.Errorf("unexpected substitution result %s", got)
	}
	if !Contains(got, y) || Contains(got, x) {
		t.Errorf("expected only y to remain, got %s", got)
	}

	orig := e.(*Op).Args[1]
	sub := Substitute(e, b).(*Op)
	if sub.Args[1] != orig {
		t.Error("untouched subtree must be shared")
	}
}

func TestSymbols(t *testing.T) {
	e := Add(Mul(b.Expr(), y.Expr()), Mul(a.Expr(), x.Expr(), y.Expr()))
	var names []string
	for _, s := range Symbols(e) {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"b", "y", "a", "x"}, names); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestEval(t *testing.T) {
	e := Add(Mul(a.Expr(), x.Expr()), Pow(y.Expr(), Num(2)))
	env := func(s Symbol) (float64, bool) {
		switch s.Name {
		case "a":
			return 2, true
		case "x":
			return 3, true
		case "y":
			return 4, true
		}
		return 0, false
	}
	v, err := Eval(e, env)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if v != 22 {
		t.Errorf("expected 22, got %f", v)
	}

	_, err = Eval(Add(x.Expr(), Param("q").Expr()), env)
	if !errors.Is(err, ErrUnbound) {
		t.Errorf("expected ErrUnbound, got %v", err)
	}

	_, err = Eval(D(x.Expr()), env)
	if !errors.Is(err, ErrNotNumeric) {
		t.Errorf("expected ErrNotNumeric, got %v", err)
	}
}

func TestEquation(t *testing.T) {
	ode := Eq(D(x.Expr()), Mul(Neg(a.Expr()), x.Expr()))
	s, ok := ode.Differentiated()
	if !ok || !s.Equal(x) {
		t.Fatalf("expected differential equation in x, got %v %v", s, ok)
	}
	if ode.Output() != ode.RHS {
		t.Error("differential output must be the right-hand side")
	}

	alg := Eq(y.Expr(), Mul(Num(2), x.Expr()))
	if alg.IsDifferential() {
		t.Error("algebraic equation reported as differential")
	}
	if got := Simplify(alg.Output()).String(); got != "2*x - y" {
		t.Errorf("expected residual 2*x - y, got %s", got)
	}

	zero := Eq(Num(0), Sub(x.Expr(), y.Expr()))
	if zero.Residual() != zero.RHS {
		t.Error("0 ~ f residual must be f itself")
	}
}

func TestMatrixSparsity(t *testing.T) {
	m := NewMatrix(2, 2)
	m.Set(0, 0, a.Expr())
	m.Set(1, 1, Num(3))
	got := m.Sparsity()
	want := []Index{{0, 0}, {1, 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sparsity mismatch (-want +got):\n%s", diff)
	}
	if m.String() != "[[a, 0], [0, 3]]" {
		t.Errorf("unexpected matrix string %s", m)
	}
}

func TestApplyArity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for wrong arity")
		}
	}()
	Apply(OpPow, x.Expr())
}

func TestExpand(t *testing.T) {
	b := Bindings{}
	b.Set(y, Mul(Num(2), x.Expr()))
	b.Set(Var("z"), Add(y.Expr(), Num(1)))
	got := Simplify(Expand(Var("z").Expr(), b))
	if got.String() != "2*x + 1" {
		t.Errorf("expected 2*x + 1, got %s", got)
	}

	cyclic := Bindings{}
	cyclic.Set(x, y.Expr())
	cyclic.Set(y, x.Expr())
	if out := Expand(x.Expr(), cyclic); !IsLeaf(out) {
		t.Errorf("expected cyclic expansion to stop at a leaf, got %s", out)
	}
}
