package binding_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynsym/internal/binding"
	"github.com/san-kum/dynsym/internal/symbolic"
)

var _ = Describe("Resolve", func() {
	var (
		x, y, k, m symbolic.Symbol
		defaults   symbolic.Bindings
	)

	BeforeEach(func() {
		x, y = symbolic.Var("x"), symbolic.Var("y")
		k, m = symbolic.Param("k"), symbolic.Param("m")
		defaults = symbolic.Bindings{}
		defaults.Set(k, symbolic.Num(2))
		defaults.Set(m, symbolic.Num(1))
	})

	It("orders values by the variable list", func() {
		vals, err := binding.Resolve(binding.Map{
			y.ID(): symbolic.Num(4),
			x.ID(): symbolic.Num(3),
		}, []symbolic.Symbol{x, y}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]float64{3, 4}))
	})

	It("prefers caller values over defaults", func() {
		vals, err := binding.Resolve(binding.Map{k.ID(): symbolic.Num(10)}, []symbolic.Symbol{k, m}, defaults)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]float64{10, 1}))
	})

	It("resolves values that depend on other bindings", func() {
		b := symbolic.Bindings{}
		b.Set(m, symbolic.Mul(symbolic.Num(3), k.Expr()))
		b.Set(k, symbolic.Add(x.Expr(), symbolic.Num(1)))
		vals, err := binding.Resolve(binding.Map{x.ID(): symbolic.Num(1)}, []symbolic.Symbol{m, k, x}, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]float64{6, 2, 1}))
	})

	It("follows caller overrides through dependent defaults", func() {
		b := symbolic.Bindings{}
		b.Set(k, symbolic.Num(2))
		b.Set(m, symbolic.Mul(symbolic.Num(2), k.Expr()))
		vals, err := binding.Resolve(binding.Map{k.ID(): symbolic.Num(5)}, []symbolic.Symbol{m}, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]float64{10}))
	})

	It("reports every missing symbol in variable-list order", func() {
		z := symbolic.Var("z")
		_, err := binding.Resolve(binding.Map{y.ID(): symbolic.Num(1)}, []symbolic.Symbol{z, y, x}, nil)
		Expect(err).To(MatchError(binding.ErrMissingVariables))

		var mve *binding.MissingVariablesError
		Expect(errors.As(err, &mve)).To(BeTrue())
		Expect(mve.Missing).To(HaveLen(2))
		Expect(mve.Missing[0].Name).To(Equal("z"))
		Expect(mve.Missing[1].Name).To(Equal("x"))
		Expect(err.Error()).To(ContainSubstring("z, x"))
	})

	It("treats values that stay symbolic as missing", func() {
		b := symbolic.Bindings{}
		b.Set(x, y.Expr())
		b.Set(y, x.Expr())
		_, err := binding.Resolve(nil, []symbolic.Symbol{x}, b)
		Expect(err).To(MatchError(binding.ErrMissingVariables))
	})

	It("passes through when no input is given", func() {
		vals, err := binding.Resolve(nil, []symbolic.Symbol{x}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(BeNil())

		var none binding.Map
		vals, err = binding.Resolve(none, []symbolic.Symbol{x}, symbolic.Bindings{})
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(BeNil())
	})

	It("resolves an empty map like any other input", func() {
		_, err := binding.Resolve(binding.Map{}, []symbolic.Symbol{x, k}, symbolic.Bindings{})
		Expect(err).To(MatchError(binding.ErrMissingVariables))

		var mve *binding.MissingVariablesError
		Expect(errors.As(err, &mve)).To(BeTrue())
		Expect(mve.Missing).To(Equal([]symbolic.Symbol{x, k}))
	})

	It("keys entries by symbol identity regardless of value type", func() {
		m := binding.Map{}
		m.Set(symbolic.NewSymbol("x", symbolic.KindUnknown, symbolic.Integer), symbolic.Num(1))
		m.Set(x, symbolic.Num(2))
		Expect(m.Len()).To(Equal(1))

		vals, err := binding.Resolve(m, []symbolic.Symbol{x}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]float64{2}))
	})

	It("reaches a fixed point", func() {
		varlist := []symbolic.Symbol{x, k}
		vals, err := binding.Resolve(binding.Map{x.ID(): symbolic.Num(7)}, varlist, defaults)
		Expect(err).NotTo(HaveOccurred())

		again, err := binding.Resolve(binding.Zip(varlist, vals), varlist, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(vals))
	})
})

var _ = Describe("ResolvePairs", func() {
	x, y := symbolic.Var("x"), symbolic.Var("y")

	It("returns one pair per variable", func() {
		out, err := binding.ResolvePairs(binding.Pairs{
			{Symbol: y, Value: symbolic.Num(2)},
			{Symbol: x, Value: symbolic.Mul(symbolic.Num(3), y.Expr())},
		}, []symbolic.Symbol{x, y}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(2))
		Expect(out[0].Symbol.Name).To(Equal("x"))
		v, ok := symbolic.Value(out[0].Value)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(6.0))
	})

	It("lets a later pair override an earlier one", func() {
		out, err := binding.ResolvePairs(binding.Pairs{
			{Symbol: x, Value: symbolic.Num(1)},
			{Symbol: x, Value: symbolic.Num(9)},
		}, []symbolic.Symbol{x}, nil)
		Expect(err).NotTo(HaveOccurred())
		v, _ := symbolic.Value(out[0].Value)
		Expect(v).To(Equal(9.0))
	})

	It("returns nil input unchanged", func() {
		out, err := binding.ResolvePairs(nil, []symbolic.Symbol{x}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeNil())
	})

	It("reports every variable missing from empty input", func() {
		_, err := binding.ResolvePairs(binding.Pairs{}, []symbolic.Symbol{x, y}, nil)
		var mve *binding.MissingVariablesError
		Expect(errors.As(err, &mve)).To(BeTrue())
		Expect(mve.Missing).To(Equal([]symbolic.Symbol{x, y}))
	})
})
