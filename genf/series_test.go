package genf_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/combspec/genf"
)

func TestParseClosedForm_Coefficients(t *testing.T) {
	alg := genf.SeriesAlgebra{}
	cases := map[string][]int64{
		"1/(1-2*x)":    {1, 2, 4, 8, 16},
		"x*(1+x)**3":   {0, 1, 3, 3, 1},
		"(1+x)^2":      {1, 2, 1, 0, 0},
		"-x + 2":       {2, -1, 0, 0, 0},
		"+x":           {0, 1, 0, 0, 0},
		"0.5*x*2":      {0, 1, 0, 0, 0},
		"1/(1-x-x^2)":  {1, 1, 2, 3, 5},
		"x^0":          {1, 0, 0, 0, 0},
		"(x/(1-x))**2": {0, 0, 1, 2, 3},
	}
	for in, want := range cases {
		e, err := genf.ParseClosedForm(in)
		require.NoError(t, err, in)
		got, err := alg.SeriesCoefficients(e, 5)
		require.NoError(t, err, in)
		assert.Equal(t, ints(want...), got, in)
	}
}

func TestParseClosedForm_Errors(t *testing.T) {
	for _, in := range []string{"y", "x**x", "x^-1", "1 +", `"a" + 1`, "x % 2", "!x", "f(x)"} {
		_, err := genf.ParseClosedForm(in)
		assert.ErrorIs(t, err, genf.ErrParse, in)
	}
}

func TestSeriesCoefficients_Errors(t *testing.T) {
	alg := genf.SeriesAlgebra{}

	e, err := genf.ParseClosedForm("1/x")
	require.NoError(t, err)
	_, err = alg.SeriesCoefficients(e, 3)
	assert.ErrorIs(t, err, genf.ErrDivision)

	e, err = genf.ParseClosedForm("x/2")
	require.NoError(t, err)
	_, err = alg.SeriesCoefficients(e, 3)
	assert.ErrorIs(t, err, genf.ErrNotInteger)

	_, err = alg.SeriesCoefficients(genf.Symbol{Index: 0}, 3)
	assert.ErrorIs(t, err, genf.ErrUnboundSymbol)

	_, err = alg.SeriesCoefficients(genf.X{}, -1)
	assert.ErrorIs(t, err, genf.ErrOptionViolation)
}

func TestSeriesAlgebra_Solve(t *testing.T) {
	f := genf.Symbol{Index: 0, Class: "trees"}
	// binary trees by internal nodes: F = 1 + x*F^2
	eqs := []genf.Equation{{
		Left:  f,
		Right: genf.Add{Terms: []genf.Expr{genf.Int(1), genf.Mul{Factors: []genf.Expr{genf.X{}, genf.Pow{Arg: f, Exp: 2}}}}},
	}}
	alg := genf.SeriesAlgebra{Order: 6}

	sols, err := alg.Solve(eqs, []genf.Symbol{f})
	require.NoError(t, err)
	require.Len(t, sols, 1)
	got, err := alg.SeriesCoefficients(sols[0][f], 6)
	require.NoError(t, err)
	assert.Equal(t, ints(1, 1, 2, 5, 14, 42), got)
}

func TestSeriesAlgebra_NoFixedPoint(t *testing.T) {
	f := genf.Symbol{Index: 0, Class: "R"}
	eqs := []genf.Equation{{Left: f, Right: genf.Add{Terms: []genf.Expr{genf.X{}, f}}}}

	sols, err := genf.SeriesAlgebra{Order: 4}.Solve(eqs, []genf.Symbol{f})
	require.NoError(t, err)
	assert.Empty(t, sols)
}

func TestSeriesAlgebra_MalformedSystems(t *testing.T) {
	f := genf.Symbol{Index: 0, Class: "F"}
	g := genf.Symbol{Index: 1, Class: "G"}
	alg := genf.SeriesAlgebra{Order: 3}

	_, err := alg.Solve([]genf.Equation{{Left: f, Right: genf.X{}}, {Left: f, Right: genf.X{}}}, []genf.Symbol{f})
	assert.ErrorIs(t, err, genf.ErrSystem)

	_, err = alg.Solve([]genf.Equation{{Left: f, Right: g}}, []genf.Symbol{f, g})
	assert.ErrorIs(t, err, genf.ErrSystem)

	_, err = genf.SeriesAlgebra{}.Solve(nil, nil)
	assert.ErrorIs(t, err, genf.ErrOptionViolation)
}

func TestExpr_String(t *testing.T) {
	two := genf.Int(2)
	cases := []struct {
		want string
		e    genf.Expr
	}{
		{"1/(1 + -(2*x))", genf.Div{
			Num: genf.Int(1),
			Den: genf.Add{Terms: []genf.Expr{genf.Int(1), genf.Neg{Arg: genf.Mul{Factors: []genf.Expr{two, genf.X{}}}}}},
		}},
		{"(1 + x)^3", genf.Pow{Arg: genf.Add{Terms: []genf.Expr{genf.Int(1), genf.X{}}}, Exp: 3}},
		{"1 + 2*x + 4*x^3 + O(x^4)", genf.Series{Coeffs: []*big.Rat{big.NewRat(1, 1), big.NewRat(2, 1), new(big.Rat), big.NewRat(4, 1)}}},
		{"O(x^2)", genf.Series{Coeffs: []*big.Rat{new(big.Rat), new(big.Rat)}}},
		{"(1/2)*x", genf.Mul{Factors: []genf.Expr{genf.Const{Value: big.NewRat(1, 2)}, genf.X{}}}},
		{"B_3(x)", genf.Base{Index: 3}},
		{"0", genf.Add{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.e.String())
	}

	eq := genf.Equation{
		Left:  genf.Symbol{Index: 0},
		Right: genf.Add{Terms: []genf.Expr{genf.Symbol{Index: 1}, genf.Symbol{Index: 0}}},
	}
	assert.Equal(t, "F_0(x) = F_1(x) + F_0(x)", eq.String())
}
