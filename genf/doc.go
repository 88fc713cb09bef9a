// Package genf turns a specification into a system of generating-function
// equations and validates its solution against brute-force enumeration.
//
// Derive assigns one unknown F_i(x) per distinct class and one equation per
// class: unions add, decompositions multiply, recursive leaves reuse their
// ancestor's unknown, verified leaves take a registered closed form or stay
// as an opaque base series B_i(x).
//
// Solving is delegated to an Algebra. SeriesAlgebra is the built-in one: it
// iterates the system over truncated power series with exact rationals and
// reports no candidate when the iteration does not settle, which is what an
// ill-posed system such as F = x + F does.
//
// Deriver.GeneratingFunction accepts a candidate only if its series matches
// the enumerated counts term by term. A mismatch is core.ErrUnsoundRule and
// names the first formal step whose equation disagrees with the counts.
//
//	d, _ := genf.NewDeriver(enum, genf.WithClosedForms(forms))
//	res, err := d.GeneratingFunction(ctx, sp)
//	fmt.Println(res.System)        // F_0(x) = F_1(x) + F_2(x) ...
//	fmt.Println(res.Coefficients)  // [1 2 4 8 ...]
package genf
