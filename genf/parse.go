package genf

import (
	"math/big"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/pkg/errors"
)

// ParseClosedForm parses a closed form in x, such as "1/(1-2*x)" or
// "x*(1+x)^3". Supported: integer and decimal constants, the identifier x,
// binary + - * /, unary + -, and ** or ^ with a non-negative integer exponent.
func ParseClosedForm(s string) (Expr, error) {
	tree, err := parser.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%q: %v", s, err)
	}
	e, err := fromAST(tree.Node)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", s)
	}

	return e, nil
}

func fromAST(n ast.Node) (Expr, error) {
	switch n := n.(type) {
	case *ast.IntegerNode:
		return Int(int64(n.Value)), nil
	case *ast.FloatNode:
		r := new(big.Rat)
		if r.SetFloat64(n.Value) == nil {
			return nil, errors.Wrapf(ErrParse, "constant %v", n.Value)
		}

		return Const{Value: r}, nil
	case *ast.IdentifierNode:
		if n.Value != "x" {
			return nil, errors.Wrapf(ErrParse, "unknown identifier %q", n.Value)
		}

		return X{}, nil
	case *ast.UnaryNode:
		arg, err := fromAST(n.Node)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "-":
			return Neg{Arg: arg}, nil
		case "+":
			return arg, nil
		}

		return nil, errors.Wrapf(ErrParse, "unary operator %q", n.Operator)
	case *ast.BinaryNode:
		return fromBinary(n)
	default:
		return nil, errors.Wrapf(ErrParse, "unsupported expression %T", n)
	}
}

func fromBinary(n *ast.BinaryNode) (Expr, error) {
	left, err := fromAST(n.Left)
	if err != nil {
		return nil, err
	}
	if n.Operator == "**" || n.Operator == "^" {
		exp, ok := n.Right.(*ast.IntegerNode)
		if !ok || exp.Value < 0 {
			return nil, errors.Wrap(ErrParse, "exponent must be a non-negative integer")
		}

		return Pow{Arg: left, Exp: exp.Value}, nil
	}
	right, err := fromAST(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "+":
		return Add{Terms: []Expr{left, right}}, nil
	case "-":
		return Add{Terms: []Expr{left, Neg{Arg: right}}}, nil
	case "*":
		return Mul{Factors: []Expr{left, right}}, nil
	case "/":
		return Div{Num: left, Den: right}, nil
	default:
		return nil, errors.Wrapf(ErrParse, "binary operator %q", n.Operator)
	}
}
