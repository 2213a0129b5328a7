package scanner

import "github.com/tdewolff/parse/v2/js"

// stmtHasSideEffects is a conservative check: anything not known to be pure
// is treated as side-effecting.
func stmtHasSideEffects(n js.INode) bool {
	switch n := n.(type) {
	case *js.EmptyStmt, *js.DirectivePrologueStmt, *js.FuncDecl:
		return false
	case *js.ClassDecl:
		return n.Extends != nil && exprHasSideEffects(n.Extends)
	case *js.VarDecl:
		for _, el := range n.List {
			// Destructuring may invoke getters or iterators.
			if _, ok := el.Binding.(*js.Var); !ok {
				return true
			}
			if el.Default != nil && exprHasSideEffects(el.Default) {
				return true
			}
		}
		return false
	case *js.ExprStmt:
		return exprHasSideEffects(n.Value)
	default:
		return true
	}
}

func exprHasSideEffects(e js.IExpr) bool {
	switch e := e.(type) {
	case nil:
		return false
	case *js.Var, *js.LiteralExpr, *js.ArrowFunc, *js.FuncDecl:
		return false
	case *js.ClassDecl:
		return e.Extends != nil && exprHasSideEffects(e.Extends)
	case *js.GroupExpr:
		return exprHasSideEffects(e.X)
	case *js.UnaryExpr:
		switch e.Op {
		case js.DeleteToken, js.PreIncrToken, js.PreDecrToken, js.PostIncrToken, js.PostDecrToken:
			return true
		}
		return exprHasSideEffects(e.X)
	case *js.BinaryExpr:
		if isAssignment(e.Op) {
			return true
		}
		return exprHasSideEffects(e.X) || exprHasSideEffects(e.Y)
	case *js.CondExpr:
		return exprHasSideEffects(e.Cond) || exprHasSideEffects(e.X) || exprHasSideEffects(e.Y)
	case *js.CommaExpr:
		for _, item := range e.List {
			if exprHasSideEffects(item) {
				return true
			}
		}
		return false
	case *js.ArrayExpr:
		for _, el := range e.List {
			if el.Spread || exprHasSideEffects(el.Value) {
				return true
			}
		}
		return false
	case *js.ObjectExpr:
		for _, prop := range e.List {
			if prop.Spread {
				return true
			}
			if prop.Name != nil && prop.Name.Computed != nil && exprHasSideEffects(prop.Name.Computed) {
				return true
			}
			if exprHasSideEffects(prop.Value) || exprHasSideEffects(prop.Init) {
				return true
			}
		}
		return false
	case *js.TemplateExpr:
		if e.Tag != nil {
			return true
		}
		for _, part := range e.List {
			if exprHasSideEffects(part.Expr) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func isAssignment(op js.TokenType) bool {
	switch op {
	case js.EqToken, js.AddEqToken, js.SubEqToken, js.MulEqToken, js.DivEqToken, js.ModEqToken,
		js.ExpEqToken, js.LtLtEqToken, js.GtGtEqToken, js.GtGtGtEqToken, js.BitAndEqToken,
		js.BitOrEqToken, js.BitXorEqToken, js.AndEqToken, js.OrEqToken, js.NullishEqToken:
		return true
	}
	return false
}
