package scanner

import (
	"bundlecore/internal/module"

	"github.com/tdewolff/parse/v2/js"
)

// nestedVisitor collects require() and import() calls anywhere inside a
// statement, and notes CommonJS and eval usage on the way.
type nestedVisitor struct {
	s       *AstScanner
	records []module.ImportRecordID
}

func (v *nestedVisitor) Enter(n js.INode) js.IVisitor {
	switch n := n.(type) {
	case *js.CallExpr:
		if rid, ok := v.s.scanCall(n); ok {
			v.records = append(v.records, rid)
		}
	case *js.Var:
		// Undeclared references only; a local named module or exports is
		// linked to its declaration.
		if n.Decl == js.NoDecl {
			switch string(n.Data) {
			case "module", "exports":
				v.s.usesCJS = true
			}
		}
	}
	return v
}

func (v *nestedVisitor) Exit(js.INode) {}

func (s *AstScanner) scanNested(n js.INode) []module.ImportRecordID {
	v := &nestedVisitor{s: s}
	js.Walk(v, n)
	return v.records
}

func (s *AstScanner) scanCall(call *js.CallExpr) (module.ImportRecordID, bool) {
	var name string
	switch callee := call.X.(type) {
	case *js.LiteralExpr:
		name = string(callee.Data)
	case *js.Var:
		if callee.Decl != js.NoDecl {
			return 0, false
		}
		name = string(callee.Data)
	default:
		return 0, false
	}

	switch name {
	case "import":
		if raw, ok := stringArg(call); ok {
			return s.addRecord(raw, module.ImportKindDynamicImport), true
		}
	case "require":
		if raw, ok := stringArg(call); ok && len(call.Args.List) == 1 {
			return s.addRecord(raw, module.ImportKindRequire), true
		}
	case "eval":
		s.sawEval = true
	}
	return 0, false
}

// stringArg returns the raw first argument when it is a plain string
// literal. Computed specifiers are not recorded.
func stringArg(call *js.CallExpr) ([]byte, bool) {
	if len(call.Args.List) == 0 {
		return nil, false
	}
	lit, ok := call.Args.List[0].Value.(*js.LiteralExpr)
	if !ok || lit.TokenType != js.StringToken {
		return nil, false
	}
	return lit.Data, true
}

func declNames(n js.INode) []string {
	switch n := n.(type) {
	case *js.VarDecl:
		var names []string
		for _, el := range n.List {
			names = append(names, bindingNames(el.Binding)...)
		}
		return names
	case *js.FuncDecl:
		if n.Name != nil {
			return []string{string(n.Name.Data)}
		}
	case *js.ClassDecl:
		if n.Name != nil {
			return []string{string(n.Name.Data)}
		}
	}
	return nil
}

func bindingNames(b js.IBinding) []string {
	switch b := b.(type) {
	case *js.Var:
		if b == nil {
			return nil
		}
		return []string{string(b.Data)}
	case *js.BindingArray:
		var names []string
		for _, el := range b.List {
			names = append(names, bindingNames(el.Binding)...)
		}
		return append(names, bindingNames(b.Rest)...)
	case *js.BindingObject:
		var names []string
		for _, item := range b.List {
			names = append(names, bindingNames(item.Value.Binding)...)
		}
		if b.Rest != nil {
			names = append(names, string(b.Rest.Data))
		}
		return names
	}
	return nil
}
