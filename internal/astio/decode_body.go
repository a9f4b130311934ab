package astio

import (
	"qllc/internal/ast"
)

func (d *decoder) expr(n *Node) ast.Expression {
	if n == nil {
		d.failf(&Node{}, "null expression")
		return nil
	}
	loc := d.loc(n)
	switch n.Kind {
	case "integer":
		return ast.NewInteger(n.Value, loc)
	case "text":
		e := &ast.TextLiteral{Value: n.Text}
		e.Loc = loc
		return e
	case "null":
		e := &ast.NullLiteral{}
		e.Loc = loc
		return e
	case "identifier":
		e := ast.NewIdentifier(n.Name, loc)
		if len(n.Types) > 0 {
			e.TypeArgs = d.types(n.Types)
		}
		return e
	case "binary":
		op, ok := ast.ParseBinaryOp(n.Op)
		if !ok {
			d.failf(n, "unknown binary operator %q", n.Op)
			return nil
		}
		if !d.required(n, n.Left, "left") || !d.required(n, n.Right, "right") {
			return nil
		}
		e := &ast.Binary{Op: op, Left: d.expr(n.Left), Right: d.expr(n.Right)}
		e.Loc = loc
		return e
	case "unary":
		op, ok := ast.ParseUnaryOp(n.Op)
		if !ok {
			d.failf(n, "unknown unary operator %q", n.Op)
			return nil
		}
		if !d.required(n, n.Expr, "expr") {
			return nil
		}
		e := &ast.Unary{Op: op, Operand: d.expr(n.Expr)}
		e.Loc = loc
		return e
	case "member", "arrow":
		if !d.required(n, n.Expr, "expr") {
			return nil
		}
		if n.Kind == "arrow" {
			e := &ast.Arrow{Expr: d.expr(n.Expr), Name: n.Name}
			e.Loc = loc
			return e
		}
		e := &ast.Member{Expr: d.expr(n.Expr), Name: n.Name}
		e.Loc = loc
		return e
	case "index":
		if !d.required(n, n.Left, "left") || !d.required(n, n.Right, "right") {
			return nil
		}
		e := &ast.Index{Expr: d.expr(n.Left), Index: d.expr(n.Right), Unsafe: n.Has(FlagUnsafe)}
		e.Loc = loc
		return e
	case "call":
		if !d.required(n, n.Expr, "expr") {
			return nil
		}
		e := &ast.Call{Callee: d.expr(n.Expr), Args: d.exprs(n.Args)}
		e.Loc = loc
		return e
	case "cast":
		if !d.required(n, n.Type, "type") || !d.required(n, n.Expr, "expr") {
			return nil
		}
		e := &ast.Cast{Target: d.typ(n.Type), Expr: d.expr(n.Expr)}
		e.Loc = loc
		return e
	case "sizeof":
		if !d.required(n, n.Type, "type") {
			return nil
		}
		e := &ast.SizeOf{Target: d.typ(n.Type)}
		e.Loc = loc
		return e
	case "new":
		if !d.required(n, n.Type, "type") {
			return nil
		}
		e := &ast.New{Target: d.typ(n.Type)}
		if n.Expr != nil {
			e.Count = d.expr(n.Expr)
		}
		e.Loc = loc
		return e
	case "struct-literal":
		if !d.required(n, n.Type, "type") {
			return nil
		}
		fields := make([]ast.FieldInit, 0, len(n.Members))
		for _, f := range n.Members {
			if f == nil || f.Kind != "field" || f.Expr == nil {
				d.failf(orEmpty(f), "expected a field node with an expr")
				continue
			}
			fields = append(fields, ast.FieldInit{Name: f.Name, Value: d.expr(f.Expr), Loc: d.loc(f)})
		}
		e := &ast.StructLiteral{Target: d.typ(n.Type), Fields: fields}
		e.Loc = loc
		return e
	case "array-literal":
		e := &ast.ArrayLiteral{Elems: d.exprs(n.Args)}
		e.Loc = loc
		return e
	}
	d.failf(n, "unknown expression kind %q", n.Kind)
	return nil
}

func (d *decoder) exprs(nodes []*Node) []ast.Expression {
	out := make([]ast.Expression, len(nodes))
	for i, n := range nodes {
		out[i] = d.expr(n)
	}
	return out
}

func (d *decoder) statements(nodes []*Node) []ast.Statement {
	out := make([]ast.Statement, 0, len(nodes))
	for _, n := range nodes {
		if s := d.statement(n); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) statement(n *Node) ast.Statement {
	if n == nil {
		d.failf(&Node{}, "null statement")
		return nil
	}
	loc := d.loc(n)
	switch n.Kind {
	case "expression":
		if !d.required(n, n.Expr, "expr") {
			return nil
		}
		s := &ast.ExpressionStatement{Expr: d.expr(n.Expr)}
		s.Loc = loc
		return s
	case "var":
		s := &ast.VarStatement{Name: n.Name}
		if n.Type != nil {
			s.Type = d.typ(n.Type)
		}
		if n.Expr != nil {
			s.Init = d.expr(n.Expr)
		}
		s.Loc = loc
		return s
	case "assign":
		if !d.required(n, n.Left, "left") || !d.required(n, n.Right, "right") {
			return nil
		}
		s := &ast.AssignStatement{Target: d.expr(n.Left), Value: d.expr(n.Right)}
		s.Loc = loc
		return s
	case "if":
		if !d.required(n, n.Cond, "cond") {
			return nil
		}
		s := &ast.IfStatement{Cond: d.expr(n.Cond), Then: d.statements(n.Body), Else: d.statements(n.Else)}
		s.Loc = loc
		return s
	case "while":
		if !d.required(n, n.Cond, "cond") {
			return nil
		}
		s := &ast.WhileStatement{Cond: d.expr(n.Cond), Body: d.statements(n.Body)}
		s.Loc = loc
		return s
	case "for":
		s := &ast.ForStatement{Body: d.statements(n.Body)}
		if n.Init != nil {
			s.Init = d.statement(n.Init)
		}
		if n.Cond != nil {
			s.Cond = d.expr(n.Cond)
		}
		if n.Step != nil {
			s.Step = d.statement(n.Step)
		}
		s.Loc = loc
		return s
	case "break":
		s := &ast.BreakStatement{}
		s.Loc = loc
		return s
	case "return":
		s := &ast.ReturnStatement{}
		if n.Expr != nil {
			s.Value = d.expr(n.Expr)
		}
		s.Loc = loc
		return s
	case "block":
		s := &ast.BlockStatement{Body: d.statements(n.Body)}
		s.Loc = loc
		return s
	case "delete":
		if !d.required(n, n.Expr, "expr") {
			return nil
		}
		s := &ast.DeleteStatement{Expr: d.expr(n.Expr)}
		s.Loc = loc
		return s
	}
	d.failf(n, "unknown statement kind %q", n.Kind)
	return nil
}
