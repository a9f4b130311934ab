package astio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"qllc/internal/ast"
	"qllc/internal/source"
	"qllc/internal/types"
)

// Error is a malformed node; it carries the node's location.
type Error struct {
	Loc *source.Location
	Msg string
}

func (e *Error) Error() string {
	if e.Loc == nil {
		return e.Msg
	}
	return e.Loc.String() + ": " + e.Msg
}

// Decode reads one translation unit from r.
func Decode(r io.Reader, format Format) ([]ast.Declaration, error) {
	var nodes []*Node
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&nodes); err != nil {
			return nil, fmt.Errorf("decode json unit: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&nodes); err != nil {
			return nil, fmt.Errorf("decode msgpack unit: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported unit format %s", format)
	}
	return Build(nodes)
}

// Encode writes nodes as one translation unit.
func Encode(w io.Writer, nodes []*Node, format Format) error {
	switch format {
	case FormatJSON:
		return json.NewEncoder(w).Encode(nodes)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(nodes)
	}
	return fmt.Errorf("unsupported unit format %s", format)
}

// Build converts decoded nodes into declarations.
func Build(nodes []*Node) ([]ast.Declaration, error) {
	d := &decoder{}
	decls := d.declarations(nodes)
	if d.err != nil {
		return nil, d.err
	}
	return decls, nil
}

// decoder keeps the first error; later calls keep going on zero values so
// the builders stay linear.
type decoder struct {
	err  error
	file string
}

func (d *decoder) loc(n *Node) *source.Location {
	if n.File != "" {
		d.file = n.File
	}
	return source.At(d.file, n.Line, n.Column)
}

func (d *decoder) failf(n *Node, format string, args ...any) {
	if d.err == nil {
		d.err = &Error{Loc: d.loc(n), Msg: fmt.Sprintf(format, args...)}
	}
}

// required reports a missing child of n.
func (d *decoder) required(n, child *Node, field string) bool {
	if child == nil {
		d.failf(n, "%s node without %s", n.Kind, field)
		return false
	}
	return true
}

func (d *decoder) declarations(nodes []*Node) []ast.Declaration {
	out := make([]ast.Declaration, 0, len(nodes))
	for _, n := range nodes {
		if decl := d.declaration(n); decl != nil {
			out = append(out, decl)
		}
	}
	return out
}

func (d *decoder) declaration(n *Node) ast.Declaration {
	if n == nil {
		d.failf(&Node{}, "null declaration")
		return nil
	}
	loc := d.loc(n)
	switch n.Kind {
	case "type":
		if !d.required(n, n.Type, "type") {
			return nil
		}
		if len(n.TypeParams) > 0 {
			return &ast.TemplateTypeDeclaration{Name: n.Name, Params: n.TypeParams, Type: d.typ(n.Type), Loc: loc}
		}
		return &ast.TypeDeclaration{Name: n.Name, Type: d.typ(n.Type), Loc: loc}
	case "global":
		g := &ast.GlobalDeclaration{Name: n.Name, Exported: n.Has(FlagExported), Loc: loc}
		if n.Type != nil {
			g.Type = d.typ(n.Type)
		}
		if n.Expr != nil {
			g.Init = d.expr(n.Expr)
		}
		return g
	case "function":
		params := d.params(n.Args)
		ret := types.Type(types.Void)
		if n.Type != nil {
			ret = d.typ(n.Type)
		}
		body := d.statements(n.Body)
		if len(n.TypeParams) > 0 {
			return &ast.TemplateFunctionDeclaration{
				Name: n.Name, TypeParams: n.TypeParams, Params: params, Return: ret, Body: body, Loc: loc,
			}
		}
		return &ast.FunctionDeclaration{
			Name: n.Name, Params: params, Return: ret, Body: body,
			Exported: n.Has(FlagExported), Interrupt: n.Has(FlagInterrupt), Loc: loc,
		}
	case "using":
		return &ast.UsingDeclaration{Namespace: n.Name, Loc: loc}
	case "namespace":
		return &ast.NamespaceDeclaration{Name: n.Name, Decls: d.declarations(n.Body), Loc: loc}
	}
	d.failf(n, "unknown declaration kind %q", n.Kind)
	return nil
}

func (d *decoder) params(nodes []*Node) []ast.Parameter {
	out := make([]ast.Parameter, 0, len(nodes))
	for _, p := range nodes {
		if p == nil || p.Kind != "param" {
			d.failf(orEmpty(p), "expected a param node")
			continue
		}
		if !d.required(p, p.Type, "type") {
			continue
		}
		out = append(out, ast.Parameter{Name: p.Name, Type: d.typ(p.Type), Loc: d.loc(p)})
	}
	return out
}

func (d *decoder) typ(n *Node) types.Type {
	loc := d.loc(n)
	switch n.Kind {
	case "name":
		return types.NewIdentifier(n.Name, loc)
	case "pointer":
		if !d.required(n, n.Type, "type") {
			return types.Error
		}
		return &types.Pointer{Elem: d.typ(n.Type), Loc: loc}
	case "array":
		if !d.required(n, n.Type, "type") {
			return types.Error
		}
		length := n.Length
		if n.Has(FlagUnsized) {
			length = types.UnsizedLength
		}
		return &types.Array{Elem: d.typ(n.Type), Length: length, Loc: loc}
	case "slice":
		if !d.required(n, n.Type, "type") {
			return types.Error
		}
		return &types.Slice{Elem: d.typ(n.Type), Loc: loc}
	case "struct":
		members := make([]types.Member, 0, len(n.Members))
		for _, m := range n.Members {
			if m == nil || m.Kind != "member" || m.Type == nil {
				d.failf(orEmpty(m), "expected a member node with a type")
				continue
			}
			members = append(members, types.Member{Name: m.Name, Type: d.typ(m.Type), Loc: d.loc(m)})
		}
		return &types.Struct{Members: members, Loc: loc}
	case "function":
		ret := types.Type(types.Void)
		if n.Type != nil {
			ret = d.typ(n.Type)
		}
		return &types.Function{Args: d.types(n.Types), Return: ret, Loc: loc}
	case "instance":
		return &types.TemplateInstantiation{Name: types.NewIdentifier(n.Name, loc), Args: d.types(n.Types), Loc: loc}
	case "dot":
		if !d.required(n, n.Type, "type") {
			return types.Error
		}
		return &types.Dot{Type: d.typ(n.Type), Member: n.Name, Loc: loc}
	}
	d.failf(n, "unknown type kind %q", n.Kind)
	return types.Error
}

func (d *decoder) types(nodes []*Node) []types.Type {
	out := make([]types.Type, len(nodes))
	for i, n := range nodes {
		if n == nil {
			d.failf(&Node{}, "null type")
			out[i] = types.Error
			continue
		}
		out[i] = d.typ(n)
	}
	return out
}

func orEmpty(n *Node) *Node {
	if n == nil {
		return &Node{}
	}
	return n
}
