package frontend

import (
	"complete/internal/engine/decl"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func newCppEngine() *declEngine {
	return newDeclEngine(map[string]nodeHandler{
		"namespace_definition":       handleNamespace,
		"class_specifier":            handleRecord,
		"struct_specifier":           handleRecord,
		"union_specifier":            handleRecord,
		"enum_specifier":             handleEnum,
		"enumerator":                 handleEnumerator,
		"function_definition":        handleFunctionDefinition,
		"declaration":                handleDeclaration,
		"field_declaration":          handleFieldDeclaration,
		"type_definition":            handleTypedef,
		"alias_declaration":          handleAlias,
		"using_declaration":          handleUsing,
		"namespace_alias_definition": handleNamespaceAlias,
		"template_declaration":       handleTemplate,
		"linkage_specification":      handleLinkage,
	},
		"translation_unit",
		"declaration_list",
		"field_declaration_list",
		"enumerator_list",
		"preproc_if",
		"preproc_ifdef",
		"preproc_else",
		"preproc_elif",
		"preproc_elifdef",
		"ERROR",
	)
}

var nameKinds = map[string]bool{
	"identifier":           true,
	"field_identifier":     true,
	"type_identifier":      true,
	"qualified_identifier": true,
	"destructor_name":      true,
	"operator_name":        true,
	"operator_cast":        true,
	"template_function":    true,
	"template_method":      true,
}

var wrapperKinds = map[string]bool{
	"function_declarator":      true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"init_declarator":          true,
	"parenthesized_declarator": true,
	"attributed_declarator":    true,
}

// modifier is the declarator operator closest to the declared name.
type modifier int

const (
	modNone modifier = iota
	modFunction
	modData
)

func isDeclarator(kind string) bool {
	return nameKinds[kind] || wrapperKinds[kind]
}

func innerDeclarator(n *sitter.Node) *sitter.Node {
	if inner := n.ChildByFieldName("declarator"); inner != nil {
		return inner
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); isDeclarator(child.Kind()) {
			return child
		}
	}
	return nil
}

// declaratorName digs the declared name out of a declarator. `int *f()` is
// a function returning a pointer and `int (*f)()` a pointer variable.
func declaratorName(n *sitter.Node) (*sitter.Node, modifier) {
	if n == nil {
		return nil, modNone
	}
	kind := n.Kind()
	if kind == "operator_cast" {
		// The cast carries its own parameter list.
		return n, modFunction
	}
	if nameKinds[kind] {
		return n, modNone
	}
	switch kind {
	case "function_declarator":
		name, mod := declaratorName(innerDeclarator(n))
		if mod == modNone {
			mod = modFunction
		}
		return name, mod
	case "pointer_declarator", "reference_declarator", "array_declarator":
		name, mod := declaratorName(innerDeclarator(n))
		if mod == modNone {
			mod = modData
		}
		return name, mod
	case "init_declarator", "parenthesized_declarator", "attributed_declarator":
		return declaratorName(innerDeclarator(n))
	}
	return nil, modNone
}

// nameOf reduces qualified and templated names to their last identifier.
func nameOf(c *scanContext, n *sitter.Node) (*sitter.Node, string) {
	for n != nil {
		switch n.Kind() {
		case "qualified_identifier", "template_type", "template_function", "template_method":
			inner := n.ChildByFieldName("name")
			if inner == nil {
				return n, c.Text(n)
			}
			n = inner
		case "nested_namespace_specifier":
			if n.ChildCount() == 0 {
				return n, c.Text(n)
			}
			last := n.Child(n.ChildCount() - 1)
			if last == nil {
				return n, c.Text(n)
			}
			n = last
		case "operator_cast":
			return n, conversionName(c.Text(n))
		default:
			return n, strings.TrimSpace(c.Text(n))
		}
	}
	return nil, ""
}

// conversionName cuts `operator const char*() const` down to
// `operator const char*`.
func conversionName(text string) string {
	if i := strings.Index(text, "("); i >= 0 {
		text = text[:i]
	}
	return strings.Join(strings.Fields(text), " ")
}

func declarators(node, typeNode *sitter.Node, accept func(kind string) bool) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if sameNode(child, typeNode) || !accept(child.Kind()) {
			continue
		}
		out = append(out, child)
	}
	return out
}

func hasToken(node *sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

func isStatic(c *scanContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "storage_class_specifier" && c.Text(child) == "static" {
			return true
		}
	}
	return false
}

func handleNamespace(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	body := c.Collect(node.ChildByFieldName("body"), scopeNamespace)
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return []*decl.Decl{{Kind: decl.KindNamespace, Loc: c.Loc(node), Children: body}}
	}
	if nameNode.Kind() != "nested_namespace_specifier" {
		return []*decl.Decl{{Kind: decl.KindNamespace, Name: c.Text(nameNode), Loc: c.Loc(nameNode), Children: body}}
	}

	// namespace a::b { } opens a and b.
	var parts []*sitter.Node
	for i := uint(0); i < nameNode.ChildCount(); i++ {
		if part := nameNode.Child(i); part.Kind() == "namespace_identifier" {
			parts = append(parts, part)
		}
	}
	children := body
	var outer *decl.Decl
	for i := len(parts) - 1; i >= 0; i-- {
		outer = &decl.Decl{Kind: decl.KindNamespace, Name: c.Text(parts[i]), Loc: c.Loc(parts[i]), Children: children}
		children = []*decl.Decl{outer}
	}
	if outer == nil {
		return []*decl.Decl{{Kind: decl.KindNamespace, Loc: c.Loc(node), Children: body}}
	}
	return []*decl.Decl{outer}
}

func recordDecl(c *scanContext, node *sitter.Node) *decl.Decl {
	kind := decl.KindCXXRecord
	if c.CMode {
		kind = decl.KindRecord
	}
	d := &decl.Decl{Kind: kind, Loc: c.Loc(node)}
	if nameNode, name := nameOf(c, node.ChildByFieldName("name")); nameNode != nil {
		d.Name, d.Loc = name, c.Loc(nameNode)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		d.Definition = true
		d.Children = c.Collect(body, scopeRecord)
	}
	return d
}

func enumDecl(c *scanContext, node *sitter.Node) *decl.Decl {
	d := &decl.Decl{Kind: decl.KindEnum, Loc: c.Loc(node)}
	if nameNode, name := nameOf(c, node.ChildByFieldName("name")); nameNode != nil {
		d.Name, d.Loc = name, c.Loc(nameNode)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		d.Definition = true
		d.Children = c.Collect(body, scopeRecord)
	}
	return d
}

func handleRecord(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	return []*decl.Decl{recordDecl(c, node)}
}

func handleEnum(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	return []*decl.Decl{enumDecl(c, node)}
}

func handleEnumerator(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return []*decl.Decl{{Kind: decl.KindEnumConstant, Name: c.Text(nameNode), Loc: c.Loc(nameNode)}}
}

// typeDecls returns the tag a declaration's type specifier introduces.
// `struct S *p;` only names S, so bodiless specifiers count when nothing
// else is declared.
func typeDecls(c *scanContext, typeNode *sitter.Node, declared bool) []*decl.Decl {
	if typeNode == nil {
		return nil
	}
	hasBody := typeNode.ChildByFieldName("body") != nil
	if !hasBody && declared {
		return nil
	}
	switch typeNode.Kind() {
	case "class_specifier", "struct_specifier", "union_specifier":
		return []*decl.Decl{recordDecl(c, typeNode)}
	case "enum_specifier":
		return []*decl.Decl{enumDecl(c, typeNode)}
	}
	return nil
}

func handleFunctionDefinition(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	nameNode, _ := declaratorName(node.ChildByFieldName("declarator"))
	nameNode, name := nameOf(c, nameNode)
	if nameNode == nil {
		return nil
	}
	d := &decl.Decl{Kind: decl.KindFunction, Name: name, Loc: c.Loc(nameNode), Definition: true}
	if body := node.ChildByFieldName("body"); body != nil {
		d.Children = c.collectLocals(body)
	}
	return []*decl.Decl{d}
}

func handleDeclaration(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	typeNode := node.ChildByFieldName("type")
	decls := declarators(node, typeNode, isDeclarator)

	out := typeDecls(c, typeNode, len(decls) > 0)
	for _, dn := range decls {
		nameNode, mod := declaratorName(dn)
		nameNode, name := nameOf(c, nameNode)
		if nameNode == nil {
			continue
		}
		kind := decl.KindVar
		if mod == modFunction {
			kind = decl.KindFunction
		}
		out = append(out, &decl.Decl{Kind: kind, Name: name, Loc: c.Loc(nameNode)})
	}
	return out
}

func handleFieldDeclaration(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	typeNode := node.ChildByFieldName("type")
	// Member declarators name field_identifiers; a bare identifier here is
	// an initializer expression.
	decls := declarators(node, typeNode, func(kind string) bool {
		return kind != "identifier" && kind != "type_identifier" && isDeclarator(kind)
	})

	out := typeDecls(c, typeNode, len(decls) > 0)
	if len(decls) == 0 && len(out) == 1 && !out[0].IsNamed() {
		// Members of an anonymous struct or union are reachable from the
		// enclosing record.
		for _, member := range out[0].Children {
			if member.Kind == decl.KindField && member.IsNamed() {
				out = append(out, &decl.Decl{Kind: decl.KindIndirectField, Name: member.Name, Loc: member.Loc})
			}
		}
	}

	static := isStatic(c, node)
	for _, dn := range decls {
		nameNode, mod := declaratorName(dn)
		nameNode, name := nameOf(c, nameNode)
		if nameNode == nil {
			continue
		}
		kind := decl.KindField
		switch {
		case mod == modFunction:
			kind = decl.KindFunction
		case static:
			kind = decl.KindVar
		}
		out = append(out, &decl.Decl{Kind: kind, Name: name, Loc: c.Loc(nameNode)})
	}
	return out
}

func handleTypedef(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	typeNode := node.ChildByFieldName("type")
	out := typeDecls(c, typeNode, true)
	for _, dn := range declarators(node, typeNode, isDeclarator) {
		nameNode, _ := declaratorName(dn)
		nameNode, name := nameOf(c, nameNode)
		if nameNode == nil {
			continue
		}
		out = append(out, &decl.Decl{Kind: decl.KindTypedef, Name: name, Loc: c.Loc(nameNode)})
	}
	return out
}

func handleAlias(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return []*decl.Decl{{Kind: decl.KindTypeAlias, Name: c.Text(nameNode), Loc: c.Loc(nameNode)}}
}

func handleUsing(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	var target *sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == "identifier" || child.Kind() == "qualified_identifier" {
			target = child
		}
	}
	if target == nil {
		return nil
	}
	if hasToken(node, "namespace") {
		return []*decl.Decl{{Kind: decl.KindUsingDirective, Name: c.Text(target), Loc: c.Loc(target)}}
	}
	nameNode, name := nameOf(c, target)
	return []*decl.Decl{{Kind: decl.KindUsing, Name: name, Loc: c.Loc(nameNode)}}
}

func handleNamespaceAlias(c *scanContext, node *sitter.Node, _ scope) []*decl.Decl {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return []*decl.Decl{{Kind: decl.KindNamespaceAlias, Name: c.Text(nameNode), Loc: c.Loc(nameNode)}}
}

// handleTemplate rewrites the templated declaration. Explicit
// specializations (template<>) stay plain records and functions. Alias
// and variable templates carry no tag of their own.
func handleTemplate(c *scanContext, node *sitter.Node, sc scope) []*decl.Decl {
	params := node.ChildByFieldName("parameters")
	specialization := params != nil && strings.ReplaceAll(c.Text(params), " ", "") == "<>"

	var out []*decl.Decl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if sameNode(child, params) {
			continue
		}
		inner := c.Collect(child, sc)
		if len(inner) == 0 {
			continue
		}
		// The templated entity is the last declaration; a leading tag
		// comes from the type specifier.
		primary := inner[len(inner)-1]
		if !specialization {
			switch primary.Kind {
			case decl.KindCXXRecord, decl.KindRecord:
				primary.Kind = decl.KindClassTemplate
			case decl.KindFunction:
				primary.Kind = decl.KindFunctionTemplate
			case decl.KindTypeAlias, decl.KindVar:
				primary.Kind = decl.KindUnknown
			}
		}
		out = append(out, inner...)
	}
	return out
}

func handleLinkage(c *scanContext, node *sitter.Node, sc scope) []*decl.Decl {
	return []*decl.Decl{{
		Kind:     decl.KindLinkageSpec,
		Loc:      c.Loc(node),
		Children: c.Collect(node.ChildByFieldName("body"), sc),
	}}
}

// collectLocals gathers declarations anywhere in a function body so the
// tree is complete. The walker never descends into them.
func (c *scanContext) collectLocals(node *sitter.Node) []*decl.Decl {
	var out []*decl.Decl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "declaration", "type_definition", "alias_declaration",
			"class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
			out = append(out, c.Collect(child, scopeLocal)...)
		default:
			out = append(out, c.collectLocals(child)...)
		}
	}
	return out
}
