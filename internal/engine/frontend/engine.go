package frontend

import (
	"complete/internal/engine/decl"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// scope says what kind of body a node sits in. Member declarations parse
// differently from namespace-level ones.
type scope int

const (
	scopeNamespace scope = iota
	scopeRecord
	scopeLocal
)

// nodeHandler maps one syntax node to the declarations it introduces.
type nodeHandler func(ctx *scanContext, node *sitter.Node, sc scope) []*decl.Decl

// scanContext carries the buffer being scanned and the helpers shared by
// every handler.
type scanContext struct {
	Source []byte
	File   decl.FileID
	Table  *decl.SourceTable
	// CMode records C translation units: aggregates are plain records
	// rather than C++ classes.
	CMode bool

	engine *declEngine
}

func (c *scanContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// Loc is the location of node's first line in the current buffer.
func (c *scanContext) Loc(node *sitter.Node) decl.Loc {
	if node == nil {
		return 0
	}
	return c.Table.Loc(c.File, int(node.StartPosition().Row)+1)
}

func (c *scanContext) Collect(node *sitter.Node, sc scope) []*decl.Decl {
	return c.engine.collect(c, node, sc)
}

// CollectChildren collects the declarations of every child of node.
func (c *scanContext) CollectChildren(node *sitter.Node, sc scope) []*decl.Decl {
	if node == nil {
		return nil
	}
	var out []*decl.Decl
	for i := uint(0); i < node.ChildCount(); i++ {
		out = append(out, c.Collect(node.Child(i), sc)...)
	}
	return out
}

// declEngine walks the syntax tree and dispatches node handlers by kind.
// Kinds without a handler are transparent when listed in passthrough and
// ignored otherwise.
type declEngine struct {
	handlers    map[string]nodeHandler
	passthrough map[string]bool
}

func newDeclEngine(handlers map[string]nodeHandler, passthrough ...string) *declEngine {
	e := &declEngine{handlers: handlers, passthrough: make(map[string]bool, len(passthrough))}
	for _, kind := range passthrough {
		e.passthrough[kind] = true
	}
	return e
}

func (e *declEngine) collect(ctx *scanContext, node *sitter.Node, sc scope) []*decl.Decl {
	if node == nil {
		return nil
	}
	if handler, ok := e.handlers[node.Kind()]; ok {
		return handler(ctx, node, sc)
	}
	if e.passthrough[node.Kind()] {
		return ctx.CollectChildren(node, sc)
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
