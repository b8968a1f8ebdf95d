// Package decl defines the declaration tree handed to the indexer by a
// front-end: a closed set of declaration kinds, opaque source locations and
// the source manager that resolves them.
package decl

// Kind is the runtime variant of a declaration node.
type Kind int

const (
	KindUnknown Kind = iota
	KindFunction
	KindCXXRecord
	KindRecord
	KindField
	KindIndirectField
	KindEnum
	KindEnumConstant
	KindVar
	KindTypedef
	KindTypeAlias
	KindTag
	KindFunctionTemplate
	KindClassTemplate
	KindNamespace
	KindUsing
	KindNamespaceAlias
	KindUsingShadow
	KindUsingDirective
	KindLinkageSpec
	KindObjCInterface
	KindObjCImplementation
	KindObjCCategory
	KindObjCProtocol
	KindObjCIvar
	KindObjCMethod
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindFunction:           "function",
	KindCXXRecord:          "cxx_record",
	KindRecord:             "record",
	KindField:              "field",
	KindIndirectField:      "indirect_field",
	KindEnum:               "enum",
	KindEnumConstant:       "enum_constant",
	KindVar:                "var",
	KindTypedef:            "typedef",
	KindTypeAlias:          "type_alias",
	KindTag:                "tag",
	KindFunctionTemplate:   "function_template",
	KindClassTemplate:      "class_template",
	KindNamespace:          "namespace",
	KindUsing:              "using",
	KindNamespaceAlias:     "namespace_alias",
	KindUsingShadow:        "using_shadow",
	KindUsingDirective:     "using_directive",
	KindLinkageSpec:        "linkage_spec",
	KindObjCInterface:      "objc_interface",
	KindObjCImplementation: "objc_implementation",
	KindObjCCategory:       "objc_category",
	KindObjCProtocol:       "objc_protocol",
	KindObjCIvar:           "objc_ivar",
	KindObjCMethod:         "objc_method",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsFunction reports whether declarations of this kind have a body whose
// nested declarations are local scope.
func (k Kind) IsFunction() bool {
	return k == KindFunction || k == KindObjCMethod
}

// IsContainer reports whether declarations of this kind may expose child
// declarations.
func (k Kind) IsContainer() bool {
	switch k {
	case KindFunction, KindObjCMethod,
		KindCXXRecord, KindRecord, KindTag, KindEnum,
		KindClassTemplate, KindNamespace, KindLinkageSpec,
		KindObjCInterface, KindObjCImplementation, KindObjCCategory, KindObjCProtocol:
		return true
	default:
		return false
	}
}

// IsTag reports whether the kind names a tag type (struct, class, union,
// enum) that can be forward declared.
func (k Kind) IsTag() bool {
	switch k {
	case KindCXXRecord, KindRecord, KindEnum, KindTag:
		return true
	default:
		return false
	}
}

// Decl is one node of the declaration tree.
type Decl struct {
	Kind Kind
	// Name is the identifier; empty for anonymous entities.
	Name string
	Loc  Loc
	// Definition is set for functions and methods with a body and for tag
	// types with a complete definition.
	Definition bool
	// Implicit marks implicit template instantiations.
	Implicit bool
	Children []*Decl
}

// IsNamed reports whether the declaration carries an identifier.
func (d *Decl) IsNamed() bool {
	return d != nil && d.Name != ""
}

// DeclChildren returns the nested declarations of a container node and nil
// for everything else.
func (d *Decl) DeclChildren() []*Decl {
	if d == nil || !d.Kind.IsContainer() {
		return nil
	}
	return d.Children
}

// Add appends child declarations and returns d for chaining.
func (d *Decl) Add(children ...*Decl) *Decl {
	d.Children = append(d.Children, children...)
	return d
}
