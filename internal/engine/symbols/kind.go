package symbols

import "complete/internal/engine/decl"

// Kind tags, modeled on tags-file conventions.
const (
	TagFunction       byte = 'f'
	TagPrototype      byte = 'p'
	TagClass          byte = 'c'
	TagStruct         byte = 's'
	TagMember         byte = 'm'
	TagEnum           byte = 'g'
	TagEnumerator     byte = 'e'
	TagVariable       byte = 'v'
	TagTypedef        byte = 't'
	TagTag            byte = 'u'
	TagNamespace      byte = 'n'
	TagUsing          byte = 'x'
	TagNamespaceAlias byte = 'y'
	TagBlank          byte = ' '
)

// Classify returns the kind tag for a declaration. It never fails:
// declarations without a tag of their own get TagBlank.
func Classify(d *decl.Decl) byte {
	if d == nil {
		return TagBlank
	}
	switch d.Kind {
	case decl.KindFunction, decl.KindObjCMethod:
		if d.Definition {
			return TagFunction
		}
		return TagPrototype
	case decl.KindCXXRecord:
		return TagClass
	case decl.KindRecord:
		return TagStruct
	case decl.KindField, decl.KindIndirectField:
		return TagMember
	case decl.KindEnum:
		return TagEnum
	case decl.KindEnumConstant:
		return TagEnumerator
	case decl.KindVar:
		return TagVariable
	case decl.KindTypedef, decl.KindTypeAlias:
		return TagTypedef
	case decl.KindTag:
		return TagTag
	case decl.KindFunctionTemplate:
		return TagFunction
	case decl.KindClassTemplate:
		return TagClass
	case decl.KindNamespace:
		return TagNamespace
	case decl.KindUsing:
		return TagUsing
	case decl.KindNamespaceAlias:
		return TagNamespaceAlias
	case decl.KindObjCInterface, decl.KindObjCImplementation, decl.KindObjCCategory, decl.KindObjCProtocol:
		return TagClass
	case decl.KindObjCIvar:
		return TagVariable
	default:
		return TagBlank
	}
}
