package csharp

import (
	"fmt"
	"strings"

	"github.com/oxbind/oxbind/internal/codegen/common"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// typeName renders the C# type reference for t as used in parameter lists,
// field declarations and return positions. Pattern wrappers get composed
// names derived from their element type so one inventory never produces
// two declarations with the same name.
func (g *Interop) typeName(t inventory.Type) string {
	switch x := t.(type) {
	case inventory.Primitive:
		return primitiveName(x)
	case *inventory.Array:
		return g.typeName(x.Elem) + "[]"
	case *inventory.Enum:
		return x.Name
	case *inventory.Opaque:
		return x.Name
	case *inventory.Composite:
		return x.Name
	case *inventory.FnPointer:
		return fnPointerDelegateName(x.Sig)
	case *inventory.ReadPointer, *inventory.ReadWritePointer:
		return "IntPtr"
	case inventory.CStrPointer:
		return "IntPtr"
	case inventory.APIVersion:
		return "ulong"
	case inventory.FFIBool:
		return "Bool"
	case inventory.CChar:
		return "sbyte"
	case inventory.Utf8String:
		return "Utf8String"
	case *inventory.Slice:
		return "Slice" + g.elementSuffix(x.Elem)
	case *inventory.SliceMut:
		return "SliceMut" + g.elementSuffix(x.Elem)
	case *inventory.Option:
		return "Option" + g.elementSuffix(x.Inner)
	case *inventory.Result:
		suffix := g.elementSuffix(x.Ok)
		if x.Err != nil {
			suffix += x.Err.Name
		}
		return "Result" + suffix
	case *inventory.Vec:
		return "Vec" + g.elementSuffix(x.Elem)
	case *inventory.NamedCallback:
		return x.Name
	case *inventory.AsyncCallback:
		return x.Name
	default:
		return fmt.Sprintf("/* unsupported %T */", t)
	}
}

// elementSuffix renders the PascalCase name fragment a wrapper type
// derives from its element type.
func (g *Interop) elementSuffix(t inventory.Type) string {
	switch x := t.(type) {
	case inventory.Primitive:
		return common.ToPascalCase(x.String())
	case *inventory.Array:
		return fmt.Sprintf("Array%d%s", x.Len, g.elementSuffix(x.Elem))
	case *inventory.ReadPointer:
		return "Ptr" + g.elementSuffix(x.Target)
	case *inventory.ReadWritePointer:
		return "PtrMut" + g.elementSuffix(x.Target)
	default:
		name := g.typeName(t)
		name = strings.ReplaceAll(name, ".", "")
		return common.ToPascalCase(name)
	}
}

// fnPointerDelegateName derives a deterministic delegate name for an
// anonymous function pointer from its signature.
func fnPointerDelegateName(sig inventory.Signature) string {
	var b strings.Builder
	b.WriteString("InteropDelegate")
	for _, p := range sig.Params {
		b.WriteString("_")
		b.WriteString(inventory.TypeString(p.Type))
	}
	b.WriteString("_rval_")
	b.WriteString(inventory.TypeString(sig.ReturnType()))
	return mangle(b.String())
}

// mangle keeps delegate names valid C# identifiers.
func mangle(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func primitiveName(p inventory.Primitive) string {
	switch p {
	case inventory.Void:
		return "void"
	case inventory.PBool:
		return "bool"
	case inventory.U8:
		return "byte"
	case inventory.U16:
		return "ushort"
	case inventory.U32:
		return "uint"
	case inventory.U64:
		return "ulong"
	case inventory.I8:
		return "sbyte"
	case inventory.I16:
		return "short"
	case inventory.I32:
		return "int"
	case inventory.I64:
		return "long"
	case inventory.F32:
		return "float"
	case inventory.F64:
		return "double"
	case inventory.USize:
		return "UIntPtr"
	case inventory.ISize:
		return "IntPtr"
	default:
		return "void"
	}
}

// enumUnderlyingType picks the C# base type of an enum from its value
// range.
func enumUnderlyingType(e *inventory.Enum) string {
	var min, max int64
	for _, v := range e.Variants {
		if v.Value < min {
			min = v.Value
		}
		if v.Value > max {
			max = v.Value
		}
	}
	if min < 0 {
		return "int"
	}
	if max > int64(^uint32(0)) {
		return "ulong"
	}
	return "uint"
}

// constLiteral renders a constant's typed literal value plus the matching
// C# type keyword.
func constLiteral(value any) (csType, literal string) {
	switch v := value.(type) {
	case int64:
		if v < 0 {
			return "long", fmt.Sprintf("%d", v)
		}
		return "long", fmt.Sprintf("0x%X", v)
	case uint64:
		return "ulong", fmt.Sprintf("0x%X", v)
	case float64:
		return "double", fmt.Sprintf("%g", v)
	case bool:
		return "bool", fmt.Sprintf("%t", v)
	case string:
		return "string", fmt.Sprintf("%q", v)
	default:
		return "long", fmt.Sprintf("%v", v)
	}
}
