package csharp

import (
	"fmt"

	"github.com/oxbind/oxbind/internal/codegen/common"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// writeTypeDefinitions emits the standalone declarations for every type
// the emission predicates place in this unit: enums, opaques, composites
// (with their marshalling glue) and anonymous function pointer delegates.
// Pattern types are handled by writePatterns.
func (g *Interop) writeTypeDefinitions(w *common.IndentWriter) error {
	g.debugMarker(w, "type definitions")
	for _, t := range g.emissionTypes() {
		emit, err := g.ShouldEmitByType(t)
		if err != nil {
			return err
		}
		if !emit {
			continue
		}

		switch x := t.(type) {
		case *inventory.Enum:
			g.writeEnum(w, x)
			w.Newline()
		case *inventory.Opaque:
			g.writeOpaque(w, x)
			w.Newline()
		case *inventory.Composite:
			g.writeComposite(w, x)
			w.Newline()
		case *inventory.FnPointer:
			g.writeFnPointerDelegate(w, x)
			w.Newline()
		case inventory.Primitive, inventory.Pattern:
			// Primitives map to built-in keywords; patterns are written
			// by the pattern subsystem.
		default:
			return &UnsupportedTypePatternError{Variant: t.Kind().String()}
		}
	}
	return nil
}

func (g *Interop) writeEnum(w *common.IndentWriter, e *inventory.Enum) {
	if g.DocHints {
		g.writeDocs(w, e.Meta.Docs)
	}
	w.Linef("%s enum %s : %s", g.VisibilityTypes.AccessModifier(), e.Name, enumUnderlyingType(e))
	w.Line("{")
	w.Indent()
	for _, v := range e.Variants {
		if g.DocHints {
			g.writeDocs(w, v.Docs)
		}
		w.Linef("%s = %d,", common.SanitizeLeadingDigit(v.Name), v.Value)
	}
	w.Unindent()
	w.Line("}")
}

// writeOpaque emits a handle wrapper; opaque types only ever travel
// behind a pointer.
func (g *Interop) writeOpaque(w *common.IndentWriter, o *inventory.Opaque) {
	if g.DocHints {
		g.writeDocs(w, o.Meta.Docs)
	}
	access := g.VisibilityTypes.AccessModifier()
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s readonly partial struct %s", access, o.Name)
	w.Line("{")
	w.Indent()
	w.Line("private readonly IntPtr _handle;")
	w.Newline()
	w.Linef("public %s(IntPtr handle) { _handle = handle; }", o.Name)
	w.Line("public IntPtr Handle => _handle;")
	w.Line("public bool IsNull => _handle == IntPtr.Zero;")
	w.Unindent()
	w.Line("}")
}

// writeComposite emits the managed struct and, because composites always
// need a marshaller, the nested Unmanaged representation plus the
// conversion pair.
func (g *Interop) writeComposite(w *common.IndentWriter, c *inventory.Composite) {
	if g.DocHints {
		g.writeDocs(w, c.Meta.Docs)
	}
	access := g.VisibilityTypes.AccessModifier()
	w.Line("[Serializable]")
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s partial struct %s", access, c.Name)
	w.Line("{")
	w.Indent()
	for _, f := range c.Fields {
		if g.DocHints {
			g.writeDocs(w, f.Docs)
		}
		g.writeCompositeField(w, f, false)
	}

	if g.ShouldEmitMarshaller(c) {
		w.Newline()
		g.writeCompositeMarshaller(w, c)
	}
	w.Unindent()
	w.Line("}")
}

func (g *Interop) writeCompositeField(w *common.IndentWriter, f inventory.Field, unmanaged bool) {
	access := g.fieldAccess(f)
	if arr, ok := f.Type.(*inventory.Array); ok {
		if unmanaged {
			if prim, isPrim := arr.Elem.(inventory.Primitive); isPrim {
				w.Linef("%s fixed %s %s[%d];", access, primitiveName(prim), f.Name, arr.Len)
				return
			}
		}
		w.Linef("[MarshalAs(UnmanagedType.ByValArray, SizeConst = %d)]", arr.Len)
		w.Linef("%s %s %s;", access, g.typeName(arr), f.Name)
		return
	}
	typeRef := g.typeName(f.Type)
	if unmanaged {
		typeRef = g.unmanagedFieldType(f.Type)
	}
	w.Linef("%s %s %s;", access, typeRef, f.Name)
}

// writeCompositeMarshaller emits the Unmanaged nested struct and the
// ToUnmanaged/FromUnmanaged conversion pair referenced from callback
// signatures and custom-marshalled externs.
func (g *Interop) writeCompositeMarshaller(w *common.IndentWriter, c *inventory.Composite) {
	g.debugMarker(w, "marshaller "+c.Name)
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Line("public unsafe struct Unmanaged")
	w.Line("{")
	w.Indent()
	for _, f := range c.Fields {
		g.writeCompositeField(w, f, true)
	}
	w.Unindent()
	w.Line("}")
	w.Newline()

	w.Line("public Unmanaged ToUnmanaged()")
	w.Line("{")
	w.Indent()
	w.Line("var result = new Unmanaged();")
	for _, f := range c.Fields {
		w.Linef("result.%s = %s;", f.Name, g.fieldToUnmanaged(f))
	}
	w.Line("return result;")
	w.Unindent()
	w.Line("}")
	w.Newline()

	w.Linef("public static %s FromUnmanaged(Unmanaged unmanaged)", c.Name)
	w.Line("{")
	w.Indent()
	w.Linef("var result = new %s();", c.Name)
	for _, f := range c.Fields {
		w.Linef("result.%s = %s;", f.Name, g.fieldFromUnmanaged(f))
	}
	w.Line("return result;")
	w.Unindent()
	w.Line("}")
}

// unmanagedFieldType renders the native layout type of a field inside an
// Unmanaged struct.
func (g *Interop) unmanagedFieldType(t inventory.Type) string {
	switch x := t.(type) {
	case *inventory.Composite:
		return x.Name + ".Unmanaged"
	case inventory.FFIBool:
		return "byte"
	case *inventory.Slice, *inventory.SliceMut, inventory.Utf8String:
		return g.typeName(t) + ".Unmanaged"
	case *inventory.NamedCallback, *inventory.AsyncCallback, *inventory.FnPointer:
		return "IntPtr"
	default:
		return g.typeName(t)
	}
}

func (g *Interop) fieldToUnmanaged(f inventory.Field) string {
	switch f.Type.(type) {
	case *inventory.Composite, *inventory.Slice, *inventory.SliceMut, inventory.Utf8String:
		return fmt.Sprintf("%s.ToUnmanaged()", f.Name)
	case inventory.FFIBool:
		return fmt.Sprintf("%s.ToByte()", f.Name)
	default:
		return f.Name
	}
}

func (g *Interop) fieldFromUnmanaged(f inventory.Field) string {
	switch x := f.Type.(type) {
	case *inventory.Composite:
		return fmt.Sprintf("%s.FromUnmanaged(unmanaged.%s)", x.Name, f.Name)
	case *inventory.Slice, *inventory.SliceMut, inventory.Utf8String:
		return fmt.Sprintf("%s.FromUnmanaged(unmanaged.%s)", g.typeName(f.Type), f.Name)
	case inventory.FFIBool:
		return fmt.Sprintf("Bool.FromByte(unmanaged.%s)", f.Name)
	default:
		return "unmanaged." + f.Name
	}
}

// fieldAccess maps declared field visibility through the visibility
// policy.
func (g *Interop) fieldAccess(f inventory.Field) string {
	switch g.VisibilityTypes {
	case ForcePublic:
		return "public"
	case ForceInternal:
		return "internal"
	default:
		if f.Visibility == inventory.Private {
			return "internal"
		}
		return "public"
	}
}

// writeFnPointerDelegate emits the typedef for an anonymous function
// pointer.
func (g *Interop) writeFnPointerDelegate(w *common.IndentWriter, fn *inventory.FnPointer) {
	w.Line("[UnmanagedFunctionPointer(CallingConvention.Cdecl)]")
	w.Linef("%s delegate %s %s(%s);",
		g.VisibilityTypes.AccessModifier(),
		g.rawTypeRef(fn.Sig.ReturnType()),
		fnPointerDelegateName(fn.Sig),
		g.rawParamList(fn.Sig))
}
