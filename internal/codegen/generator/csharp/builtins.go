package csharp

import (
	"github.com/oxbind/oxbind/internal/codegen/common"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// referencedPatterns walks every declaration emitted into this unit and
// collects the marker patterns they reference. Builtins are only written
// when something actually uses them.
func (g *Interop) referencedPatterns() map[inventory.PatternKind]bool {
	found := make(map[inventory.PatternKind]bool)
	visited := make(map[inventory.Type]bool)

	var walk func(t inventory.Type)
	walk = func(t inventory.Type) {
		if t == nil || visited[t] {
			return
		}
		visited[t] = true

		switch x := t.(type) {
		case *inventory.Array:
			walk(x.Elem)
		case *inventory.Composite:
			for _, f := range x.Fields {
				walk(f.Type)
			}
		case *inventory.FnPointer:
			walkSig := x.Sig
			for _, p := range walkSig.Params {
				walk(p.Type)
			}
			walk(walkSig.ReturnType())
		case *inventory.ReadPointer:
			walk(x.Target)
		case *inventory.ReadWritePointer:
			walk(x.Target)
		case *inventory.Slice:
			found[inventory.PatternSlice] = true
			walk(x.Elem)
		case *inventory.SliceMut:
			found[inventory.PatternSliceMut] = true
			walk(x.Elem)
		case *inventory.Option:
			found[inventory.PatternOption] = true
			walk(x.Inner)
		case *inventory.Result:
			found[inventory.PatternResult] = true
			walk(x.Ok)
		case *inventory.Vec:
			found[inventory.PatternVec] = true
			walk(x.Elem)
		case *inventory.NamedCallback:
			found[inventory.PatternNamedCallback] = true
			walk(&x.Fn)
		case *inventory.AsyncCallback:
			found[inventory.PatternAsyncCallback] = true
			walk(&x.Fn)
		case inventory.Pattern:
			found[x.PatternKind()] = true
		}
	}

	for _, f := range g.Inventory.Functions() {
		if !g.shouldEmitByMeta(f.Meta) {
			continue
		}
		for _, p := range f.Sig.Params {
			walk(p.Type)
		}
		walk(f.Sig.ReturnType())
	}
	for _, t := range g.emissionTypes() {
		if emit, err := g.ShouldEmitByType(t); err == nil && emit {
			walk(t)
		}
	}
	return found
}

// writeBuiltins emits shared support declarations exactly once per output
// unit: the byte-backed boolean and the UTF-8 string wrapper. Both lower
// to built-in representations, so they live here rather than in the
// per-type sections.
func (g *Interop) writeBuiltins(w *common.IndentWriter) {
	if !g.WriteTypes.WriteGlobals() {
		return
	}
	referenced := g.referencedPatterns()

	g.debugMarker(w, "builtins")
	if referenced[inventory.PatternBool] {
		g.writeBoolBuiltin(w)
		w.Newline()
	}
	if referenced[inventory.PatternUtf8String] {
		g.writeUtf8StringBuiltin(w)
		w.Newline()
	}
}

func (g *Interop) writeBoolBuiltin(w *common.IndentWriter) {
	access := g.VisibilityTypes.AccessModifier()
	w.Line("/// <summary>")
	w.Line("/// A boolean with a guaranteed one-byte layout.")
	w.Line("/// </summary>")
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s partial struct Bool", access)
	w.Line("{")
	w.Indent()
	w.Line("internal byte _value;")
	w.Newline()
	w.Line("public bool Value => _value != 0;")
	w.Newline()
	w.Line("public byte ToByte() => _value;")
	w.Newline()
	w.Line("public static Bool FromByte(byte value) => new Bool { _value = value };")
	w.Newline()
	w.Line("public static implicit operator bool(Bool b) => b.Value;")
	w.Newline()
	w.Line("public static implicit operator Bool(bool b) => new Bool { _value = b ? (byte)1 : (byte)0 };")
	w.Unindent()
	w.Line("}")
}

func (g *Interop) writeUtf8StringBuiltin(w *common.IndentWriter) {
	access := g.VisibilityTypes.AccessModifier()
	w.Line("/// <summary>")
	w.Line("/// An owned UTF-8 string crossing the boundary as pointer plus length.")
	w.Line("/// </summary>")
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s partial struct Utf8String", access)
	w.Line("{")
	w.Indent()
	w.Line("internal IntPtr _ptr;")
	w.Line("internal ulong _len;")
	w.Newline()
	w.Line("public string String")
	w.Line("{")
	w.Indent()
	w.Line("get")
	w.Line("{")
	w.Indent()
	w.Line("if (_ptr == IntPtr.Zero) return string.Empty;")
	w.Line("unsafe { return System.Text.Encoding.UTF8.GetString((byte*)_ptr, (int)_len); }")
	w.Unindent()
	w.Line("}")
	w.Unindent()
	w.Line("}")
	w.Newline()
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Line("public struct Unmanaged")
	w.Line("{")
	w.Indent()
	w.Line("internal IntPtr Ptr;")
	w.Line("internal ulong Len;")
	w.Unindent()
	w.Line("}")
	w.Newline()
	w.Line("public Unmanaged ToUnmanaged() => new Unmanaged { Ptr = _ptr, Len = _len };")
	w.Newline()
	w.Line("public static Utf8String FromUnmanaged(Unmanaged unmanaged) => new Utf8String { _ptr = unmanaged.Ptr, _len = unmanaged.Len };")
	w.Unindent()
	w.Line("}")
}
