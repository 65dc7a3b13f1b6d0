package csharp

import (
	"fmt"
	"strings"

	"github.com/oxbind/oxbind/internal/codegen/common"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// writePatterns emits the coordinated declarations for every pattern type
// placed in this unit: slice wrappers, option/result/vec containers and
// callback delegates with their marshalling glue.
func (g *Interop) writePatterns(w *common.IndentWriter) error {
	g.debugMarker(w, "patterns")
	for _, t := range g.emissionTypes() {
		p, ok := t.(inventory.Pattern)
		if !ok {
			continue
		}
		emit, err := g.ShouldEmitByType(t)
		if err != nil {
			return err
		}
		if !emit {
			continue
		}

		switch x := p.(type) {
		case *inventory.Slice:
			g.writeSlice(w, g.typeName(x), x.Elem, false)
			w.Newline()
		case *inventory.SliceMut:
			g.writeSlice(w, g.typeName(x), x.Elem, true)
			w.Newline()
		case *inventory.Option:
			g.writeOption(w, x)
			w.Newline()
		case *inventory.Result:
			g.writeResult(w, x)
			w.Newline()
		case *inventory.Vec:
			g.writeVec(w, x)
			w.Newline()
		case *inventory.NamedCallback:
			g.writeNamedCallback(w, x)
			w.Newline()
		case *inventory.AsyncCallback:
			g.writeAsyncCallback(w, x)
			w.Newline()
		case inventory.CStrPointer, inventory.APIVersion, inventory.FFIBool,
			inventory.CChar, inventory.Utf8String:
			// Marker patterns; shared declarations come from builtins.
		default:
			return &UnsupportedTypePatternError{Variant: p.PatternKind().String()}
		}
	}
	return nil
}

// writeSlice emits the pointer+length wrapper for a slice pattern. Slices
// are always custom marshalled, so the Unmanaged nested struct is emitted
// unconditionally.
func (g *Interop) writeSlice(w *common.IndentWriter, name string, elem inventory.Type, mutable bool) {
	g.debugMarker(w, "slice "+name)
	access := g.VisibilityTypes.AccessModifier()
	elemRef := g.typeName(elem)

	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s partial struct %s", access, name)
	w.Line("{")
	w.Indent()
	w.Line("internal IntPtr _data;")
	w.Line("internal ulong _len;")
	w.Newline()
	w.Line("public int Count => (int)_len;")
	w.Newline()
	w.Linef("public %s this[int index]", elemRef)
	w.Line("{")
	w.Indent()
	w.Line("get")
	w.Line("{")
	w.Indent()
	w.Line("if (index < 0 || (ulong)index >= _len) throw new IndexOutOfRangeException();")
	w.Linef("return Marshal.PtrToStructure<%s>(_data + index * Marshal.SizeOf<%s>());", elemRef, elemRef)
	w.Unindent()
	w.Line("}")
	if mutable {
		w.Line("set")
		w.Line("{")
		w.Indent()
		w.Line("if (index < 0 || (ulong)index >= _len) throw new IndexOutOfRangeException();")
		w.Linef("Marshal.StructureToPtr(value, _data + index * Marshal.SizeOf<%s>(), false);", elemRef)
		w.Unindent()
		w.Line("}")
	}
	w.Unindent()
	w.Line("}")
	w.Newline()
	w.Linef("public %s[] ToArray()", elemRef)
	w.Line("{")
	w.Indent()
	w.Linef("var result = new %s[Count];", elemRef)
	w.Line("for (var i = 0; i < Count; i++) result[i] = this[i];")
	w.Line("return result;")
	w.Unindent()
	w.Line("}")
	w.Newline()
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Line("public struct Unmanaged")
	w.Line("{")
	w.Indent()
	w.Line("internal IntPtr Data;")
	w.Line("internal ulong Len;")
	w.Unindent()
	w.Line("}")
	w.Newline()
	w.Line("public Unmanaged ToUnmanaged() => new Unmanaged { Data = _data, Len = _len };")
	w.Newline()
	w.Linef("public static %s FromUnmanaged(Unmanaged unmanaged) => new %s { _data = unmanaged.Data, _len = unmanaged.Len };", name, name)
	w.Unindent()
	w.Line("}")
}

func (g *Interop) writeOption(w *common.IndentWriter, o *inventory.Option) {
	g.debugMarker(w, "option")
	name := g.typeName(o)
	access := g.VisibilityTypes.AccessModifier()
	inner := g.typeName(o.Inner)

	if g.DocHints {
		g.writeDocs(w, o.Meta.Docs)
	}
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s partial struct %s", access, name)
	w.Line("{")
	w.Indent()
	w.Linef("internal %s _value;", inner)
	w.Line("internal byte _isSome;")
	w.Newline()
	w.Line("public bool IsSome => _isSome == 1;")
	w.Newline()
	w.Linef("public %s Value", inner)
	w.Line("{")
	w.Indent()
	w.Line("get")
	w.Line("{")
	w.Indent()
	w.Linef("if (!IsSome) throw new InvalidOperationException(\"%s is None\");", name)
	w.Line("return _value;")
	w.Unindent()
	w.Line("}")
	w.Unindent()
	w.Line("}")
	w.Newline()
	w.Linef("public static %s Some(%s value) => new %s { _value = value, _isSome = 1 };", name, inner, name)
	w.Newline()
	w.Linef("public static %s None => new %s();", name, name)
	w.Unindent()
	w.Line("}")
}

func (g *Interop) writeResult(w *common.IndentWriter, r *inventory.Result) {
	g.debugMarker(w, "result")
	name := g.typeName(r)
	access := g.VisibilityTypes.AccessModifier()
	okRef := g.typeName(r.Ok)
	hasPayload := okRef != "void"

	if g.DocHints {
		g.writeDocs(w, r.Meta.Docs)
	}
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s partial struct %s", access, name)
	w.Line("{")
	w.Indent()
	if hasPayload {
		w.Linef("internal %s _ok;", okRef)
	}
	if r.Err != nil {
		w.Linef("internal %s _err;", r.Err.Name)
		w.Newline()
		w.Linef("public bool IsOk => _err == default(%s);", r.Err.Name)
		w.Linef("public %s Error => _err;", r.Err.Name)
	} else {
		w.Line("internal uint _err;")
		w.Newline()
		w.Line("public bool IsOk => _err == 0;")
	}
	if hasPayload {
		w.Newline()
		w.Linef("public %s Unwrap()", okRef)
		w.Line("{")
		w.Indent()
		w.Linef("if (!IsOk) throw new InvalidOperationException($\"%s carried error {_err}\");", name)
		w.Line("return _ok;")
		w.Unindent()
		w.Line("}")
	} else {
		w.Newline()
		w.Line("public void Unwrap()")
		w.Line("{")
		w.Indent()
		w.Linef("if (!IsOk) throw new InvalidOperationException($\"%s carried error {_err}\");", name)
		w.Unindent()
		w.Line("}")
	}
	w.Unindent()
	w.Line("}")
}

func (g *Interop) writeVec(w *common.IndentWriter, v *inventory.Vec) {
	g.debugMarker(w, "vec")
	name := g.typeName(v)
	access := g.VisibilityTypes.AccessModifier()
	elemRef := g.typeName(v.Elem)

	if g.DocHints {
		g.writeDocs(w, v.Meta.Docs)
	}
	w.Line("[StructLayout(LayoutKind.Sequential)]")
	w.Linef("%s partial struct %s", access, name)
	w.Line("{")
	w.Indent()
	w.Line("internal IntPtr _ptr;")
	w.Line("internal ulong _len;")
	w.Line("internal ulong _capacity;")
	w.Newline()
	w.Line("public int Count => (int)_len;")
	w.Newline()
	w.Linef("public %s[] ToArray()", elemRef)
	w.Line("{")
	w.Indent()
	w.Linef("var result = new %s[Count];", elemRef)
	w.Linef("for (var i = 0; i < Count; i++) result[i] = Marshal.PtrToStructure<%s>(_ptr + i * Marshal.SizeOf<%s>());", elemRef, elemRef)
	w.Line("return result;")
	w.Unindent()
	w.Line("}")
	w.Unindent()
	w.Line("}")
}

// writeNamedCallback emits the managed delegate, the native-compatible
// delegate used when the pointer crosses the boundary, and a marshaller
// pair when the signature needs one.
func (g *Interop) writeNamedCallback(w *common.IndentWriter, cb *inventory.NamedCallback) {
	g.debugMarker(w, "callback "+cb.Name)
	access := g.VisibilityTypes.AccessModifier()
	sig := cb.Fn.Sig

	if g.DocHints {
		g.writeDocs(w, cb.Meta.Docs)
	}
	w.Linef("%s delegate %s %s(%s);", access, g.rawTypeRef(sig.ReturnType()), cb.Name, g.rawParamList(sig))
	w.Newline()
	w.Line("[UnmanagedFunctionPointer(CallingConvention.Cdecl)]")
	w.Linef("%s delegate %s %sNative(%s);", access,
		g.toNativeCallbackTypeSpecifier(sig.ReturnType()),
		cb.Name,
		g.nativeParamList(sig))

	if g.hasCustomMarshalledTypes(sig) {
		w.Newline()
		g.writeCallbackMarshaller(w, cb.Name, sig)
	}
}

// nativeParamList renders a callback parameter list with layout-sensitive
// types in their unmanaged representation.
func (g *Interop) nativeParamList(sig inventory.Signature) string {
	parts := make([]string, 0, len(sig.Params))
	for i, p := range sig.Params {
		parts = append(parts, fmt.Sprintf("%s %s", g.toNativeCallbackTypeSpecifier(p.Type), paramName(p, i)))
	}
	return strings.Join(parts, ", ")
}

// writeCallbackMarshaller bridges the managed delegate and its native
// counterpart, converting layout-sensitive arguments on each invocation.
func (g *Interop) writeCallbackMarshaller(w *common.IndentWriter, name string, sig inventory.Signature) {
	w.Linef("internal static class %sMarshaller", name)
	w.Line("{")
	w.Indent()
	w.Linef("internal static %sNative ToNative(%s managed)", name, name)
	w.Line("{")
	w.Indent()

	var args []string
	for i, p := range sig.Params {
		pname := paramName(p, i)
		switch p.Type.(type) {
		case *inventory.Composite, *inventory.Slice, *inventory.SliceMut, inventory.Utf8String:
			args = append(args, fmt.Sprintf("%s.FromUnmanaged(%s)", g.typeName(p.Type), pname))
		case *inventory.Enum:
			args = append(args, fmt.Sprintf("(%s)%s", g.typeName(p.Type), pname))
		default:
			args = append(args, pname)
		}
	}
	call := fmt.Sprintf("managed(%s)", strings.Join(args, ", "))
	if g.returnNeedsConversion(sig.ReturnType()) {
		call += ".ToUnmanaged()"
	}
	w.Linef("return (%s) => %s;", g.nativeParamNames(sig), call)
	w.Unindent()
	w.Line("}")
	w.Unindent()
	w.Line("}")
}

func (g *Interop) nativeParamNames(sig inventory.Signature) string {
	parts := make([]string, 0, len(sig.Params))
	for i, p := range sig.Params {
		parts = append(parts, paramName(p, i))
	}
	return strings.Join(parts, ", ")
}

func (g *Interop) returnNeedsConversion(t inventory.Type) bool {
	switch t.(type) {
	case *inventory.Composite, *inventory.Slice, *inventory.SliceMut, inventory.Utf8String:
		return true
	default:
		return false
	}
}

// writeAsyncCallback emits the managed delegate, the native delegate with
// the extra context parameter, and the process-lifetime trampoline that
// dispatches native invocations back to a captured managed closure.
func (g *Interop) writeAsyncCallback(w *common.IndentWriter, cb *inventory.AsyncCallback) {
	g.debugMarker(w, "async callback "+cb.Name)
	access := g.VisibilityTypes.AccessModifier()
	sig := cb.Fn.Sig

	if g.DocHints {
		g.writeDocs(w, cb.Meta.Docs)
	}
	w.Linef("%s delegate %s %s(%s);", access, g.rawTypeRef(sig.ReturnType()), cb.Name, g.rawParamList(sig))
	w.Newline()
	w.Line("[UnmanagedFunctionPointer(CallingConvention.Cdecl)]")
	natParams := g.nativeParamList(sig)
	if natParams != "" {
		natParams += ", "
	}
	w.Linef("%s delegate %s %sNative(%sIntPtr context);", access,
		g.toNativeCallbackTypeSpecifier(sig.ReturnType()),
		cb.Name,
		natParams)
	w.Newline()

	w.Linef("internal static class %sTrampoline", cb.Name)
	w.Line("{")
	w.Indent()
	w.Linef("internal static readonly %sNative Instance = Invoke;", cb.Name)
	w.Newline()
	w.Line("internal static IntPtr Bind(object target)")
	w.Line("{")
	w.Indent()
	w.Line("return GCHandle.ToIntPtr(GCHandle.Alloc(target));")
	w.Unindent()
	w.Line("}")
	w.Newline()
	retSpec := g.toNativeCallbackTypeSpecifier(sig.ReturnType())
	w.Linef("internal static %s Invoke(%sIntPtr context)", retSpec, natParams)
	w.Line("{")
	w.Indent()
	w.Line("var handle = GCHandle.FromIntPtr(context);")
	w.Line("try")
	w.Line("{")
	w.Indent()
	call := fmt.Sprintf("((%s)handle.Target!)(%s)", cb.Name, g.nativeParamNames(sig))
	if retSpec == "void" {
		w.Linef("%s;", call)
	} else {
		w.Linef("return %s;", call)
	}
	w.Unindent()
	w.Line("}")
	w.Line("finally")
	w.Line("{")
	w.Indent()
	w.Line("handle.Free();")
	w.Unindent()
	w.Line("}")
	w.Unindent()
	w.Line("}")
	w.Unindent()
	w.Line("}")
}

// asyncCallbacks returns the async callback patterns owned by the current
// namespace, in emission order. Callbacks reachable only through function
// signatures count; every one of them needs a trampoline table entry.
func (g *Interop) asyncCallbacks() []*inventory.AsyncCallback {
	var out []*inventory.AsyncCallback
	for _, t := range g.emissionTypes() {
		cb, ok := t.(*inventory.AsyncCallback)
		if !ok {
			continue
		}
		if g.shouldEmitByMeta(cb.Meta) || g.WriteTypes == WriteAll {
			out = append(out, cb)
		}
	}
	return out
}

// writeAsyncTrampolineInitializers emits the static, process-wide table
// of async trampolines. The table is filled exactly once before first use
// and is read-only afterwards.
func (g *Interop) writeAsyncTrampolineInitializers(w *common.IndentWriter) {
	callbacks := g.asyncCallbacks()
	if len(callbacks) == 0 {
		return
	}

	g.debugMarker(w, "async trampoline initializers")
	w.Line("private static readonly Dictionary<Type, IntPtr> _asyncTrampolines = new();")
	w.Newline()
	w.Line("/// <summary>")
	w.Line("/// Installs the native trampolines for async callbacks. Called before")
	w.Line("/// the first async invocation; subsequent calls are no-ops.")
	w.Line("/// </summary>")
	w.Line("internal static void InitAsyncTrampolines()")
	w.Line("{")
	w.Indent()
	w.Line("if (_asyncTrampolines.Count != 0) return;")
	for _, cb := range callbacks {
		w.Linef("_asyncTrampolines[typeof(%s)] = Marshal.GetFunctionPointerForDelegate(%sTrampoline.Instance);", cb.Name, cb.Name)
	}
	w.Unindent()
	w.Line("}")
}

// apiGuardFunctions returns the namespace's functions returning the API
// version marker.
func (g *Interop) apiGuardFunctions() []inventory.Function {
	var out []inventory.Function
	for _, f := range g.Inventory.Functions() {
		if !g.shouldEmitByMeta(f.Meta) {
			continue
		}
		if _, ok := f.Sig.ReturnType().(inventory.APIVersion); ok {
			out = append(out, f)
		}
	}
	return out
}

// writeAbiGuard emits a startup assertion comparing the version stamp the
// loaded library reports against the stamp these bindings were generated
// from. A mismatch throws instead of continuing silently.
func (g *Interop) writeAbiGuard(w *common.IndentWriter) {
	guards := g.apiGuardFunctions()
	if len(guards) == 0 {
		return
	}

	hash := inventory.Hash(g.Inventory)
	g.debugMarker(w, "abi guard")
	w.Line("/// <summary>")
	w.Line("/// Call once before using anything else to assert the loaded native")
	w.Line("/// library matches the inventory these bindings were generated from.")
	w.Line("/// </summary>")
	w.Line("public static void AssertApiCompatible()")
	w.Line("{")
	w.Indent()
	for i, f := range guards {
		w.Linef("var reported%d = %s();", i, g.functionName(f, FlavorRaw, ""))
		w.Linef("if (reported%d != 0x%Xul)", i, hash)
		w.Line("{")
		w.Indent()
		w.Linef("throw new InvalidOperationException($\"API mismatch: library reports 0x{reported%d:X} but bindings were generated against 0x%X.\");", i, hash)
		w.Unindent()
		w.Line("}")
	}
	w.Unindent()
	w.Line("}")
}
