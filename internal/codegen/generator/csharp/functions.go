package csharp

import (
	"fmt"
	"strings"

	"github.com/oxbind/oxbind/internal/codegen/common"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// writeFunctions emits, per namespace-owned function, the raw extern
// declaration plus a delegate-accepting overload when the signature
// carries callback parameters.
func (g *Interop) writeFunctions(w *common.IndentWriter) error {
	g.debugMarker(w, "functions")
	first := true
	for _, f := range g.Inventory.Functions() {
		if !g.shouldEmitByMeta(f.Meta) {
			continue
		}
		if !first {
			w.Newline()
		}
		first = false

		if err := g.writeFunction(w, f); err != nil {
			return err
		}
		if g.hasOverloadable(f.Sig) {
			w.Newline()
			if err := g.writeFunctionOverload(w, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Interop) writeFunction(w *common.IndentWriter, f inventory.Function) error {
	if g.DocHints {
		g.writeDocs(w, f.Meta.Docs)
		g.writeSafetyHints(w, f.Sig)
	}

	params := g.rawParamList(f.Sig)
	w.Linef("[DllImport(NativeLib, CallingConvention = CallingConvention.Cdecl, EntryPoint = %q)]", f.Name)
	w.Linef("public static extern %s %s(%s);",
		g.rawTypeRef(f.Sig.ReturnType()),
		g.functionName(f, FlavorRaw, ""),
		params)
	return nil
}

// writeFunctionOverload emits a PascalCase convenience overload taking
// managed delegates for callback parameters and converting them to
// function pointers before delegating to the raw extern.
func (g *Interop) writeFunctionOverload(w *common.IndentWriter, f inventory.Function) error {
	name := g.functionName(f, FlavorMethod, "")

	var decl []string
	var conversions []string
	var args []string
	var keepAlive []string
	needsTrampolines := false
	for i, p := range f.Sig.Params {
		pname := paramName(p, i)
		switch x := p.Type.(type) {
		case *inventory.NamedCallback:
			decl = append(decl, fmt.Sprintf("%s %s", x.Name, pname))
			if g.hasCustomMarshalledTypes(x.Fn.Sig) {
				// The raw pointer must carry the native delegate flavor, so
				// the managed delegate goes through the marshaller bridge.
				conversions = append(conversions, fmt.Sprintf("var _%sNative = %sMarshaller.ToNative(%s);", pname, x.Name, pname))
				conversions = append(conversions, fmt.Sprintf("var _%s = Marshal.GetFunctionPointerForDelegate(_%sNative);", pname, pname))
				keepAlive = append(keepAlive, "_"+pname+"Native")
			} else {
				conversions = append(conversions, fmt.Sprintf("var _%s = Marshal.GetFunctionPointerForDelegate(%s);", pname, pname))
				keepAlive = append(keepAlive, pname)
			}
			args = append(args, "_"+pname)
		case *inventory.AsyncCallback:
			needsTrampolines = true
			decl = append(decl, fmt.Sprintf("%s %s", x.Name, pname))
			conversions = append(conversions, fmt.Sprintf("var _%s = %sTrampoline.Bind(%s);", pname, x.Name, pname))
			args = append(args, "_"+pname)
		default:
			decl = append(decl, fmt.Sprintf("%s %s", g.rawTypeRef(p.Type), pname))
			args = append(args, pname)
		}
	}

	rval := g.rawTypeRef(f.Sig.ReturnType())
	w.Line("[MethodImpl(MethodImplOptions.AggressiveOptimization)]")
	w.Linef("public static %s %s(%s)", rval, name, strings.Join(decl, ", "))
	w.Line("{")
	w.Indent()
	if needsTrampolines {
		w.Line("InitAsyncTrampolines();")
	}
	for _, c := range conversions {
		w.Line(c)
	}
	call := fmt.Sprintf("%s(%s)", g.functionName(f, FlavorRaw, ""), strings.Join(args, ", "))
	switch {
	case rval == "void":
		w.Linef("%s;", call)
		for _, k := range keepAlive {
			w.Linef("GC.KeepAlive(%s);", k)
		}
	case len(keepAlive) == 0:
		w.Linef("return %s;", call)
	default:
		w.Linef("var _result = %s;", call)
		for _, k := range keepAlive {
			w.Linef("GC.KeepAlive(%s);", k)
		}
		w.Line("return _result;")
	}
	w.Unindent()
	w.Line("}")
	return nil
}

// rawParamList renders the extern parameter list. Callback-pattern
// parameters lower to IntPtr at the raw boundary.
func (g *Interop) rawParamList(sig inventory.Signature) string {
	parts := make([]string, 0, len(sig.Params))
	for i, p := range sig.Params {
		parts = append(parts, fmt.Sprintf("%s %s", g.rawTypeRef(p.Type), paramName(p, i)))
	}
	return strings.Join(parts, ", ")
}

// rawTypeRef is typeName with callback patterns lowered to IntPtr, which
// is how they cross the raw boundary.
func (g *Interop) rawTypeRef(t inventory.Type) string {
	switch t.(type) {
	case *inventory.NamedCallback, *inventory.AsyncCallback:
		return "IntPtr"
	default:
		return g.typeName(t)
	}
}

// writeSafetyHints appends use hints for items whose signatures carry raw
// pointers, only when doc enrichment is on.
func (g *Interop) writeSafetyHints(w *common.IndentWriter, sig inventory.Signature) {
	for _, p := range sig.Params {
		switch p.Type.Kind() {
		case inventory.KindReadPointer, inventory.KindReadWritePointer:
			w.Line("/// <remarks>Pointer arguments must stay valid for the duration of the call.</remarks>")
			return
		}
	}
}

func paramName(p inventory.Param, i int) string {
	if p.Name != "" {
		return escapeKeyword(p.Name)
	}
	return fmt.Sprintf("x%d", i)
}

// escapeKeyword prefixes C# keywords so parameter names stay valid.
func escapeKeyword(name string) string {
	switch name {
	case "event", "string", "base", "params", "ref", "out", "in", "object", "class", "value":
		return "@" + name
	default:
		return name
	}
}
