package csharp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxbind/oxbind/pkg/inventory"
)

// geoInventory builds a small library surface spread over the "geo" and
// "math" modules, exercising composites, enums, callbacks, the version
// guard and constants.
func geoInventory() inventory.Inventory {
	geo := inventory.Meta{Module: "geo"}
	math := inventory.Meta{Module: "math"}

	point := &inventory.Composite{
		Name: "Point",
		Meta: inventory.Meta{Module: "geo", Docs: []string{"A 2D point."}},
		Fields: []inventory.Field{
			{Name: "x", Type: inventory.F32, Visibility: inventory.Public},
			{Name: "y", Type: inventory.F32, Visibility: inventory.Public},
		},
	}
	ffiErr := &inventory.Enum{
		Name: "FFIError",
		Meta: geo,
		Variants: []inventory.EnumVariant{
			{Name: "Ok", Value: 0},
			{Name: "NullPassed", Value: 1},
		},
	}
	onEvent := &inventory.NamedCallback{
		Name: "OnEvent",
		Meta: geo,
		Fn: inventory.FnPointer{Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "p", Type: point}},
			ReturnT: inventory.Void,
		}},
	}
	onDone := &inventory.AsyncCallback{
		Name: "OnDone",
		Meta: geo,
		Fn: inventory.FnPointer{Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "code", Type: inventory.U32}},
			ReturnT: inventory.Void,
		}},
	}

	functions := []inventory.Function{
		{Name: "point_add", Meta: geo, Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "a", Type: point}, {Name: "b", Type: point}},
			ReturnT: point,
		}},
		{Name: "point_watch", Meta: geo, Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "callback", Type: onEvent}},
			ReturnT: ffiErr,
		}},
		{Name: "start_op", Meta: geo, Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "callback", Type: onDone}},
			ReturnT: inventory.Void,
		}},
		{Name: "pattern_ffi_bool", Meta: geo, Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "value", Type: inventory.FFIBool{}}},
			ReturnT: inventory.FFIBool{},
		}},
		{Name: "ffi_version", Meta: geo, Sig: inventory.Signature{
			ReturnT: inventory.APIVersion{},
		}},
		{Name: "norm", Meta: math, Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "v", Type: inventory.F64}},
			ReturnT: inventory.F64,
		}},
	}
	constants := []inventory.Constant{
		{Name: "MAX_POINTS", Meta: geo, Value: uint64(64)},
		{Name: "EPSILON", Meta: math, Value: float64(0.001)},
	}
	types := []inventory.Type{point, ffiErr, onEvent, onDone}

	return inventory.New(functions, constants, types)
}

func geoInterop(namespaceID string) *Interop {
	g := NewInterop(geoInventory())
	g.DllName = "geo"
	g.NamespaceMappings = map[string]string{
		"":     "My.Company",
		"geo":  "Acme.Geo",
		"math": "Acme.Math",
	}
	g.NamespaceID = namespaceID
	return g
}

func TestGenerateIsDeterministic(t *testing.T) {
	first, err := geoInterop("geo").Generate()
	require.NoError(t, err)
	second, err := geoInterop("geo").Generate()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateNamespaceScaffold(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "namespace Acme.Geo")
	assert.Contains(t, out, "public static partial class Interop")
	assert.Contains(t, out, `public const string NativeLib = "geo";`)
	// Other mapped namespaces show up in the using block, sorted.
	assert.Contains(t, out, "using Acme.Math;")
	assert.Contains(t, out, "using My.Company;")
	assert.NotContains(t, out, "using Acme.Geo;")
}

func TestGenerateCompositeOncePerUnit(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "public partial struct Point"),
		"exactly one Point declaration")
	assert.Contains(t, out, "public Unmanaged ToUnmanaged()")
	assert.Contains(t, out, "public static Point FromUnmanaged(Unmanaged unmanaged)")
	assert.Contains(t, out, "public float x;")
	assert.Contains(t, out, "public float y;")
}

func TestGenerateForeignNamespaceOmitsComposite(t *testing.T) {
	out, err := geoInterop("math").Generate()
	require.NoError(t, err)

	assert.NotContains(t, out, "struct Point")
	assert.NotContains(t, out, "point_add")
	assert.Contains(t, out, "namespace Acme.Math")
	assert.Contains(t, out, `EntryPoint = "norm"`)
	assert.Contains(t, out, "public const double EPSILON = 0.001;")
}

func TestGenerateMissingNamespaceMapping(t *testing.T) {
	g := geoInterop("geo")
	delete(g.NamespaceMappings, "geo")

	out, err := g.Generate()
	var missing *MissingNamespaceMappingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "geo", missing.ID)
	assert.Empty(t, out, "no partial output on failure")
}

func TestGenerateFunctions(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)

	assert.Contains(t, out, `[DllImport(NativeLib, CallingConvention = CallingConvention.Cdecl, EntryPoint = "point_add")]`)
	assert.Contains(t, out, "public static extern Point point_add(Point a, Point b);")
	// Callback parameters lower to IntPtr at the raw boundary.
	assert.Contains(t, out, "public static extern FFIError point_watch(IntPtr callback);")
	assert.Contains(t, out, "public static extern void start_op(IntPtr callback);")
}

func TestGenerateCallbackOverloads(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)

	// Named callback with a marshalled signature: the managed delegate is
	// bridged to the native flavor before pinning, and the bridge delegate
	// stays alive across the raw call.
	assert.Contains(t, out, "public static FFIError PointWatch(OnEvent callback)")
	assert.Contains(t, out, "var _callbackNative = OnEventMarshaller.ToNative(callback);")
	assert.Contains(t, out, "var _callback = Marshal.GetFunctionPointerForDelegate(_callbackNative);")
	assert.Contains(t, out, "var _result = point_watch(_callback);")
	assert.Contains(t, out, "GC.KeepAlive(_callbackNative);")
	assert.Contains(t, out, "return _result;")

	// Async callback: bound through the trampoline.
	assert.Contains(t, out, "public static void StartOp(OnDone callback)")
	assert.Contains(t, out, "InitAsyncTrampolines();")
	assert.Contains(t, out, "var _callback = OnDoneTrampoline.Bind(callback);")
	assert.Contains(t, out, "start_op(_callback);")

	// Functions without callback params get no overload.
	assert.NotContains(t, out, "public static Point PointAdd")
}

func TestGenerateCallbackOverloadScalarSignature(t *testing.T) {
	geo := inventory.Meta{Module: "geo"}
	onTick := &inventory.NamedCallback{
		Name: "OnTick",
		Meta: geo,
		Fn: inventory.FnPointer{Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "tick", Type: inventory.U32}},
			ReturnT: inventory.Void,
		}},
	}
	inv := inventory.New(
		[]inventory.Function{{Name: "watch_ticks", Meta: geo, Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "callback", Type: onTick}},
			ReturnT: inventory.Void,
		}}},
		nil,
		[]inventory.Type{onTick},
	)
	g := NewInterop(inv)
	g.DllName = "geo"
	g.NamespaceMappings = map[string]string{"": "My.Company", "geo": "Acme.Geo"}
	g.NamespaceID = "geo"

	out, err := g.Generate()
	require.NoError(t, err)

	// Scalar-only signature needs no bridge; the managed delegate is pinned
	// directly and kept alive across the call.
	assert.Contains(t, out, "var _callback = Marshal.GetFunctionPointerForDelegate(callback);")
	assert.Contains(t, out, "watch_ticks(_callback);")
	assert.Contains(t, out, "GC.KeepAlive(callback);")
	assert.NotContains(t, out, "OnTickMarshaller")
}

func TestGenerateCallbackOnlyInSignature(t *testing.T) {
	// Callbacks that never appear in the registered type list still need
	// their delegate, trampoline and table entry when a function takes them.
	geo := inventory.Meta{Module: "geo"}
	onEvent := &inventory.NamedCallback{
		Name: "OnEvent",
		Meta: geo,
		Fn: inventory.FnPointer{Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "code", Type: inventory.U32}},
			ReturnT: inventory.Void,
		}},
	}
	onDone := &inventory.AsyncCallback{
		Name: "OnDone",
		Meta: geo,
		Fn: inventory.FnPointer{Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "code", Type: inventory.U32}},
			ReturnT: inventory.Void,
		}},
	}
	inv := inventory.New(
		[]inventory.Function{
			{Name: "watch", Meta: geo, Sig: inventory.Signature{
				Params:  []inventory.Param{{Name: "callback", Type: onEvent}},
				ReturnT: inventory.Void,
			}},
			{Name: "start_op", Meta: geo, Sig: inventory.Signature{
				Params:  []inventory.Param{{Name: "callback", Type: onDone}},
				ReturnT: inventory.Void,
			}},
		},
		nil,
		nil, // neither callback registered as a standalone type
	)
	g := NewInterop(inv)
	g.DllName = "geo"
	g.NamespaceMappings = map[string]string{"": "My.Company", "geo": "Acme.Geo"}
	g.NamespaceID = "geo"

	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "public delegate void OnEvent(uint code);")
	assert.Contains(t, out, "public delegate void OnDone(uint code);")
	assert.Contains(t, out, "internal static class OnDoneTrampoline")
	assert.Contains(t, out, "_asyncTrampolines[typeof(OnDone)] = Marshal.GetFunctionPointerForDelegate(OnDoneTrampoline.Instance);")
	assert.Contains(t, out, "InitAsyncTrampolines();")
	assert.Contains(t, out, "var _callback = OnDoneTrampoline.Bind(callback);")
}

func TestGenerateNamedCallbackMarshaller(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "public delegate void OnEvent(Point p);")
	assert.Contains(t, out, "public delegate void OnEventNative(Point.Unmanaged p);")
	assert.Contains(t, out, "internal static class OnEventMarshaller")
	assert.Contains(t, out, "return (p) => managed(Point.FromUnmanaged(p));")
}

func TestGenerateAsyncTrampoline(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "public delegate void OnDoneNative(uint code, IntPtr context);")
	assert.Contains(t, out, "internal static class OnDoneTrampoline")
	assert.Contains(t, out, "internal static readonly OnDoneNative Instance = Invoke;")
	assert.Contains(t, out, "return GCHandle.ToIntPtr(GCHandle.Alloc(target));")
	assert.Contains(t, out, "((OnDone)handle.Target!)(code);")
	assert.Contains(t, out, "handle.Free();")
	assert.Contains(t, out, "_asyncTrampolines[typeof(OnDone)] = Marshal.GetFunctionPointerForDelegate(OnDoneTrampoline.Instance);")
}

func TestGenerateAbiGuard(t *testing.T) {
	g := geoInterop("geo")
	out, err := g.Generate()
	require.NoError(t, err)

	hash := inventory.Hash(g.Inventory)
	assert.Contains(t, out, "public static void AssertApiCompatible()")
	assert.Contains(t, out, "var reported0 = ffi_version();")
	assert.Contains(t, out, fmt.Sprintf("if (reported0 != 0x%Xul)", hash))
	assert.Contains(t, out, fmt.Sprintf("Hash:         0x%X", hash))
}

func TestGenerateBuiltinGating(t *testing.T) {
	g := geoInterop("geo")
	out, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "public partial struct Bool",
		"bool builtin written when referenced and globals in scope")

	g = geoInterop("geo")
	g.WriteTypes = WriteNamespace
	out, err = g.Generate()
	require.NoError(t, err)
	assert.NotContains(t, out, "partial struct Bool",
		"namespace-only units never carry global builtins")

	// Nothing references Utf8String, so it stays out even with globals.
	out, err = geoInterop("geo").Generate()
	require.NoError(t, err)
	assert.NotContains(t, out, "partial struct Utf8String")
}

func TestGenerateConstants(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "public const ulong MAX_POINTS = 0x40;")
	assert.NotContains(t, out, "EPSILON")
}

func TestGenerateSplitConstantsClass(t *testing.T) {
	g := geoInterop("geo")
	g.ClassConstants = "Constants"
	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "public static partial class Constants")
	assert.Contains(t, out, "public static partial class Interop")

	constIdx := strings.Index(out, "public const ulong MAX_POINTS")
	classIdx := strings.Index(out, "public static partial class Interop")
	require.GreaterOrEqual(t, constIdx, 0)
	require.GreaterOrEqual(t, classIdx, 0)
	assert.Less(t, constIdx, classIdx, "constants class precedes the functions class")
}

func TestGenerateSharedClassWhenConstantsClassMatches(t *testing.T) {
	g := geoInterop("geo")
	g.ClassConstants = "Interop"
	out, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "static partial class"))
}

func TestGenerateVisibilityPolicy(t *testing.T) {
	g := geoInterop("geo")
	g.VisibilityTypes = ForceInternal
	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "internal static partial class Interop")
	assert.Contains(t, out, "internal partial struct Point")
	assert.Contains(t, out, "internal enum FFIError : uint")
	assert.NotContains(t, out, "public partial struct")
}

func TestGenerateDebugMarkers(t *testing.T) {
	g := geoInterop("geo")
	g.Debug = true
	out, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "// Debug - functions")
	assert.Contains(t, out, "// Debug - callback OnEvent")

	out, err = geoInterop("geo").Generate()
	require.NoError(t, err)
	assert.NotContains(t, out, "// Debug")
}

func TestGenerateDocHints(t *testing.T) {
	out, err := geoInterop("geo").Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "/// A 2D point.")

	g := geoInterop("geo")
	g.DocHints = false
	out, err = g.Generate()
	require.NoError(t, err)
	assert.NotContains(t, out, "/// A 2D point.")
}

func TestGenerateAllScopeIsSuperset(t *testing.T) {
	nsOut, err := geoInterop("geo").Generate()
	require.NoError(t, err)

	all := geoInterop("geo")
	all.WriteTypes = WriteAll
	allOut, err := all.Generate()
	require.NoError(t, err)

	for _, decl := range []string{
		"public partial struct Point",
		"public enum FFIError : uint",
		"public delegate void OnEvent(Point p);",
		"internal static class OnDoneTrampoline",
	} {
		assert.Contains(t, nsOut, decl)
		assert.Contains(t, allOut, decl)
	}
}

func TestGenerateEnumSanitizesLeadingDigit(t *testing.T) {
	en := &inventory.Enum{
		Name: "Mode",
		Meta: inventory.Meta{Module: ""},
		Variants: []inventory.EnumVariant{
			{Name: "2D", Value: 0},
			{Name: "3D", Value: 1},
		},
	}
	g := NewInterop(inventory.New(nil, nil, []inventory.Type{en}))
	out, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "Num2D = 0,")
	assert.Contains(t, out, "Num3D = 1,")
}

func TestGenerateOptionAndResult(t *testing.T) {
	meta := inventory.Meta{Module: ""}
	errEnum := &inventory.Enum{Name: "FFIError", Meta: meta, Variants: []inventory.EnumVariant{{Name: "Ok"}}}
	opt := &inventory.Option{Meta: meta, Inner: inventory.U32}
	res := &inventory.Result{Meta: meta, Ok: inventory.U64, Err: errEnum}

	g := NewInterop(inventory.New(nil, nil, []inventory.Type{errEnum, opt, res}))
	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "public partial struct OptionU32")
	assert.Contains(t, out, "public static OptionU32 Some(uint value)")
	assert.Contains(t, out, "public static OptionU32 None")

	assert.Contains(t, out, "public partial struct ResultU64FFIError")
	assert.Contains(t, out, "public bool IsOk => _err == default(FFIError);")
	assert.Contains(t, out, "public ulong Unwrap()")
}

func TestGenerateSlices(t *testing.T) {
	meta := inventory.Meta{Module: ""}
	ro := &inventory.Slice{Meta: meta, Elem: inventory.U8}
	rw := &inventory.SliceMut{Meta: meta, Elem: inventory.U32}

	g := NewInterop(inventory.New(nil, nil, []inventory.Type{ro, rw}))
	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "public partial struct SliceU8")
	assert.Contains(t, out, "public partial struct SliceMutU32")

	// Only the mutable slice gets an indexer setter.
	roBody := out[strings.Index(out, "struct SliceU8"):strings.Index(out, "struct SliceMutU32")]
	assert.NotContains(t, roBody, "Marshal.StructureToPtr")
	assert.Contains(t, out, "Marshal.StructureToPtr(value, _data + index * Marshal.SizeOf<uint>(), false);")
}
