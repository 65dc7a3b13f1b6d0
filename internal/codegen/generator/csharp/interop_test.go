package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxbind/oxbind/pkg/inventory"
)

// allVariants returns one instance of every Type and Pattern variant, all
// owned by module "mod" where ownership applies.
func allVariants() []inventory.Type {
	meta := inventory.Meta{Module: "mod"}
	en := &inventory.Enum{Name: "Err", Meta: meta, Variants: []inventory.EnumVariant{{Name: "Ok"}}}
	fn := inventory.FnPointer{Sig: inventory.Signature{ReturnT: inventory.Void}}
	return []inventory.Type{
		inventory.U32,
		&inventory.Array{Elem: inventory.U8, Len: 4},
		en,
		&inventory.Opaque{Name: "Handle", Meta: meta},
		&inventory.Composite{Name: "Point", Meta: meta, Fields: []inventory.Field{{Name: "x", Type: inventory.F32}}},
		&fn,
		&inventory.ReadPointer{Target: inventory.U8},
		&inventory.ReadWritePointer{Target: inventory.U8},
		inventory.CStrPointer{},
		inventory.APIVersion{},
		inventory.FFIBool{},
		inventory.CChar{},
		inventory.Utf8String{},
		&inventory.Slice{Meta: meta, Elem: inventory.U32},
		&inventory.SliceMut{Meta: meta, Elem: inventory.U32},
		&inventory.Option{Meta: meta, Inner: inventory.U32},
		&inventory.Result{Meta: meta, Ok: inventory.U32, Err: en},
		&inventory.Vec{Meta: meta, Elem: inventory.U8},
		&inventory.NamedCallback{Name: "OnEvent", Meta: meta, Fn: fn},
		&inventory.AsyncCallback{Name: "OnDone", Meta: meta, Fn: fn},
	}
}

func testConfig(namespaceID string, scope WriteTypes) *Interop {
	g := NewInterop(inventory.New(nil, nil, nil))
	g.NamespaceMappings = map[string]string{
		"":     "Acme",
		"mod":  "Acme.Mod",
		"geo":  "Acme.Geo",
		"math": "Acme.Math",
	}
	g.NamespaceID = namespaceID
	g.WriteTypes = scope
	return g
}

func TestShouldEmitByTypeIsTotal(t *testing.T) {
	scopes := []WriteTypes{WriteNamespace, WriteNamespaceAndGlobal, WriteAll}
	for _, scope := range scopes {
		g := testConfig("mod", scope)
		for _, v := range allVariants() {
			_, err := g.ShouldEmitByType(v)
			require.NoError(t, err, "variant %s under scope %d", v.Kind(), scope)
		}
	}
}

func TestShouldEmitByTypeAllScope(t *testing.T) {
	g := testConfig("other", WriteAll)
	for _, v := range allVariants() {
		emit, err := g.ShouldEmitByType(v)
		require.NoError(t, err)
		assert.True(t, emit, "scope All must emit %s", v.Kind())
	}
}

func TestShouldEmitByTypeSupersetProperty(t *testing.T) {
	// Everything scope "all" filtered to one namespace must cover what
	// scope "namespace" emits directly.
	nsOnly := testConfig("mod", WriteNamespace)
	all := testConfig("mod", WriteAll)
	for _, v := range allVariants() {
		nsEmit, err := nsOnly.ShouldEmitByType(v)
		require.NoError(t, err)
		if !nsEmit {
			continue
		}
		allEmit, err := all.ShouldEmitByType(v)
		require.NoError(t, err)
		assert.True(t, allEmit, "type %s emitted under namespace scope but not under all", v.Kind())
	}
}

func TestShouldEmitByTypeNamespaceDispatch(t *testing.T) {
	meta := inventory.Meta{Module: "geo"}
	point := &inventory.Composite{Name: "Point", Meta: meta}

	geo := testConfig("geo", WriteNamespace)
	math := testConfig("math", WriteNamespace)

	emit, err := geo.ShouldEmitByType(point)
	require.NoError(t, err)
	assert.True(t, emit)

	emit, err = math.ShouldEmitByType(point)
	require.NoError(t, err)
	assert.False(t, emit)
}

func TestShouldEmitByTypeGlobalsRule(t *testing.T) {
	tests := []struct {
		name  string
		t     inventory.Type
		ns    bool // expected under WriteNamespace
		nsGbl bool // expected under WriteNamespaceAndGlobal
	}{
		{"primitive", inventory.U32, false, true},
		{"array never standalone", &inventory.Array{Elem: inventory.U8, Len: 2}, false, false},
		{"fn pointer namespace free", &inventory.FnPointer{}, true, true},
		{"read pointer", &inventory.ReadPointer{Target: inventory.U8}, false, false},
		{"bool follows globals", inventory.FFIBool{}, false, true},
		{"cchar lowers to builtin", inventory.CChar{}, false, false},
		{"utf8 lowers to builtin", inventory.Utf8String{}, false, false},
		{"cstr always", inventory.CStrPointer{}, true, true},
		{"api version always", inventory.APIVersion{}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testConfig("mod", WriteNamespace)
			emit, err := g.ShouldEmitByType(tt.t)
			require.NoError(t, err)
			assert.Equal(t, tt.ns, emit, "namespace scope")

			g = testConfig("mod", WriteNamespaceAndGlobal)
			emit, err = g.ShouldEmitByType(tt.t)
			require.NoError(t, err)
			assert.Equal(t, tt.nsGbl, emit, "namespace+global scope")
		})
	}
}

func TestShouldEmitMarshallerBoundaryInvariant(t *testing.T) {
	g := testConfig("mod", WriteAll)
	composite := &inventory.Composite{Name: "Point", Meta: inventory.Meta{Module: "mod"}}
	array := &inventory.Array{Elem: inventory.F32, Len: 3}

	assert.True(t, g.ShouldEmitMarshaller(composite))
	assert.True(t, g.ShouldEmitMarshaller(array))

	for _, v := range allVariants() {
		switch v.Kind() {
		case inventory.KindArray, inventory.KindComposite:
			assert.True(t, g.ShouldEmitMarshaller(v))
		default:
			assert.False(t, g.ShouldEmitMarshaller(v), "variant %s", v.Kind())
		}
	}
}

func TestIsCustomMarshalled(t *testing.T) {
	g := testConfig("mod", WriteAll)
	meta := inventory.Meta{Module: "mod"}
	point := &inventory.Composite{Name: "Point", Meta: meta}

	assert.True(t, g.IsCustomMarshalled(point))
	assert.True(t, g.IsCustomMarshalled(&inventory.Slice{Meta: meta, Elem: inventory.U8}))
	assert.True(t, g.IsCustomMarshalled(&inventory.SliceMut{Meta: meta, Elem: inventory.U8}))
	assert.False(t, g.IsCustomMarshalled(inventory.U32))
	assert.False(t, g.IsCustomMarshalled(&inventory.Opaque{Name: "H", Meta: meta}))

	// A plain fn pointer over scalars is not custom marshalled.
	plain := &inventory.FnPointer{Sig: inventory.Signature{
		Params:  []inventory.Param{{Name: "x", Type: inventory.U32}},
		ReturnT: inventory.Void,
	}}
	assert.False(t, g.IsCustomMarshalled(plain))
}

func TestIsCustomMarshalledMonotonicity(t *testing.T) {
	g := testConfig("mod", WriteAll)
	meta := inventory.Meta{Module: "mod"}
	point := &inventory.Composite{Name: "Point", Meta: meta}

	// Inner callback passes a composite, so it is custom marshalled.
	inner := &inventory.NamedCallback{Name: "OnPoint", Meta: meta, Fn: inventory.FnPointer{
		Sig: inventory.Signature{
			Params:  []inventory.Param{{Name: "p", Type: point}},
			ReturnT: inventory.Void,
		},
	}}
	assert.True(t, g.hasCustomMarshalledTypes(inner.Fn.Sig))

	// An enclosing fn pointer taking the inner callback inherits the
	// classification through the delegate-strict walk.
	outer := &inventory.FnPointer{Sig: inventory.Signature{
		Params:  []inventory.Param{{Name: "cb", Type: inner}},
		ReturnT: inventory.Void,
	}}
	assert.True(t, g.IsCustomMarshalled(outer))
	assert.True(t, g.hasCustomMarshalledDelegate(outer.Sig))
}

func TestDelegateStrictWalkIgnoresScalarLeaves(t *testing.T) {
	g := testConfig("mod", WriteAll)
	meta := inventory.Meta{Module: "mod"}
	point := &inventory.Composite{Name: "Point", Meta: meta}

	// The signature passes a composite directly, not through a nested
	// callable: the plain walk flags it, the delegate walk does not.
	sig := inventory.Signature{
		Params:  []inventory.Param{{Name: "p", Type: point}},
		ReturnT: inventory.Void,
	}
	assert.True(t, g.hasCustomMarshalledTypes(sig))
	assert.False(t, g.hasCustomMarshalledDelegate(sig))
}

func TestHasOverloadable(t *testing.T) {
	g := testConfig("mod", WriteAll)
	meta := inventory.Meta{Module: "mod"}
	named := &inventory.NamedCallback{Name: "OnEvent", Meta: meta}
	async := &inventory.AsyncCallback{Name: "OnDone", Meta: meta}

	assert.True(t, g.hasOverloadable(inventory.Signature{
		Params: []inventory.Param{{Name: "cb", Type: named}},
	}))
	assert.True(t, g.hasOverloadable(inventory.Signature{
		Params: []inventory.Param{{Name: "cb", Type: async}},
	}))
	assert.False(t, g.hasOverloadable(inventory.Signature{
		Params: []inventory.Param{{Name: "x", Type: inventory.U32}},
	}))
	// Return position does not count.
	assert.False(t, g.hasOverloadable(inventory.Signature{ReturnT: named}))
}

func TestNativeCallbackTypeSpecifier(t *testing.T) {
	g := testConfig("mod", WriteAll)
	meta := inventory.Meta{Module: "mod"}

	tests := []struct {
		name string
		t    inventory.Type
		want string
	}{
		{"composite gets unmanaged", &inventory.Composite{Name: "Point", Meta: meta}, "Point.Unmanaged"},
		{"enum gets unmanaged", &inventory.Enum{Name: "Err", Meta: meta}, "Err.Unmanaged"},
		{"slice gets unmanaged", &inventory.Slice{Meta: meta, Elem: inventory.U8}, "SliceU8.Unmanaged"},
		{"slice mut gets unmanaged", &inventory.SliceMut{Meta: meta, Elem: inventory.U8}, "SliceMutU8.Unmanaged"},
		{"utf8 gets unmanaged", inventory.Utf8String{}, "Utf8String.Unmanaged"},
		{"primitive stays plain", inventory.U32, "uint"},
		{"opaque stays plain", &inventory.Opaque{Name: "H", Meta: meta}, "H"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.toNativeCallbackTypeSpecifier(tt.t))
		})
	}
}

func TestParseVisibility(t *testing.T) {
	v, err := ParseVisibility("as-declared")
	require.NoError(t, err)
	assert.Equal(t, AsDeclared, v)

	v, err = ParseVisibility("public")
	require.NoError(t, err)
	assert.Equal(t, ForcePublic, v)

	v, err = ParseVisibility("internal")
	require.NoError(t, err)
	assert.Equal(t, ForceInternal, v)

	_, err = ParseVisibility("protected")
	var invalid *InvalidVisibilityError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "protected", invalid.Value)
}

func TestAccessModifier(t *testing.T) {
	assert.Equal(t, "public", AsDeclared.AccessModifier())
	assert.Equal(t, "public", ForcePublic.AccessModifier())
	assert.Equal(t, "internal", ForceInternal.AccessModifier())
}

func TestFunctionNameFlavors(t *testing.T) {
	g := testConfig("", WriteNamespaceAndGlobal)
	f := inventory.Function{Name: "point_add"}

	assert.Equal(t, "point_add", g.functionName(f, FlavorRaw, ""))
	assert.Equal(t, "PointAdd", g.functionName(f, FlavorMethod, ""))
	assert.Equal(t, "Add", g.functionName(f, FlavorMethodNoClass, "Point"))
	// Prefix strip is case-insensitive.
	assert.Equal(t, "Add", g.functionName(f, FlavorMethodNoClass, "POINT"))
}

func TestFunctionNamesDoNotCollidePerFlavor(t *testing.T) {
	g := testConfig("", WriteNamespaceAndGlobal)
	raw := []string{"point_add", "point_new", "point_norm", "ffi_version", "start_op"}

	for _, flavor := range []FunctionNameFlavor{FlavorRaw, FlavorMethod} {
		seen := make(map[string]string)
		for _, name := range raw {
			got := g.functionName(inventory.Function{Name: name}, flavor, "")
			prev, dup := seen[got]
			assert.False(t, dup, "names %q and %q collide under flavor %d as %q", prev, name, flavor, got)
			seen[got] = name
		}
	}
}
