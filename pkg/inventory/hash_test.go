package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashFixture() Inventory {
	point := &Composite{Name: "Point", Meta: Meta{Module: "geo"}, Fields: []Field{
		{Name: "x", Type: F32}, {Name: "y", Type: F32},
	}}
	return New(
		[]Function{
			{Name: "point_add", Meta: Meta{Module: "geo"}, Sig: Signature{
				Params:  []Param{{Name: "a", Type: point}, {Name: "b", Type: point}},
				ReturnT: point,
			}},
			{Name: "ffi_version", Meta: Meta{Module: "geo"}, Sig: Signature{
				ReturnT: APIVersion{},
			}},
		},
		nil,
		[]Type{point},
	)
}

func TestHashIsDeterministic(t *testing.T) {
	first := Hash(hashFixture())
	second := Hash(hashFixture())
	assert.Equal(t, first, second)
	assert.NotZero(t, first)
}

func TestHashCoversSignatures(t *testing.T) {
	base := Hash(hashFixture())

	// Renaming a function changes the stamp.
	renamed := hashFixture()
	renamed.functions[0].Name = "point_sum"
	assert.NotEqual(t, base, Hash(renamed))

	// Changing a parameter type changes the stamp.
	retyped := hashFixture()
	retyped.functions[0].Sig.Params[0].Type = F64
	assert.NotEqual(t, base, Hash(retyped))

	// Changing the return type changes the stamp.
	rereturned := hashFixture()
	rereturned.functions[0].Sig.ReturnT = Void
	assert.NotEqual(t, base, Hash(rereturned))
}

func TestHashIgnoresNonSignatureData(t *testing.T) {
	base := Hash(hashFixture())

	redocumented := hashFixture()
	redocumented.functions[0].Meta.Docs = []string{"Adds two points."}
	withConstants := New(redocumented.Functions(), []Constant{{Name: "C", Value: int64(1)}}, redocumented.Types())
	assert.Equal(t, base, Hash(withConstants))
}

func TestHashOrderSensitive(t *testing.T) {
	inv := hashFixture()
	swapped := New(
		[]Function{inv.Functions()[1], inv.Functions()[0]},
		nil, inv.Types(),
	)
	assert.NotEqual(t, Hash(inv), Hash(swapped))
}

func TestTypeString(t *testing.T) {
	en := &Enum{Name: "FFIError"}
	point := &Composite{Name: "Point"}

	tests := []struct {
		name string
		t    Type
		want string
	}{
		{"primitive", U8, "u8"},
		{"array", &Array{Elem: F32, Len: 4}, "[4]f32"},
		{"enum", en, "enum:FFIError"},
		{"opaque", &Opaque{Name: "Ctx"}, "opaque:Ctx"},
		{"composite", point, "composite:Point"},
		{"read pointer", &ReadPointer{Target: point}, "*const composite:Point"},
		{"write pointer", &ReadWritePointer{Target: U8}, "*mut u8"},
		{"slice", &Slice{Elem: U8}, "slice<u8>"},
		{"slice mut", &SliceMut{Elem: point}, "slice_mut<composite:Point>"},
		{"option", &Option{Inner: U64}, "option<u64>"},
		{"result", &Result{Ok: point, Err: en}, "result<composite:Point,enum:FFIError>"},
		{"result without error enum", &Result{Ok: U8}, "result<u8,void>"},
		{"vec", &Vec{Elem: U8}, "vec<u8>"},
		{"markers", FFIBool{}, "ffi_bool"},
		{
			"fn pointer",
			&FnPointer{Sig: Signature{Params: []Param{{Type: U8}}, ReturnT: U32}},
			"fn(u8)->u32",
		},
		{
			"named callback",
			&NamedCallback{Name: "OnEvent", Fn: FnPointer{Sig: Signature{Params: []Param{{Type: point}}}}},
			"callback:OnEvent(composite:Point)->void",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TypeString(tt.t))
		})
	}
}
