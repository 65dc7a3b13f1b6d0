// Package inventory holds the resolved description of a native library's
// exported surface: functions, constants and types, each tagged with the
// module (namespace id) that owns it. An Inventory is built once, never
// mutated, and handed to a backend for code generation.
package inventory

// TypeKind identifies the variant of a Type for switching.
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindArray
	KindEnum
	KindOpaque
	KindComposite
	KindFnPointer
	KindReadPointer
	KindReadWritePointer
	KindPattern
)

func (k TypeKind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindArray:
		return "Array"
	case KindEnum:
		return "Enum"
	case KindOpaque:
		return "Opaque"
	case KindComposite:
		return "Composite"
	case KindFnPointer:
		return "FnPointer"
	case KindReadPointer:
		return "ReadPointer"
	case KindReadWritePointer:
		return "ReadWritePointer"
	case KindPattern:
		return "Pattern"
	default:
		return "Unknown"
	}
}

// Type is the closed sum of everything that can cross the FFI boundary.
type Type interface {
	Kind() TypeKind
}

// Meta is attached to every function, constant and named type. Module is the
// namespace id the item belongs to; it must resolve through the backend's
// namespace mapping table or generation fails.
type Meta struct {
	Module string
	Docs   []string
}

// Primitive is a fixed-layout scalar with an identical representation on
// both sides of the boundary.
type Primitive int

const (
	Void Primitive = iota
	PBool
	U8
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F32
	F64
	USize
	ISize
)

func (Primitive) Kind() TypeKind { return KindPrimitive }

func (p Primitive) String() string {
	switch p {
	case Void:
		return "void"
	case PBool:
		return "bool"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case USize:
		return "usize"
	case ISize:
		return "isize"
	default:
		return "unknown"
	}
}

// Array is a fixed-length inline array. Arrays never appear as standalone
// declarations; they are inlined at their use sites.
type Array struct {
	Elem Type
	Len  int
}

func (*Array) Kind() TypeKind { return KindArray }

// EnumVariant is a single named value of an Enum.
type EnumVariant struct {
	Name  string
	Value int64
	Docs  []string
}

// Enum is a C-style enumeration.
type Enum struct {
	Name     string
	Meta     Meta
	Variants []EnumVariant
}

func (*Enum) Kind() TypeKind { return KindEnum }

// Opaque is a type whose layout is hidden; it only ever travels behind a
// pointer. Opaque never recurses, which bounds every classifier walk.
type Opaque struct {
	Name string
	Meta Meta
}

func (*Opaque) Kind() TypeKind { return KindOpaque }

// Visibility mirrors the declared visibility of a composite field.
type Visibility int

const (
	Public Visibility = iota
	Private
)

// Field is a named, typed member of a Composite.
type Field struct {
	Name       string
	Type       Type
	Visibility Visibility
	Docs       []string
}

// Composite is a struct-like type with a defined field layout.
type Composite struct {
	Name   string
	Meta   Meta
	Fields []Field
}

func (*Composite) Kind() TypeKind { return KindComposite }

// Param is one named parameter of a Signature.
type Param struct {
	Name string
	Type Type
}

// Signature is an ordered parameter list plus a return type. Order is
// significant and preserved exactly in emitted code.
type Signature struct {
	Params  []Param
	ReturnT Type
}

// ReturnType returns the return type, defaulting to Void when unset.
func (s Signature) ReturnType() Type {
	if s.ReturnT == nil {
		return Void
	}
	return s.ReturnT
}

// FnPointer is a raw function pointer with no naming metadata. Function
// pointer typedefs are namespace-free.
type FnPointer struct {
	Sig Signature
}

func (*FnPointer) Kind() TypeKind { return KindFnPointer }

// ReadPointer is a pointer the callee may only read through.
type ReadPointer struct {
	Target Type
}

func (*ReadPointer) Kind() TypeKind { return KindReadPointer }

// ReadWritePointer is a pointer the callee may write through.
type ReadWritePointer struct {
	Target Type
}

func (*ReadWritePointer) Kind() TypeKind { return KindReadWritePointer }

// Function is one exported native function.
type Function struct {
	Name string
	Meta Meta
	Sig  Signature
}

// Constant is one exported constant with a literal value of type
// int64, uint64, float64, bool or string.
type Constant struct {
	Name  string
	Meta  Meta
	Value any
}
