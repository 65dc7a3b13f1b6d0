package inventory

// PatternKind identifies the variant of a Pattern for switching.
type PatternKind int

const (
	PatternCStrPointer PatternKind = iota
	PatternAPIVersion
	PatternSlice
	PatternSliceMut
	PatternOption
	PatternResult
	PatternBool
	PatternCChar
	PatternNamedCallback
	PatternAsyncCallback
	PatternVec
	PatternUtf8String
)

func (k PatternKind) String() string {
	switch k {
	case PatternCStrPointer:
		return "CStrPointer"
	case PatternAPIVersion:
		return "APIVersion"
	case PatternSlice:
		return "Slice"
	case PatternSliceMut:
		return "SliceMut"
	case PatternOption:
		return "Option"
	case PatternResult:
		return "Result"
	case PatternBool:
		return "Bool"
	case PatternCChar:
		return "CChar"
	case PatternNamedCallback:
		return "NamedCallback"
	case PatternAsyncCallback:
		return "AsyncCallback"
	case PatternVec:
		return "Vec"
	case PatternUtf8String:
		return "Utf8String"
	default:
		return "Unknown"
	}
}

// Pattern is a recognized higher-level FFI construct that needs coordinated,
// multi-declaration output instead of a plain 1:1 type mapping. Pattern is
// itself a closed sum nested inside Type.
type Pattern interface {
	Type
	PatternKind() PatternKind
}

// CStrPointer is a NUL-terminated read-only C string pointer.
type CStrPointer struct{}

func (CStrPointer) Kind() TypeKind           { return KindPattern }
func (CStrPointer) PatternKind() PatternKind { return PatternCStrPointer }

// APIVersion marks the return type of the library's version guard function.
type APIVersion struct{}

func (APIVersion) Kind() TypeKind           { return KindPattern }
func (APIVersion) PatternKind() PatternKind { return PatternAPIVersion }

// FFIBool is a byte-sized boolean with a guaranteed layout.
type FFIBool struct{}

func (FFIBool) Kind() TypeKind           { return KindPattern }
func (FFIBool) PatternKind() PatternKind { return PatternBool }

// CChar is the platform C char. It lowers to a built-in representation and
// is never emitted as a standalone type.
type CChar struct{}

func (CChar) Kind() TypeKind           { return KindPattern }
func (CChar) PatternKind() PatternKind { return PatternCChar }

// Utf8String is an owned UTF-8 string crossing the boundary.
type Utf8String struct{}

func (Utf8String) Kind() TypeKind           { return KindPattern }
func (Utf8String) PatternKind() PatternKind { return PatternUtf8String }

// Slice pairs a read-only pointer with an element count.
type Slice struct {
	Meta Meta
	Elem Type
}

func (*Slice) Kind() TypeKind           { return KindPattern }
func (*Slice) PatternKind() PatternKind { return PatternSlice }

// SliceMut pairs a mutable pointer with an element count.
type SliceMut struct {
	Meta Meta
	Elem Type
}

func (*SliceMut) Kind() TypeKind           { return KindPattern }
func (*SliceMut) PatternKind() PatternKind { return PatternSliceMut }

// Option is a value that may be absent.
type Option struct {
	Meta  Meta
	Inner Type
}

func (*Option) Kind() TypeKind           { return KindPattern }
func (*Option) PatternKind() PatternKind { return PatternOption }

// Result is a fallible value: Ok payload or an error enum variant.
type Result struct {
	Meta Meta
	Ok   Type
	Err  *Enum
}

func (*Result) Kind() TypeKind           { return KindPattern }
func (*Result) PatternKind() PatternKind { return PatternResult }

// Vec is an owned, growable buffer passed across the boundary.
type Vec struct {
	Meta Meta
	Elem Type
}

func (*Vec) Kind() TypeKind           { return KindPattern }
func (*Vec) PatternKind() PatternKind { return PatternVec }

// NamedCallback wraps a FnPointer with naming metadata so the backend can
// emit a strongly-typed delegate for it.
type NamedCallback struct {
	Name string
	Meta Meta
	Fn   FnPointer
}

func (*NamedCallback) Kind() TypeKind           { return KindPattern }
func (*NamedCallback) PatternKind() PatternKind { return PatternNamedCallback }

// AsyncCallback wraps a FnPointer invoked by the native side on completion
// of an asynchronous operation. Calls are dispatched through a fixed,
// process-lifetime trampoline table.
type AsyncCallback struct {
	Name string
	Meta Meta
	Fn   FnPointer
}

func (*AsyncCallback) Kind() TypeKind           { return KindPattern }
func (*AsyncCallback) PatternKind() PatternKind { return PatternAsyncCallback }

// IsGlobal reports whether t is a cross-cutting type shared by every
// library: scalars and the byte-backed boolean. Global types belong to no
// namespace and are written only when the write scope includes globals.
// Namespace-free markers with their own emission rules (the C string
// pointer, the API version stamp) are not global in this sense, and
// neither are the types that lower to built-in representations.
func IsGlobal(t Type) bool {
	if _, ok := t.(Primitive); ok {
		return true
	}
	p, ok := t.(Pattern)
	return ok && p.PatternKind() == PatternBool
}
