// Package csharp generates C# bindings for a native library from its
// inventory. One Interop value describes one output unit (one namespace,
// one .cs file); generation is a single deterministic pass over the
// immutable inventory and never mutates it, so multiple units may be
// generated concurrently from the same inventory.
package csharp

import (
	"sort"

	"github.com/oxbind/oxbind/internal/codegen/common"
	"github.com/oxbind/oxbind/pkg/inventory"
)

const defaultFileHeader = `// <auto-generated>
//
// This file was automatically generated by oxbind.
//
// Library:      {DLL_NAME}
// Hash:         0x{HASH}
// Namespace:    {NAMESPACE}
// Builder:      {BUILDER}
//
// Do not edit this file manually.
//
// </auto-generated>`

// FunctionNameFlavor controls how raw exported names become C# names.
type FunctionNameFlavor int

const (
	// FlavorRaw keeps the name exactly as exported.
	FlavorRaw FunctionNameFlavor = iota
	// FlavorMethod converts the name to PascalCase.
	FlavorMethod
	// FlavorMethodNoClass converts to PascalCase and strips the owning
	// class name prefix; set ClassPrefix alongside it.
	FlavorMethodNoClass
)

// Visibility selects the access modifiers of generated types.
type Visibility int

const (
	// AsDeclared mimics the declared visibility of the source items.
	AsDeclared Visibility = iota
	// ForcePublic emits everything public.
	ForcePublic
	// ForceInternal emits everything internal.
	ForceInternal
)

// AccessModifier returns the C# access modifier keyword.
func (v Visibility) AccessModifier() string {
	switch v {
	// AsDeclared keeps the historic behavior of emitting everything
	// public until per-item visibility is threaded through.
	case AsDeclared, ForcePublic:
		return "public"
	case ForceInternal:
		return "internal"
	default:
		return "public"
	}
}

// ParseVisibility maps a config string to a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "as-declared":
		return AsDeclared, nil
	case "public":
		return ForcePublic, nil
	case "internal":
		return ForceInternal, nil
	default:
		return 0, &InvalidVisibilityError{Value: s}
	}
}

// WriteTypes is the write-scope policy of one output unit.
type WriteTypes int

const (
	// WriteNamespace writes only items owned by this namespace.
	WriteNamespace WriteTypes = iota
	// WriteNamespaceAndGlobal additionally writes cross-cutting global
	// types such as the boolean wrapper.
	WriteNamespaceAndGlobal
	// WriteAll writes every type in the inventory regardless of
	// namespace association.
	WriteAll
)

// WriteGlobals reports whether global types are in scope.
func (w WriteTypes) WriteGlobals() bool {
	return w != WriteNamespace
}

// ParseWriteTypes maps a config string to a WriteTypes policy.
func ParseWriteTypes(s string) (WriteTypes, bool) {
	switch s {
	case "namespace":
		return WriteNamespace, true
	case "", "namespace-and-global":
		return WriteNamespaceAndGlobal, true
	case "all":
		return WriteAll, true
	default:
		return 0, false
	}
}

// Interop describes one C# generation run. Construct it, set fields, then
// call Generate. The zero value is not usable; use NewInterop for defaults.
type Interop struct {
	// FileHeaderComment is emitted verbatim at the top of the file after
	// token substitution ({DLL_NAME}, {HASH}, {NAMESPACE}, {BUILDER}).
	FileHeaderComment string
	// Class is the static class holding interop methods, e.g. "Interop".
	Class string
	// ClassConstants optionally names a separate static class for
	// constants. Empty means constants share Class.
	ClassConstants string
	// DllName is the native library load name, e.g. "my_library".
	DllName string
	// NamespaceMappings maps namespace ids to fully qualified C#
	// namespaces, e.g. "common" => "MyCompany.Common".
	NamespaceMappings map[string]string
	// NamespaceID is the namespace id this unit emits (default "").
	NamespaceID string
	// VisibilityTypes sets access modifiers for generated types.
	VisibilityTypes Visibility
	// WriteTypes is the write-scope policy.
	WriteTypes WriteTypes
	// Debug adds marker comments for easier debugging of the generator.
	Debug bool
	// DocHints enriches item documentation with safety warnings.
	DocHints bool

	Inventory inventory.Inventory
}

// NewInterop returns an Interop with the same defaults the original
// generator ships with.
func NewInterop(inv inventory.Inventory) *Interop {
	return &Interop{
		FileHeaderComment: defaultFileHeader,
		Class:             "Interop",
		DllName:           "library",
		NamespaceMappings: map[string]string{"": "My.Company"},
		VisibilityTypes:   AsDeclared,
		WriteTypes:        WriteNamespaceAndGlobal,
		DocHints:          true,
		Inventory:         inv,
	}
}

// Validate checks the configuration against the inventory before any
// output is produced. Every module id used by the inventory must have a
// namespace mapping, and enum-like settings must be in range.
func (g *Interop) Validate() error {
	if g.VisibilityTypes < AsDeclared || g.VisibilityTypes > ForceInternal {
		return &InvalidVisibilityError{Value: "unknown"}
	}
	for _, id := range g.Inventory.Modules() {
		if _, ok := g.NamespaceMappings[id]; !ok {
			return &MissingNamespaceMappingError{ID: id}
		}
	}
	if _, ok := g.NamespaceMappings[g.NamespaceID]; !ok {
		return &MissingNamespaceMappingError{ID: g.NamespaceID}
	}
	return nil
}

// namespaceForID resolves a module id through the mapping table.
func (g *Interop) namespaceForID(id string) (string, error) {
	ns, ok := g.NamespaceMappings[id]
	if !ok {
		return "", &MissingNamespaceMappingError{ID: id}
	}
	return ns, nil
}

// mappedNamespaces returns all mapped FQNs except the current one, sorted,
// for the using block.
func (g *Interop) mappedNamespaces() []string {
	current := g.NamespaceMappings[g.NamespaceID]
	seen := make(map[string]bool)
	var out []string
	for _, fqn := range g.NamespaceMappings {
		if fqn == current || seen[fqn] {
			continue
		}
		seen[fqn] = true
		out = append(out, fqn)
	}
	sort.Strings(out)
	return out
}

// functionName renders a function's display name under the given flavor.
// classPrefix is only used by FlavorMethodNoClass.
func (g *Interop) functionName(f inventory.Function, flavor FunctionNameFlavor, classPrefix string) string {
	switch flavor {
	case FlavorMethod:
		return common.ToPascalCase(f.Name)
	case FlavorMethodNoClass:
		return common.TrimNamePrefix(common.ToPascalCase(f.Name), classPrefix)
	default:
		return f.Name
	}
}

// shouldEmitByMeta reports whether an item belongs to the current unit's
// namespace.
func (g *Interop) shouldEmitByMeta(meta inventory.Meta) bool {
	return meta.Module == g.NamespaceID
}

func (g *Interop) hasEmittableFunctions(functions []inventory.Function) bool {
	for _, f := range functions {
		if g.shouldEmitByMeta(f.Meta) {
			return true
		}
	}
	return false
}

func (g *Interop) hasEmittableConstants(constants []inventory.Constant) bool {
	for _, c := range constants {
		if g.shouldEmitByMeta(c.Meta) {
			return true
		}
	}
	return false
}

// ShouldEmitByType decides whether a standalone type definition for t
// belongs in this output unit. It is total over every Type and Pattern
// variant; an unknown variant is a defect and surfaces as
// UnsupportedTypePatternError.
func (g *Interop) ShouldEmitByType(t inventory.Type) (bool, error) {
	if g.WriteTypes == WriteAll {
		return true, nil
	}

	if inventory.IsGlobal(t) {
		return g.WriteTypes == WriteNamespaceAndGlobal, nil
	}

	switch x := t.(type) {
	case inventory.Primitive:
		return g.WriteTypes == WriteNamespaceAndGlobal, nil
	case *inventory.Array:
		// Arrays are inlined at use sites, never standalone.
		return false, nil
	case *inventory.Enum:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.Opaque:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.Composite:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.FnPointer:
		// Function pointer typedefs are namespace-free.
		return true, nil
	case *inventory.ReadPointer, *inventory.ReadWritePointer:
		return false, nil
	case inventory.Pattern:
		return g.shouldEmitPattern(x)
	default:
		return false, &UnsupportedTypePatternError{Variant: t.Kind().String()}
	}
}

func (g *Interop) shouldEmitPattern(p inventory.Pattern) (bool, error) {
	switch x := p.(type) {
	case inventory.CStrPointer, inventory.APIVersion:
		return true, nil
	case *inventory.Slice:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.SliceMut:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.Option:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.Result:
		return g.shouldEmitByMeta(x.Meta), nil
	case inventory.FFIBool:
		return g.WriteTypes == WriteNamespaceAndGlobal, nil
	case inventory.CChar, inventory.Utf8String:
		// These lower to built-in representations.
		return false, nil
	case *inventory.NamedCallback:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.AsyncCallback:
		return g.shouldEmitByMeta(x.Meta), nil
	case *inventory.Vec:
		return g.shouldEmitByMeta(x.Meta), nil
	default:
		return false, &UnsupportedTypePatternError{Variant: p.PatternKind().String()}
	}
}

// emissionTypes returns every type this unit may need to declare: the
// inventory's standalone types in their stable order, followed by named and
// pattern types reachable only through function signatures, in first-seen
// order. Without the signature walk a callback passed to a function but
// never listed as a standalone type would be referenced by the extern
// overload yet never declared.
func (g *Interop) emissionTypes() []inventory.Type {
	seen := make(map[inventory.Type]bool)
	var out []inventory.Type

	var add func(t inventory.Type)
	add = func(t inventory.Type) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true

		switch x := t.(type) {
		case *inventory.Array:
			add(x.Elem)
		case *inventory.ReadPointer:
			add(x.Target)
		case *inventory.ReadWritePointer:
			add(x.Target)
		case *inventory.Enum, *inventory.Opaque:
			out = append(out, t)
		case *inventory.Composite:
			out = append(out, x)
			for _, f := range x.Fields {
				add(f.Type)
			}
		case *inventory.FnPointer:
			out = append(out, x)
			for _, p := range x.Sig.Params {
				add(p.Type)
			}
			add(x.Sig.ReturnType())
		case *inventory.Slice:
			out = append(out, x)
			add(x.Elem)
		case *inventory.SliceMut:
			out = append(out, x)
			add(x.Elem)
		case *inventory.Option:
			out = append(out, x)
			add(x.Inner)
		case *inventory.Result:
			out = append(out, x)
			add(x.Ok)
			if x.Err != nil {
				add(x.Err)
			}
		case *inventory.Vec:
			out = append(out, x)
			add(x.Elem)
		case *inventory.NamedCallback:
			out = append(out, x)
			for _, p := range x.Fn.Sig.Params {
				add(p.Type)
			}
			add(x.Fn.Sig.ReturnType())
		case *inventory.AsyncCallback:
			out = append(out, x)
			for _, p := range x.Fn.Sig.Params {
				add(p.Type)
			}
			add(x.Fn.Sig.ReturnType())
		}
		// Primitives and marker patterns never stand alone; builtins
		// cover the ones that need shared declarations.
	}

	for _, t := range g.Inventory.Types() {
		add(t)
	}
	for _, f := range g.Inventory.Functions() {
		for _, p := range f.Sig.Params {
			add(p.Type)
		}
		add(f.Sig.ReturnType())
	}
	return out
}

// ShouldEmitMarshaller reports whether t needs generated marshalling glue.
// Arrays and composites always do; their layout requires an explicit
// conversion step.
func (g *Interop) ShouldEmitMarshaller(t inventory.Type) bool {
	switch t.Kind() {
	case inventory.KindArray, inventory.KindComposite:
		return true
	default:
		return false
	}
}

// IsCustomMarshalled reports whether a value of type t crossing the
// boundary needs custom marshalling code. Slices always do: they carry a
// pointer and a length together. Callback types inherit the requirement
// from their signatures.
func (g *Interop) IsCustomMarshalled(t inventory.Type) bool {
	if g.ShouldEmitMarshaller(t) {
		return true
	}
	switch x := t.(type) {
	case *inventory.FnPointer:
		return g.hasCustomMarshalledDelegate(x.Sig)
	case *inventory.NamedCallback:
		return g.hasCustomMarshalledDelegate(x.Fn.Sig)
	case *inventory.Slice, *inventory.SliceMut:
		return true
	default:
		return false
	}
}

// hasCustomMarshalledTypes reports whether any parameter or the return
// type of sig is custom marshalled.
func (g *Interop) hasCustomMarshalledTypes(sig inventory.Signature) bool {
	for _, p := range sig.Params {
		if g.IsCustomMarshalled(p.Type) {
			return true
		}
	}
	return g.IsCustomMarshalled(sig.ReturnType())
}

// hasCustomMarshalledDelegate is the delegate-strict variant: it only
// recurses into nested function pointer and named callback types, not
// plain custom-marshalled leaves, because a delegate needs its own
// marshaller only when a nested callable does.
func (g *Interop) hasCustomMarshalledDelegate(sig inventory.Signature) bool {
	check := func(t inventory.Type) bool {
		switch x := t.(type) {
		case *inventory.FnPointer:
			return g.hasCustomMarshalledTypes(x.Sig)
		case *inventory.NamedCallback:
			return g.hasCustomMarshalledTypes(x.Fn.Sig)
		default:
			return false
		}
	}
	for _, p := range sig.Params {
		if check(p.Type) {
			return true
		}
	}
	return check(sig.ReturnType())
}

// hasOverloadable reports whether the function should additionally get an
// overload accepting host-native delegates instead of raw callback
// representations.
func (g *Interop) hasOverloadable(sig inventory.Signature) bool {
	for _, p := range sig.Params {
		pat, ok := p.Type.(inventory.Pattern)
		if !ok {
			continue
		}
		switch pat.PatternKind() {
		case inventory.PatternNamedCallback, inventory.PatternAsyncCallback:
			return true
		}
	}
	return false
}

// toNativeCallbackTypeSpecifier renders the type reference used when
// declaring the native-compatible flavor of a callback signature.
// Layout-sensitive types get their distinct unmanaged representation.
// Enums take the unmanaged variant here even though they never need a
// marshaller elsewhere; kept as-is pending confirmation against the
// upstream test corpus.
func (g *Interop) toNativeCallbackTypeSpecifier(t inventory.Type) string {
	switch t.(type) {
	case *inventory.Slice, *inventory.SliceMut, inventory.Utf8String,
		*inventory.Composite, *inventory.Enum:
		return g.typeName(t) + ".Unmanaged"
	default:
		return g.typeName(t)
	}
}
