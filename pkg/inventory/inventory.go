package inventory

// Inventory is the root entity: the complete, resolved surface of one
// native library. Order of the contained slices is stable (manifest order)
// so generation output is deterministic. Immutable once constructed.
type Inventory struct {
	functions []Function
	constants []Constant
	types     []Type
}

// New builds an Inventory from the given items. The slices are copied so
// later mutation by the caller cannot leak into a generation run.
func New(functions []Function, constants []Constant, types []Type) Inventory {
	inv := Inventory{
		functions: make([]Function, len(functions)),
		constants: make([]Constant, len(constants)),
		types:     make([]Type, len(types)),
	}
	copy(inv.functions, functions)
	copy(inv.constants, constants)
	copy(inv.types, types)
	return inv
}

func (i Inventory) Functions() []Function { return i.functions }
func (i Inventory) Constants() []Constant { return i.constants }
func (i Inventory) Types() []Type         { return i.types }

// FunctionsByModule returns the functions owned by the given module id,
// preserving inventory order.
func (i Inventory) FunctionsByModule(module string) []Function {
	var out []Function
	for _, f := range i.functions {
		if f.Meta.Module == module {
			out = append(out, f)
		}
	}
	return out
}

// Modules returns the distinct module ids used by functions, constants and
// named types, in first-seen order.
func (i Inventory) Modules() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(m string) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, f := range i.functions {
		add(f.Meta.Module)
	}
	for _, c := range i.constants {
		add(c.Meta.Module)
	}
	for _, t := range i.types {
		if m, ok := metaOf(t); ok {
			add(m.Module)
		}
	}
	return out
}

// metaOf returns the Meta of a named type, or false for types that carry
// no namespace association.
func metaOf(t Type) (Meta, bool) {
	switch x := t.(type) {
	case *Enum:
		return x.Meta, true
	case *Opaque:
		return x.Meta, true
	case *Composite:
		return x.Meta, true
	case *Slice:
		return x.Meta, true
	case *SliceMut:
		return x.Meta, true
	case *Option:
		return x.Meta, true
	case *Result:
		return x.Meta, true
	case *Vec:
		return x.Meta, true
	case *NamedCallback:
		return x.Meta, true
	case *AsyncCallback:
		return x.Meta, true
	default:
		return Meta{}, false
	}
}

// MetaOf exposes metaOf for backends.
func MetaOf(t Type) (Meta, bool) { return metaOf(t) }
