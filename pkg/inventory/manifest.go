package inventory

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk YAML form of an inventory, produced by an
// annotation front-end or written by hand. LoadManifest resolves it into
// an Inventory; all references must resolve or loading fails.
type Manifest struct {
	Library   string             `yaml:"library"`
	Types     []ManifestType     `yaml:"types"`
	Functions []ManifestFunction `yaml:"functions"`
	Constants []ManifestConstant `yaml:"constants"`
}

type ManifestType struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Module   string            `yaml:"module"`
	Docs     []string          `yaml:"docs"`
	Fields   []ManifestField   `yaml:"fields"`
	Variants []ManifestVariant `yaml:"variants"`
	Params   []ManifestParam   `yaml:"params"`
	Returns  string            `yaml:"returns"`
	Elem     string            `yaml:"elem"`
	Inner    string            `yaml:"inner"`
	Ok       string            `yaml:"ok"`
	Err      string            `yaml:"err"`
}

type ManifestField struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Visibility string   `yaml:"visibility"`
	Docs       []string `yaml:"docs"`
}

type ManifestVariant struct {
	Name  string   `yaml:"name"`
	Value int64    `yaml:"value"`
	Docs  []string `yaml:"docs"`
}

type ManifestParam struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type ManifestFunction struct {
	Name    string          `yaml:"name"`
	Module  string          `yaml:"module"`
	Docs    []string        `yaml:"docs"`
	Params  []ManifestParam `yaml:"params"`
	Returns string          `yaml:"returns"`
}

type ManifestConstant struct {
	Name   string   `yaml:"name"`
	Module string   `yaml:"module"`
	Docs   []string `yaml:"docs"`
	Value  any      `yaml:"value"`
}

// LoadManifest reads and resolves a YAML manifest file.
func LoadManifest(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Inventory{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest resolves manifest bytes into an Inventory.
func ParseManifest(data []byte) (Inventory, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Inventory{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m.Resolve()
}

// Resolve turns the textual manifest into a fully linked Inventory.
// Resolution is two-pass so named types may reference each other in any
// declaration order.
func (m Manifest) Resolve() (Inventory, error) {
	r := &resolver{named: make(map[string]Type)}

	// Pass 1: allocate a shell per named type so references resolve.
	for _, mt := range m.Types {
		if mt.Name == "" {
			return Inventory{}, fmt.Errorf("manifest type with kind %q has no name", mt.Kind)
		}
		if _, dup := r.named[mt.Name]; dup {
			return Inventory{}, fmt.Errorf("duplicate type name %q", mt.Name)
		}
		shell, err := shellFor(mt)
		if err != nil {
			return Inventory{}, err
		}
		r.named[mt.Name] = shell
	}

	// Pass 2: fill the shells.
	var types []Type
	for _, mt := range m.Types {
		t := r.named[mt.Name]
		if err := r.fill(t, mt); err != nil {
			return Inventory{}, fmt.Errorf("type %q: %w", mt.Name, err)
		}
		types = append(types, t)
	}

	var functions []Function
	for _, mf := range m.Functions {
		sig, err := r.signature(mf.Params, mf.Returns)
		if err != nil {
			return Inventory{}, fmt.Errorf("function %q: %w", mf.Name, err)
		}
		functions = append(functions, Function{
			Name: mf.Name,
			Meta: Meta{Module: mf.Module, Docs: mf.Docs},
			Sig:  sig,
		})
	}

	var constants []Constant
	for _, mc := range m.Constants {
		constants = append(constants, Constant{
			Name:  mc.Name,
			Meta:  Meta{Module: mc.Module, Docs: mc.Docs},
			Value: normalizeConstValue(mc.Value),
		})
	}

	return New(functions, constants, types), nil
}

// shellFor allocates the concrete type for a manifest declaration without
// resolving any of its references yet.
func shellFor(mt ManifestType) (Type, error) {
	meta := Meta{Module: mt.Module, Docs: mt.Docs}
	switch mt.Kind {
	case "composite":
		return &Composite{Name: mt.Name, Meta: meta}, nil
	case "opaque":
		return &Opaque{Name: mt.Name, Meta: meta}, nil
	case "enum":
		return &Enum{Name: mt.Name, Meta: meta}, nil
	case "callback":
		return &NamedCallback{Name: mt.Name, Meta: meta}, nil
	case "async_callback":
		return &AsyncCallback{Name: mt.Name, Meta: meta}, nil
	case "slice":
		return &Slice{Meta: meta}, nil
	case "slice_mut":
		return &SliceMut{Meta: meta}, nil
	case "option":
		return &Option{Meta: meta}, nil
	case "result":
		return &Result{Meta: meta}, nil
	case "vec":
		return &Vec{Meta: meta}, nil
	default:
		return nil, fmt.Errorf("type %q: unknown kind %q", mt.Name, mt.Kind)
	}
}

type resolver struct {
	named map[string]Type
}

func (r *resolver) fill(t Type, mt ManifestType) error {
	switch x := t.(type) {
	case *Composite:
		for _, f := range mt.Fields {
			ft, err := r.ref(f.Type)
			if err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
			vis := Public
			switch f.Visibility {
			case "", "public":
			case "private":
				vis = Private
			default:
				return fmt.Errorf("field %q: visibility must be `public` or `private`, got %q", f.Name, f.Visibility)
			}
			x.Fields = append(x.Fields, Field{Name: f.Name, Type: ft, Visibility: vis, Docs: f.Docs})
		}
	case *Opaque:
		// Nothing to resolve.
	case *Enum:
		for _, v := range mt.Variants {
			x.Variants = append(x.Variants, EnumVariant{Name: v.Name, Value: v.Value, Docs: v.Docs})
		}
	case *NamedCallback:
		sig, err := r.signature(mt.Params, mt.Returns)
		if err != nil {
			return err
		}
		x.Fn = FnPointer{Sig: sig}
	case *AsyncCallback:
		sig, err := r.signature(mt.Params, mt.Returns)
		if err != nil {
			return err
		}
		x.Fn = FnPointer{Sig: sig}
	case *Slice:
		elem, err := r.ref(mt.Elem)
		if err != nil {
			return err
		}
		x.Elem = elem
	case *SliceMut:
		elem, err := r.ref(mt.Elem)
		if err != nil {
			return err
		}
		x.Elem = elem
	case *Option:
		inner, err := r.ref(firstNonEmpty(mt.Inner, mt.Elem))
		if err != nil {
			return err
		}
		x.Inner = inner
	case *Result:
		ok, err := r.ref(mt.Ok)
		if err != nil {
			return err
		}
		x.Ok = ok
		if mt.Err != "" {
			et, err := r.ref(mt.Err)
			if err != nil {
				return err
			}
			en, isEnum := et.(*Enum)
			if !isEnum {
				return fmt.Errorf("result err type %q is not an enum", mt.Err)
			}
			x.Err = en
		}
	case *Vec:
		elem, err := r.ref(mt.Elem)
		if err != nil {
			return err
		}
		x.Elem = elem
	}
	return nil
}

func (r *resolver) signature(params []ManifestParam, returns string) (Signature, error) {
	var sig Signature
	for _, p := range params {
		pt, err := r.ref(p.Type)
		if err != nil {
			return Signature{}, fmt.Errorf("param %q: %w", p.Name, err)
		}
		sig.Params = append(sig.Params, Param{Name: p.Name, Type: pt})
	}
	if returns == "" {
		sig.ReturnT = Void
		return sig, nil
	}
	rt, err := r.ref(returns)
	if err != nil {
		return Signature{}, fmt.Errorf("return type: %w", err)
	}
	sig.ReturnT = rt
	return sig, nil
}

// ref parses a type reference. The grammar covers primitives, the builtin
// patterns, pointer/array/generic compounds and named lookups:
//
//	u8 f32 bool void usize cstr utf8_string api_version c_char
//	*const T    *mut T    [N]T
//	slice<T>  slice_mut<T>  option<T>  vec<T>
//	Point  MyCallback      (declared in the manifest)
//
// Inline compound references carry no module of their own; declare a named
// pattern type instead when namespace placement matters.
func (r *resolver) ref(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type reference")
	}

	if p, ok := primitiveByName(s); ok {
		return p, nil
	}
	switch s {
	case "cstr":
		return CStrPointer{}, nil
	case "api_version":
		return APIVersion{}, nil
	case "ffi_bool":
		return FFIBool{}, nil
	case "c_char":
		return CChar{}, nil
	case "utf8_string":
		return Utf8String{}, nil
	}

	if rest, ok := strings.CutPrefix(s, "*const "); ok {
		target, err := r.ref(rest)
		if err != nil {
			return nil, err
		}
		return &ReadPointer{Target: target}, nil
	}
	if rest, ok := strings.CutPrefix(s, "*mut "); ok {
		target, err := r.ref(rest)
		if err != nil {
			return nil, err
		}
		return &ReadWritePointer{Target: target}, nil
	}

	if strings.HasPrefix(s, "[") {
		close := strings.Index(s, "]")
		if close < 0 {
			return nil, fmt.Errorf("malformed array reference %q", s)
		}
		n, err := strconv.Atoi(s[1:close])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("malformed array length in %q", s)
		}
		elem, err := r.ref(s[close+1:])
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem, Len: n}, nil
	}

	if name, arg, ok := splitGeneric(s); ok {
		elem, err := r.ref(arg)
		if err != nil {
			return nil, err
		}
		switch name {
		case "slice":
			return &Slice{Elem: elem}, nil
		case "slice_mut":
			return &SliceMut{Elem: elem}, nil
		case "option":
			return &Option{Inner: elem}, nil
		case "vec":
			return &Vec{Elem: elem}, nil
		default:
			return nil, fmt.Errorf("unknown generic %q in %q", name, s)
		}
	}

	if t, ok := r.named[s]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unresolved type reference %q", s)
}

func primitiveByName(s string) (Primitive, bool) {
	switch s {
	case "void":
		return Void, true
	case "bool":
		return PBool, true
	case "u8":
		return U8, true
	case "u16":
		return U16, true
	case "u32":
		return U32, true
	case "u64":
		return U64, true
	case "i8":
		return I8, true
	case "i16":
		return I16, true
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	case "f32":
		return F32, true
	case "f64":
		return F64, true
	case "usize":
		return USize, true
	case "isize":
		return ISize, true
	default:
		return 0, false
	}
}

func splitGeneric(s string) (name, arg string, ok bool) {
	open := strings.Index(s, "<")
	if open <= 0 || !strings.HasSuffix(s, ">") {
		return "", "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// normalizeConstValue collapses the int widths yaml produces into the
// canonical literal kinds constants support.
func normalizeConstValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64, uint64, float64, bool, string:
		return x
	case float32:
		return float64(x)
	default:
		return v
	}
}
