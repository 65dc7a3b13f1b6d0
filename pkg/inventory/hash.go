package inventory

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hash digests every function signature of the inventory into a single
// version stamp. Bindings embed the stamp at generation time; the emitted
// API guard compares it against the loaded library at startup, so the two
// sides must compute it identically.
func Hash(inv Inventory) uint64 {
	h, err := blake2b.New(8, nil)
	if err != nil {
		// Keyless blake2b with a valid size cannot fail.
		panic(err)
	}
	for _, f := range inv.Functions() {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		for _, p := range f.Sig.Params {
			h.Write([]byte(TypeString(p.Type)))
			h.Write([]byte{0})
		}
		h.Write([]byte(TypeString(f.Sig.ReturnType())))
		h.Write([]byte{0xff})
	}
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// TypeString renders a canonical, unambiguous spelling of a type. It is the
// hashing alphabet, not a display name; changing it invalidates every
// previously generated guard.
func TypeString(t Type) string {
	switch x := t.(type) {
	case Primitive:
		return x.String()
	case *Array:
		return fmt.Sprintf("[%d]%s", x.Len, TypeString(x.Elem))
	case *Enum:
		return "enum:" + x.Name
	case *Opaque:
		return "opaque:" + x.Name
	case *Composite:
		return "composite:" + x.Name
	case *FnPointer:
		return "fn" + signatureString(x.Sig)
	case *ReadPointer:
		return "*const " + TypeString(x.Target)
	case *ReadWritePointer:
		return "*mut " + TypeString(x.Target)
	case CStrPointer:
		return "cstr"
	case APIVersion:
		return "api_version"
	case FFIBool:
		return "ffi_bool"
	case CChar:
		return "c_char"
	case Utf8String:
		return "utf8_string"
	case *Slice:
		return "slice<" + TypeString(x.Elem) + ">"
	case *SliceMut:
		return "slice_mut<" + TypeString(x.Elem) + ">"
	case *Option:
		return "option<" + TypeString(x.Inner) + ">"
	case *Result:
		err := "void"
		if x.Err != nil {
			err = "enum:" + x.Err.Name
		}
		return "result<" + TypeString(x.Ok) + "," + err + ">"
	case *Vec:
		return "vec<" + TypeString(x.Elem) + ">"
	case *NamedCallback:
		return "callback:" + x.Name + signatureString(x.Fn.Sig)
	case *AsyncCallback:
		return "async_callback:" + x.Name + signatureString(x.Fn.Sig)
	default:
		return fmt.Sprintf("unknown:%T", t)
	}
}

func signatureString(sig Signature) string {
	parts := make([]string, 0, len(sig.Params))
	for _, p := range sig.Params {
		parts = append(parts, TypeString(p.Type))
	}
	return "(" + strings.Join(parts, ",") + ")->" + TypeString(sig.ReturnType())
}
