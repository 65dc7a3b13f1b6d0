package csharp

import (
	"github.com/oxbind/oxbind/internal/codegen/common"
)

// writeConstants emits every constant owned by the current namespace as a
// C# const with its literal value.
func (g *Interop) writeConstants(w *common.IndentWriter) {
	g.debugMarker(w, "constants")
	for _, c := range g.Inventory.Constants() {
		if !g.shouldEmitByMeta(c.Meta) {
			continue
		}
		if g.DocHints {
			g.writeDocs(w, c.Meta.Docs)
		}
		csType, literal := constLiteral(c.Value)
		w.Linef("public const %s %s = %s;", csType, c.Name, literal)
	}
}
