package csharp

import (
	"fmt"
	"strings"

	"github.com/oxbind/oxbind/internal/codegen/common"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// classLayout is the decision table for the class scaffolding: constants
// either share the functions class or get one of their own.
type classLayout int

const (
	layoutShared classLayout = iota
	layoutSplit
)

func (g *Interop) classLayout() classLayout {
	if g.ClassConstants == "" || g.ClassConstants == g.Class {
		return layoutShared
	}
	return layoutSplit
}

// Generate runs validation and the single emission pass, returning the
// complete output unit. On any error no output is returned; the buffered
// writer is discarded.
func (g *Interop) Generate() (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	w := common.NewIndentWriter()
	if err := g.writeAll(w); err != nil {
		return "", err
	}
	return w.String(), nil
}

// writeAll emits the whole unit in fixed order: header, usings, namespace
// scaffold, class scaffold(s), type definitions, patterns, builtins.
func (g *Interop) writeAll(w *common.IndentWriter) error {
	g.writeFileHeader(w)
	w.Newline()

	g.writeImports(w)
	w.Newline()

	return g.writeNamespaceContext(w, func() error {
		switch g.classLayout() {
		case layoutShared:
			if g.hasEmittableFunctions(g.Inventory.Functions()) || g.hasEmittableConstants(g.Inventory.Constants()) {
				if err := g.writeClassContext(w, g.Class, func() error {
					g.writeNativeLibString(w)
					w.Newline()

					g.writeAbiGuard(w)
					w.Newline()

					g.writeAsyncTrampolineInitializers(w)
					w.Newline()

					g.writeConstants(w)
					w.Newline()

					return g.writeFunctions(w)
				}); err != nil {
					return err
				}
			}
		case layoutSplit:
			if g.hasEmittableConstants(g.Inventory.Constants()) {
				if err := g.writeClassContext(w, g.ClassConstants, func() error {
					g.writeConstants(w)
					return nil
				}); err != nil {
					return err
				}
			}

			if g.hasEmittableFunctions(g.Inventory.Functions()) {
				w.Newline()
				if err := g.writeClassContext(w, g.Class, func() error {
					g.writeNativeLibString(w)
					w.Newline()

					g.writeAbiGuard(w)
					w.Newline()

					g.writeAsyncTrampolineInitializers(w)
					w.Newline()

					return g.writeFunctions(w)
				}); err != nil {
					return err
				}
			}
		}

		w.Newline()
		if err := g.writeTypeDefinitions(w); err != nil {
			return err
		}

		w.Newline()
		if err := g.writePatterns(w); err != nil {
			return err
		}

		w.Newline()
		g.writeBuiltins(w)
		return nil
	})
}

func (g *Interop) writeFileHeader(w *common.IndentWriter) {
	header := g.FileHeaderComment
	header = strings.ReplaceAll(header, "{DLL_NAME}", g.DllName)
	header = strings.ReplaceAll(header, "{HASH}", fmt.Sprintf("%X", inventory.Hash(g.Inventory)))
	header = strings.ReplaceAll(header, "{NAMESPACE}", g.NamespaceMappings[g.NamespaceID])
	builder := "oxbind"
	if v, err := common.GetVersion(); err == nil {
		builder += " v" + v
	}
	header = strings.ReplaceAll(header, "{BUILDER}", builder)
	for _, line := range strings.Split(header, "\n") {
		w.Line(line)
	}
}

func (g *Interop) writeImports(w *common.IndentWriter) {
	g.debugMarker(w, "imports")
	w.Line("#pragma warning disable 0105")
	w.Line("using System;")
	w.Line("using System.Collections.Generic;")
	w.Line("using System.Runtime.CompilerServices;")
	w.Line("using System.Runtime.InteropServices;")
	w.Line("using System.Threading.Tasks;")
	for _, ns := range g.mappedNamespaces() {
		w.Linef("using %s;", ns)
	}
	w.Line("#pragma warning restore 0105")
}

func (g *Interop) writeNamespaceContext(w *common.IndentWriter, body func() error) error {
	ns, err := g.namespaceForID(g.NamespaceID)
	if err != nil {
		return err
	}
	w.Linef("namespace %s", ns)
	w.Line("{")
	w.Indent()
	if err := body(); err != nil {
		return err
	}
	w.Unindent()
	w.Line("}")
	return nil
}

func (g *Interop) writeClassContext(w *common.IndentWriter, class string, body func() error) error {
	g.debugMarker(w, "class "+class)
	w.Linef("%s static partial class %s", g.VisibilityTypes.AccessModifier(), class)
	w.Line("{")
	w.Indent()
	if err := body(); err != nil {
		return err
	}
	w.Unindent()
	w.Line("}")
	return nil
}

func (g *Interop) writeNativeLibString(w *common.IndentWriter) {
	g.debugMarker(w, "native lib")
	w.Linef("public const string NativeLib = %q;", g.DllName)
}

// writeDocs emits the user-provided documentation of an item as XML doc
// comments.
func (g *Interop) writeDocs(w *common.IndentWriter, docs []string) {
	if len(docs) == 0 {
		return
	}
	w.Line("/// <summary>")
	for _, line := range docs {
		w.Linef("/// %s", line)
	}
	w.Line("/// </summary>")
}

func (g *Interop) debugMarker(w *common.IndentWriter, marker string) {
	if !g.Debug {
		return
	}
	w.Linef("// Debug - %s", marker)
}
