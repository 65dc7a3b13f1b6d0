package common

import (
	"fmt"
	"strings"
)

// IndentWriter accumulates generated source text with block-scoped
// indentation. It is the only mutable state of a generation run and is
// owned by exactly one run; the buffered text is discarded when the run
// fails, so callers never see partial output.
type IndentWriter struct {
	sb     strings.Builder
	level  int
	indent string
}

// NewIndentWriter returns a writer indenting with four spaces per level.
func NewIndentWriter() *IndentWriter {
	return &IndentWriter{indent: "    "}
}

func (w *IndentWriter) Indent() { w.level++ }

func (w *IndentWriter) Unindent() {
	if w.level > 0 {
		w.level--
	}
}

// Line writes one indented line followed by a newline.
func (w *IndentWriter) Line(s string) {
	if s != "" {
		w.sb.WriteString(strings.Repeat(w.indent, w.level))
		w.sb.WriteString(s)
	}
	w.sb.WriteByte('\n')
}

// Linef writes one indented, formatted line.
func (w *IndentWriter) Linef(format string, args ...any) {
	w.Line(fmt.Sprintf(format, args...))
}

// Newline writes an empty line.
func (w *IndentWriter) Newline() { w.Line("") }

// Block runs body one level deeper between `{` and `}` lines.
func (w *IndentWriter) Block(body func()) {
	w.Line("{")
	w.Indent()
	body()
	w.Unindent()
	w.Line("}")
}

// String returns everything written so far.
func (w *IndentWriter) String() string { return w.sb.String() }
