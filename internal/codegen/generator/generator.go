// Package generator routes a generation request to the language backend
// that handles it. One Generator is built per invocation and may fan out
// to several namespaces of the same inventory.
package generator

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oxbind/oxbind/internal/codegen/generator/csharp"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// Options carries the language-independent knobs of one generation run.
type Options struct {
	Class             string
	ClassConstants    string
	DllName           string
	NamespaceMappings map[string]string
	Namespaces        []string
	Visibility        string
	WriteScope        string
	Debug             bool
	DocHints          bool
}

// LanguageGenerator generates bindings for one language into outputDir.
type LanguageGenerator func(logger *slog.Logger, outputDir string, inv inventory.Inventory, opts Options) error

var generators = map[string]LanguageGenerator{
	"csharp": generateCSharp,
}

// Generator orchestrates binding generation for all target languages.
type Generator struct {
	outputDir string
	logger    *slog.Logger
}

func New(outputDir string, logger *slog.Logger) *Generator {
	return &Generator{
		outputDir: outputDir,
		logger:    logger,
	}
}

// GenerateLang runs the binding generator for the provided language key.
func (g *Generator) GenerateLang(lang string, inv inventory.Inventory, opts Options) error {
	gen, ok := generators[lang]
	if !ok {
		var supported []string
		for k := range generators {
			supported = append(supported, k)
		}
		return fmt.Errorf("unsupported language '%s' (supported: %v)", lang, supported)
	}

	g.logger.Info("Generating bindings", "language", lang)

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s output directory: %w", lang, err)
	}

	if err := gen(g.logger, g.outputDir, inv, opts); err != nil {
		return err
	}

	g.logger.Info("Binding generation complete", "language", lang, "output", g.outputDir)
	return nil
}

// generateCSharp emits one output unit per requested namespace id. Units
// are independent: each owns its writer and reads the shared immutable
// inventory.
func generateCSharp(logger *slog.Logger, outputDir string, inv inventory.Inventory, opts Options) error {
	visibility, err := csharp.ParseVisibility(opts.Visibility)
	if err != nil {
		return err
	}
	writeScope, ok := csharp.ParseWriteTypes(opts.WriteScope)
	if !ok {
		return fmt.Errorf("unsupported write scope %q (expected namespace, namespace-and-global or all)", opts.WriteScope)
	}

	namespaces := opts.Namespaces
	if len(namespaces) == 0 {
		namespaces = []string{""}
	}

	for _, ns := range namespaces {
		cfg := csharp.NewInterop(inv)
		cfg.Class = opts.Class
		cfg.ClassConstants = opts.ClassConstants
		cfg.DllName = opts.DllName
		cfg.NamespaceMappings = opts.NamespaceMappings
		cfg.NamespaceID = ns
		cfg.VisibilityTypes = visibility
		cfg.WriteTypes = writeScope
		cfg.Debug = opts.Debug
		cfg.DocHints = opts.DocHints

		if err := csharp.Generate(logger, outputDir, cfg); err != nil {
			return err
		}
	}
	return nil
}
