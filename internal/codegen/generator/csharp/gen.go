package csharp

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oxbind/oxbind/pkg/inventory"
)

// Generate produces one C# interop file per configured namespace unit and
// writes it under outputDir. The file is only written when the whole unit
// generated without error, so no partial output ever lands on disk.
func Generate(logger *slog.Logger, outputDir string, g *Interop) error {
	logger.Debug("Generating C# bindings",
		"namespace", g.NamespaceID,
		"class", g.Class,
		"dll", g.DllName)

	text, err := g.Generate()
	if err != nil {
		return fmt.Errorf("generate C# bindings: %w", err)
	}

	name := g.Class + ".cs"
	if g.NamespaceID != "" {
		name = g.Class + "." + g.NamespaceID + ".cs"
	}
	outputPath := filepath.Join(outputDir, name)
	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}

	logger.Info("Generated C# bindings",
		"path", outputPath,
		"hash", fmt.Sprintf("0x%X", inventory.Hash(g.Inventory)))
	return nil
}
