package cmd

import (
	"log/slog"

	"github.com/oxbind/oxbind/internal/codegen/generator"
	"github.com/oxbind/oxbind/pkg/inventory"
)

// Generate runs one binding-generation pass over an inventory manifest.
type Generate struct {
	Manifest string `arg:"" help:"Inventory manifest file (YAML)" type:"existingfile"`

	Output         string            `help:"Output directory for generated bindings" default:"./bindings" env:"OXBIND_OUTPUT"`
	Lang           string            `help:"Target language" default:"csharp" enum:"csharp" env:"OXBIND_LANG"`
	Class          string            `help:"Name of the static class for interop methods" default:"Interop"`
	ClassConstants string            `help:"Separate static class for constants; defaults to --class"`
	DllName        string            `help:"Native library load name" default:"library"`
	NsMap          map[string]string `name:"ns-map" help:"Namespace id to fully qualified namespace (id=FQN;...)" mapsep:";"`
	Namespace      []string          `help:"Namespace ids to emit, one output unit each (default: the root namespace)"`
	Visibility     string            `help:"Access modifiers for generated types" enum:"as-declared,public,internal" default:"as-declared"`
	WriteScope     string            `help:"Which types to write" enum:"namespace,namespace-and-global,all" default:"namespace-and-global"`
	Debug          bool              `help:"Emit debug markers into the generated code"`
	DocHints       bool              `help:"Enrich documentation with safety and usage hints" default:"true" negatable:""`
}

// Run is called by kong when the generate command is executed.
func (c *Generate) Run(logger *slog.Logger) error {
	logger.Info("Starting binding generation",
		"manifest", c.Manifest,
		"output", c.Output,
		"lang", c.Lang)

	inv, err := inventory.LoadManifest(c.Manifest)
	if err != nil {
		return err
	}

	nsMap := c.NsMap
	if nsMap == nil {
		nsMap = map[string]string{}
	}
	if _, ok := nsMap[""]; !ok {
		nsMap[""] = "My.Company"
	}

	gen := generator.New(c.Output, logger)
	return gen.GenerateLang(c.Lang, inv, generator.Options{
		Class:             c.Class,
		ClassConstants:    c.ClassConstants,
		DllName:           c.DllName,
		NamespaceMappings: nsMap,
		Namespaces:        c.Namespace,
		Visibility:        c.Visibility,
		WriteScope:        c.WriteScope,
		Debug:             c.Debug,
		DocHints:          c.DocHints,
	})
}
