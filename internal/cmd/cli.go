// Package cmd defines the oxbind command line surface. Each command is a
// kong struct with a Run method; the logger is bound by main.
package cmd

// LogOptions configures the slog logger built in main.
type LogOptions struct {
	Level string `help:"Log level: trace, debug, info, warn, error" enum:"trace,debug,info,warn,error" default:"info" env:"OXBIND_LOG_LEVEL"`
	File  string `help:"Write logs to this file instead of stdout/stderr" env:"OXBIND_LOG_FILE"`
}

// CLI is the root command structure parsed by kong.
type CLI struct {
	ConfigFile string     `name:"config" help:"Path to a config file (JSON, YAML or TOML)" env:"OXBIND_CONFIG"`
	Log        LogOptions `embed:"" prefix:"log."`

	Generate Generate      `cmd:"" help:"Generate bindings from an inventory manifest"`
	Config   ConfigCommand `cmd:"" help:"Configuration template helpers"`
}
