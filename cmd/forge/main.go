// Command forge resolves design-token documents into CSS custom-property
// bindings, audits the result, and serves it to MCP clients.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
	"github.com/borderux/recursica-forge-sub006/pkg/util"
	"github.com/borderux/recursica-forge-sub006/samples"
)

const version = "0.1.0-dev"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	config    string
	tokens    string
	theme     string
	spec      string
	namespace string
	mode      string
	logLevel  string
	logFormat string
	mcpLog    string
	sample    bool
	lenient   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "forge",
		Short:         "forge – design-token binding resolver",
		Long:          "Forge turns token, theme and component-specification documents into a flat map of CSS custom-property bindings.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("forge {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "Project config file (default: "+defaultConfigPath+")")
	pf.StringVar(&flags.tokens, "tokens", "", "Token document (default: "+defaultTokensPath+")")
	pf.StringVar(&flags.theme, "theme", "", "Theme document (default: "+defaultThemePath+")")
	pf.StringVar(&flags.spec, "spec", "", "Component-specification document (default: "+defaultSpecPath+")")
	pf.StringVar(&flags.namespace, "namespace", "", "Binding name prefix (default: recursica)")
	pf.StringVar(&flags.mode, "mode", "", "Display mode: light or dark (default: first mode in the theme)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&flags.sample, "sample", false, "Use the embedded sample documents instead of files")
	pf.BoolVar(&flags.lenient, "lenient", false, "Also resolve modeless brand/theme, ui-kit and top-level tokens references")

	root.AddCommand(
		newResolveCmd(&flags),
		newAuditCmd(&flags),
		newInspectCmd(&flags),
		newWatchCmd(&flags),
		newServeCmd(&flags),
		newInitCmd(),
		newVersionCmd(),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, cmd.CommandPath())
	})
	return root
}

// newLogger builds the command logger; output goes to the command's stderr.
func newLogger(cmd *cobra.Command, s settings) *slog.Logger {
	cfg := util.LoggerConfigFrom(s.LogLevel, s.LogFormat)
	cfg.Output = cmd.ErrOrStderr()
	return util.NewLogger(cfg)
}

// loadDocuments returns the embedded samples when --sample is set, otherwise
// reads the configured documents.
func loadDocuments(flags *globalFlags, s settings, logger *slog.Logger) (document.Set, error) {
	if flags.sample {
		return samples.Set()
	}

	cfg := util.DefaultFileCacheConfig()
	cfg.Logger = logger
	cache := util.NewFileCache(cfg)
	defer cache.Close()

	return document.LoadSet(cache, s.Paths)
}
