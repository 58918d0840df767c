package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/borderux/recursica-forge-sub006/pkg/audit"
	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/catalog"
	"github.com/borderux/recursica-forge-sub006/pkg/host"
	mcpserver "github.com/borderux/recursica-forge-sub006/pkg/mcp"
	"github.com/borderux/recursica-forge-sub006/pkg/mcplog"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
	"github.com/borderux/recursica-forge-sub006/pkg/util"
	"github.com/borderux/recursica-forge-sub006/pkg/watch"
	"github.com/borderux/recursica-forge-sub006/samples"
)

// errFindings makes the process exit non-zero after a report was printed.
var errFindings = errors.New("audit found errors")

// run loads settings and documents and resolves them once.
func run(cmd *cobra.Command, flags *globalFlags) (resolver.Result, settings, error) {
	s, err := resolveSettings(*flags)
	if err != nil {
		return resolver.Result{}, s, err
	}
	logger := newLogger(cmd, s)

	set, err := loadDocuments(flags, s, logger)
	if err != nil {
		return resolver.Result{}, s, err
	}

	opts := s.resolverOptions()
	opts.Logger = logger
	res := resolver.Resolve(set, opts)
	if len(res.Unresolved) > 0 {
		logger.Warn("Some references could not be resolved", "count", len(res.Unresolved))
	}
	return res, s, nil
}

func newResolveCmd(flags *globalFlags) *cobra.Command {
	var format, selector string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the documents and print the binding map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "json", "css", "table":
			default:
				return fmt.Errorf("unknown format %q (want json, css or table)", format)
			}

			res, _, err := run(cmd, flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "css":
				return bindings.RenderCSS(out, res.Bindings, selector)
			case "table":
				printBindingsTable(out, res)
				return nil
			default:
				return bindings.RenderJSON(out, res.Bindings)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, css or table")
	cmd.Flags().StringVar(&selector, "selector", ":root", "Selector for css output")
	return cmd
}

func newAuditCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report dangling and unknown references; exits 1 on errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, s, err := run(cmd, flags)
			if err != nil {
				return err
			}

			report := audit.Run(res, s.Namespace)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printAudit(out, report)
			}

			if report.Errors() > 0 {
				return errFindings
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newInspectCmd(flags *globalFlags) *cobra.Command {
	var component string

	cmd := &cobra.Command{
		Use:   "inspect [binding]",
		Short: "Show a binding with its reference chain, or all bindings of a component",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if component == "" && len(args) == 0 {
				return errors.New("inspect needs a binding name or --component")
			}

			res, s, err := run(cmd, flags)
			if err != nil {
				return err
			}
			qs := catalog.FromResultQuery(res, s.Namespace)
			out := cmd.OutOrStdout()

			if component != "" {
				bs := qs.GetComponentBindings(component)
				if len(bs) == 0 {
					return fmt.Errorf("component not found: %s (known: %v)", component, qs.ListComponents())
				}
				rows := make([][2]string, 0, len(bs))
				for _, b := range bs {
					rows = append(rows, [2]string{b.Name, b.Value})
				}
				printTable(out, "NAME", "VALUE", rows)
				return nil
			}

			b, ok := qs.GetBinding(args[0])
			if !ok {
				msg := fmt.Sprintf("binding not found: %s", args[0])
				if similar := qs.SearchBindings(args[0]); len(similar) > 0 {
					msg += fmt.Sprintf(" (did you mean %s?)", similar[0].Binding.Name)
				}
				return errors.New(msg)
			}
			printBinding(out, b, qs.Follow(b.Name), qs.Referrers(b.Name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&component, "component", "c", "", "List the bindings of this component")
	return cmd
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-resolve whenever a document changes and print what changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.sample {
				return errors.New("watch reads document files; run 'forge init' to write the samples to disk")
			}
			s, err := resolveSettings(*flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, s)

			cache := util.NewFileCache(&util.FileCacheConfig{MaxFiles: 8, EnableMetrics: true, Logger: logger})
			defer cache.Close()

			h := host.New(host.Config{Options: s.resolverOptions(), Debug: s.LogLevel == "debug"}, logger)
			out := cmd.OutOrStdout()
			h.Subscribe(func(u host.Update) { printDiff(out, u) })

			w, err := watch.New(s.Paths, cache, h, s.Watch, logger)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()

			stats := w.GetStats()
			logger.Info("Watch stopped", "reloads", stats.Reloads, "failures", stats.Failures)
			return nil
		},
	}
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the binding map to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveSettings(*flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, s)

			mlog, err := mcplog.NewLogger(s.MCPLog)
			if err != nil {
				return err
			}
			defer mlog.Close()

			h := host.New(host.Config{Options: s.resolverOptions(), Debug: s.LogLevel == "debug"}, logger)

			var src mcpserver.Source
			if flags.sample {
				set, err := samples.Set()
				if err != nil {
					return err
				}
				h.Recompute(set)
			} else {
				cache := util.NewFileCache(&util.FileCacheConfig{MaxFiles: 8, EnableMetrics: true, Logger: logger})
				defer cache.Close()

				w, err := watch.New(s.Paths, cache, h, s.Watch, logger)
				if err != nil {
					return err
				}
				if err := w.Start(); err != nil {
					return err
				}
				defer w.Stop()
				src = w
			}

			logger.Info("Serving bindings over MCP stdio", "bindings", h.Stats().Bindings, "mcp_log", s.MCPLog)
			return mcpserver.NewServer(h, src, s.Namespace, mlog).ServeStdio()
		},
	}
	cmd.Flags().StringVar(&flags.mcpLog, "mcp-log", "", "Append a JSONL record of every tool call to this file")
	return cmd
}

func newInitCmd() *cobra.Command {
	var dir string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write sample documents and a project config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := filepath.Join(dir, defaultConfigPath)
			if !force {
				for _, p := range []string{configPath, filepath.Join(dir, samples.TokensFile), filepath.Join(dir, samples.BrandFile), filepath.Join(dir, samples.UIKitFile)} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", p)
					}
				}
			}

			paths, err := samples.WriteTo(dir)
			if err != nil {
				return err
			}
			cfg := ProjectConfig{
				Version: "1",
				Tokens:  samples.TokensFile,
				Theme:   samples.BrandFile,
				Spec:    samples.UIKitFile,
				Watch:   WatchConfig{DebounceMs: watch.DefaultOptions().DebounceMs},
			}
			if err := saveProjectConfig(configPath, cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range append(paths.All(), configPath) {
				fmt.Fprintf(out, "  + %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Project directory")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "forge %s\n", version)
		},
	}
}
