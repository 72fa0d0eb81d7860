/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command mixforge is the engine's CLI front end: load a manifest
// describing one or more mixins, register them, and transform a target
// .class file against the registry — or just print what the manifest
// would register, for a dry-run sanity check before wiring a build plugin
// around the engine.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/relay-cn/mixforge/internal/classfile"
	"github.com/relay-cn/mixforge/internal/classtree"
	"github.com/relay-cn/mixforge/internal/registry"
	"github.com/relay-cn/mixforge/internal/trace"
	"github.com/relay-cn/mixforge/internal/transform"
)

func main() {
	cmd := &cli.Command{
		Name:  "mixforge",
		Usage: "declarative JVM bytecode transformation",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable trace-level logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			trace.Init(cmd.Bool("verbose"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			transformCommand(),
			listCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mixforge:", err)
		os.Exit(1)
	}
}

func transformCommand() *cli.Command {
	return &cli.Command{
		Name:  "transform",
		Usage: "apply every mixin in a manifest to one target .class file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manifest", Required: true, Usage: "path to the mixin manifest JSON"},
			&cli.StringFlag{Name: "target", Required: true, Usage: "path to the target .class file"},
			&cli.StringFlag{Name: "out", Usage: "output path (defaults to overwriting --target)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := buildRegistry(cmd.String("manifest"))
			if err != nil {
				return err
			}
			targetBytes, err := os.ReadFile(cmd.String("target"))
			if err != nil {
				return err
			}
			cf, err := classfile.Parse(targetBytes)
			if err != nil {
				return err
			}
			result, err := transform.Transform(cf.ThisClassName(), targetBytes, reg)
			if err != nil {
				return err
			}
			for _, d := range result.Diagnostics.Items {
				fmt.Fprintln(os.Stderr, d.Error())
			}
			out := cmd.String("out")
			if out == "" {
				out = cmd.String("target")
			}
			if err := os.WriteFile(out, result.Bytes, 0o644); err != nil {
				return err
			}
			fmt.Printf("transformed %s with %d mixin(s) -> %s\n", cf.ThisClassName(), result.Mixins, out)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "print what a manifest would register, without transforming anything",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manifest", Required: true, Usage: "path to the mixin manifest JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := buildRegistry(cmd.String("manifest"))
			if err != nil {
				return err
			}
			stats := reg.Stats()
			fmt.Printf("exact-match mixins:     %d\n", stats.ExactMixins)
			fmt.Printf("predicate-match mixins: %d\n", stats.PredicateMixins)
			fmt.Printf("target classes covered: %d\n", stats.TargetClassCount)
			return nil
		},
	}
}

// buildRegistry loads manifestPath, decodes each referenced mixin .class
// file, and registers it with its directives under its declared targets.
func buildRegistry(manifestPath string) (*registry.Registry, error) {
	m, err := loadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	for _, me := range m.Mixins {
		classBytes, err := os.ReadFile(me.Class)
		if err != nil {
			return nil, err
		}
		cf, err := classfile.Parse(classBytes)
		if err != nil {
			return nil, err
		}
		tree, err := classtree.FromClassFile(cf)
		if err != nil {
			return nil, err
		}
		ds, err := buildDirectives(me.Directives)
		if err != nil {
			return nil, err
		}
		mix := &registry.Mixin{Name: tree.Name, Class: tree, Directives: ds, Targets: me.Targets}
		if err := reg.Register(mix); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
