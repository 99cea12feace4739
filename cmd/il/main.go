package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/tinyrange/il/internal/api"
	"github.com/tinyrange/il/internal/cache"
	"github.com/tinyrange/il/internal/config"
	"github.com/tinyrange/il/internal/dump"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "il: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: il <command> [flags] [args...]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  dump [-disasm] LIBRARY.il     list the routines stored in a library\n")
	fmt.Fprintf(os.Stderr, "  build [-lib out.il] MANIFEST  precompile the routines of a manifest\n\n")
	fmt.Fprintf(os.Stderr, "Set IL_DISASM to a non-empty value to disassemble by default.\n")
}

func run(args []string) error {
	if len(args) < 1 {
		usage()
		return fmt.Errorf("command required")
	}
	switch args[0] {
	case "dump":
		return runDump(args[1:])
	case "build":
		return runBuild(args[1:])
	case "-h", "-help", "--help", "help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type commonFlags struct {
	configPath string
	debug      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Configuration file (default: ./"+config.Filename+" when present)")
	fs.BoolVar(&c.debug, "debug", false, "Enable debug logging")
}

func (c *commonFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (c *commonFlags) config() (config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(config.Filename); err != nil {
			return config.Default(), nil
		}
		path = config.Filename
	}
	return config.Load(path)
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	disasm := fs.Bool("disasm", os.Getenv("IL_DISASM") != "", "Disassemble routines with objdump")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		usage()
		return fmt.Errorf("dump takes exactly one library")
	}
	path := fs.Arg(0)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open library: %w", err)
	}

	cfg, err := common.config()
	if err != nil {
		return err
	}

	lib, err := cache.NewStore(common.logger()).Open(path)
	if err != nil {
		return err
	}

	return dump.Write(context.Background(), os.Stdout, lib, dump.Options{
		Disassemble: *disasm,
		Objdump:     cfg.Objdump,
		Arch:        cfg.DisasmArch,
		Syntax:      cfg.DisasmSyntax,
		ScratchDir:  cfg.ScratchDir,
	})
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	libPath := fs.String("lib", "", "Library to write (default: manifest library, then config library)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		usage()
		return fmt.Errorf("build takes exactly one manifest")
	}

	cfg, err := common.config()
	if err != nil {
		return err
	}
	manifest, err := loadManifest(fs.Arg(0))
	if err != nil {
		return err
	}

	target := *libPath
	if target == "" {
		target = manifest.Library
	}
	if target == "" {
		target = cfg.Library
	}
	if target == "" {
		return fmt.Errorf("no library given (use -lib, the manifest or the config file)")
	}

	logger := common.logger()
	m := api.New(api.WithConfig(cfg), api.WithLogger(logger))

	var bar *progressbar.ProgressBar
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar = progressbar.NewOptions(len(manifest.Routines),
			progressbar.OptionSetDescription("compiling"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
	}

	var failed []error
	for _, r := range manifest.Routines {
		_, err := m.Compile(context.Background(), api.Definition{
			Name:    r.Name,
			Source:  r.Source,
			Flags:   r.Flags,
			Library: target,
		})
		if err != nil {
			failed = append(failed, err)
			logger.Error("compile failed", slog.String("name", r.Name), slog.Any("err", err))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d routines failed: %w", len(failed), len(manifest.Routines), errors.Join(failed...))
	}
	logger.Info("library built", slog.String("library", target), slog.Int("routines", len(manifest.Routines)))
	return nil
}
