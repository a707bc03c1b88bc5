/*
Eai runs Eä source files or starts an interactive REPL.

Usage:

	eai [FILE] [flags]

With a FILE argument, the full pipeline (compile_to_ast → check →
emit_ir → jit_run) runs once against that file's contents and the
process exits with the forwarded exit code. With no arguments, eai
starts an interactive, readline-backed REPL: each submitted line runs
through the same pipeline as an independent compilation unit.

The flags are:

	-c, --config FILE
		Load compiler configuration from the given TOML file.

	-v, --version
		Print the compiler version and exit.
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/dekarrin/eac/internal/cache"
	"github.com/dekarrin/eac/internal/compiler"
	"github.com/dekarrin/eac/internal/config"
)

var (
	flagConfig  = pflag.StringP("config", "c", "", "Load compiler configuration from this TOML file.")
	flagVersion = pflag.BoolP("version", "v", false, "Print the compiler version and exit.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("eai %s\n", compiler.Version)
		return
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARN: could not open compile cache: %s\n", err.Error())
		} else {
			defer store.Close()
		}
	}

	args := pflag.Args()
	if len(args) > 0 {
		os.Exit(runFile(args[0], cfg, store))
	}
	os.Exit(runREPL(cfg, store))
}

func runFile(filename string, cfg config.Config, store *cache.Store) int {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not read %s: %s\n", filename, err.Error())
		return compiler.ExitCompileErr
	}
	code, diags := compiler.Run(filename, source, cfg, store)
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.Render())
	}
	return code
}

func runREPL(cfg config.Config, store *cache.Store) int {
	rl, err := readline.NewEx(&readline.Config{Prompt: "eai> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not start readline: %s\n", err.Error())
		return compiler.ExitCompileErr
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return compiler.ExitSuccess
			}
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return compiler.ExitCompileErr
		}
		if line == "" {
			continue
		}

		code, diags := compiler.Run("<repl>", []byte(line), cfg, store)
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Render())
		}
		if code != compiler.ExitSuccess {
			fmt.Printf("[exited %d]\n", code)
		}
	}
}
