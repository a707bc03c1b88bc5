/*
Eac builds an Eä source file into textual LLVM IR.

Usage:

	eac build FILE [flags]

The flags are:

	-o, --output FILE
		Write the emitted LLVM module to FILE instead of stdout.

	-c, --config FILE
		Load compiler configuration from the given TOML file.

	-v, --version
		Print the compiler version and exit.

Diagnostics from any failed phase are printed to stderr and the process
exits 1. A successful build exits 0.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/dekarrin/eac/internal/cache"
	"github.com/dekarrin/eac/internal/compiler"
	"github.com/dekarrin/eac/internal/config"
)

var (
	flagOutput  = pflag.StringP("output", "o", "", "Write the emitted module to this file instead of stdout.")
	flagConfig  = pflag.StringP("config", "c", "", "Load compiler configuration from this TOML file.")
	flagVersion = pflag.BoolP("version", "v", false, "Print the compiler version and exit.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("eac %s\n", compiler.Version)
		return
	}

	args := pflag.Args()
	if len(args) < 2 || args[0] != "build" {
		fmt.Fprintf(os.Stderr, "usage: eac build FILE [flags]\n")
		os.Exit(1)
	}
	filename := args[1]

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not read %s: %s\n", filename, err.Error())
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

	res := compiler.Compile(filename, source, cfg, store)
	if len(res.Diagnostics) > 0 {
		for _, d := range res.Diagnostics {
			fmt.Fprintln(os.Stderr, d.Render())
		}
		os.Exit(compiler.ExitCompileErr)
	}

	out := os.Stdout
	if *flagOutput != "" {
		f, err := os.Create(*flagOutput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: could not create %s: %s\n", *flagOutput, err.Error())
			os.Exit(1)
		}
		defer f.Close()
		out = f
		fmt.Fprintf(os.Stderr, "wrote %s to %s\n", humanize.Bytes(uint64(len(res.IR))), *flagOutput)
	}
	fmt.Fprint(out, res.IR)
}
