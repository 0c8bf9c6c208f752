package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hlpio/logdec/plugin"
	"github.com/hlpio/logdec/plugin/file"
	"github.com/hlpio/logdec/plugin/stdstream"
	"github.com/hlpio/logdec/plugin/store"
	"github.com/hlpio/logdec/runtime"
)

func main() {
	log := hclog.Default()
	if len(os.Args) <= 1 {
		usage()
		return
	}
	args := os.Args[1:]
	switch args[0] {
	case "decode":
		if err := doDecode(log, args[1:]...); err != nil {
			exitError("Failed to decode: %v", err)
		}
	case "vet":
		if err := doVet(log, args[1:]...); err != nil {
			exitError("Vet failed: %v", err)
		}
		fmt.Println("All decoder definitions built successfully")
	case "plugins":
		doPrintPlugins(log)
	case "help":
		usage()
	default:
		exitError("Unrecognized command: '%s'", args[0])
	}
}

func exitError(format string, args ...any) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Printf("Error: "+format, args...)
	usage()
	os.Exit(-1)
}

func usage() {
	text := `
logdec matches raw log lines against compiled decoder pipelines and emits structured events.

  logdec help
  logdec plugins
  logdec decode SCHEMA_FILE DECODER_DIR LOG_FILE
  logdec vet SCHEMA_FILE DECODER_DIR

The 'help' subcommand will print this usage information.
The 'plugins' subcommand will print the documentation for all plugins loaded into the runtime for this program.
The 'decode' subcommand will load the field schema from SCHEMA_FILE, build every decoder definition in DECODER_DIR, run each line of LOG_FILE through the decoders, and write the decoded events to STDOUT as JSON lines.
The 'vet' subcommand will build every decoder definition in DECODER_DIR without running them, reporting any errors.
`
	fmt.Print(text)
}

func plugins(log hclog.Logger) []plugin.Plugin {
	return []plugin.Plugin{
		file.Plugin(),
		stdstream.Plugin(),
		store.Plugin(log),
	}
}

func doPrintPlugins(log hclog.Logger) {
	reg := plugin.NewRegistration()
	for _, p := range plugins(log) {
		p.Register(reg)
	}
	fmt.Println("Plugins extend the engine with technology specific sources and sinks")
	fmt.Println()
	fmt.Print(reg.AllDocs())
}

func definitionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yml", ".yaml", ".json":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadDecoders(r *runtime.Runtime, schemaFile, decoderDir string, vetOnly bool) error {
	schema, err := os.ReadFile(schemaFile)
	if err != nil {
		return err
	}
	if err := r.LoadSchema(string(schema)); err != nil {
		return err
	}
	files, err := definitionFiles(decoderDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no decoder definitions found in %s", decoderDir)
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if vetOnly {
			if err := r.VetDecoder(data); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			continue
		}
		if _, err := r.BuildDecoder(data); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

func doDecode(log hclog.Logger, args ...string) (rerr error) {
	if len(args) < 3 {
		return errors.New("not enough arguments for decode")
	}
	r := runtime.NewRuntime(log, plugins(log)...)
	if err := r.Start(context.Background()); err != nil {
		return err
	}
	defer func() {
		if err := r.Stop(); err != nil {
			log.Error("Error while stopping runtime", "error", err)
			rerr = err
		}
	}()
	if err := loadDecoders(r, args[0], args[1], false); err != nil {
		return err
	}
	src, err := r.Source("file", "File", args[2])
	if err != nil {
		return err
	}
	return r.Sink("std", "Out", r.Decode(src))
}

func doVet(log hclog.Logger, args ...string) (rerr error) {
	if len(args) < 2 {
		return errors.New("not enough arguments for vet")
	}
	r := runtime.NewRuntime(log, plugins(log)...)
	if err := r.Start(context.Background()); err != nil {
		return err
	}
	defer func() {
		if err := r.Stop(); err != nil {
			log.Error("Error while stopping runtime", "error", err)
			rerr = err
		}
	}()
	return loadDecoders(r, args[0], args[1], true)
}
