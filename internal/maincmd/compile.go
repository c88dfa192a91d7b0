package maincmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mna/mainer"
	"github.com/sirupsen/logrus"

	"github.com/solaeus/dust/internal/config"
	"github.com/solaeus/dust/internal/examples"
	"github.com/solaeus/dust/lang/compiler"
)

// Compile runs the compile command: look up a named example program (see
// internal/examples — this repository has no source-text parser of its
// own), compile it, and print either its disassembly or a JSON summary of
// register and constant counts.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		return printError(stdio, fmt.Errorf("compile: expected exactly one example name, got %d", len(args)))
	}
	cfg, err := config.Load()
	if err != nil {
		return printError(stdio, err)
	}
	return CompileExample(stdio, args[0], c.JSON && !cfg.Disassemble, cfg)
}

// Examples prints every example name this binary can compile.
func (c *Cmd) Examples(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, name := range examples.Names() {
		fmt.Fprintln(stdio.Stdout, name)
	}
	return nil
}

// CompileExample builds and compiles the named example, writing its
// disassembly (or, if asJSON is set, a summary of register/constant counts)
// to stdio.Stdout. cfg's Debug/TraceRegisters toggles control how loudly the
// compiler logs while it works.
func CompileExample(stdio mainer.Stdio, name string, asJSON bool, cfg config.Config) error {
	ex, err := examples.Get(name)
	if err != nil {
		return printError(stdio, err)
	}

	log := logrus.New()
	log.SetOutput(stdio.Stderr)
	switch {
	case cfg.TraceRegisters:
		log.SetLevel(logrus.TraceLevel)
	case cfg.Debug:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}

	comp := compiler.New(ex.Resolver, ex.Trees, logrus.NewEntry(log))
	program, err := comp.CompileFiles(ex.MainFile)
	if err != nil {
		return printError(stdio, err)
	}

	if asJSON {
		return printJSONSummary(stdio, program)
	}
	fmt.Fprint(stdio.Stdout, compiler.Disassemble(program))
	return nil
}

type prototypeSummary struct {
	Name          string `json:"name"`
	RegisterCount int    `json:"register_count"`
	Instructions  int    `json:"instructions"`
}

type programSummary struct {
	Prototypes    []prototypeSummary `json:"prototypes"`
	IntegerConsts int                `json:"integer_constants"`
	FloatConsts   int                `json:"float_constants"`
	CharConsts    int                `json:"character_constants"`
	StringConsts  int                `json:"string_constants"`
	Natives       []string           `json:"natives"`
}

func printJSONSummary(stdio mainer.Stdio, program *compiler.Program) error {
	summary := programSummary{
		IntegerConsts: program.Constants.IntegerCount(),
		FloatConsts:   program.Constants.FloatCount(),
		CharConsts:    program.Constants.CharacterCount(),
		StringConsts:  program.Constants.StringCount(),
		Natives:       program.Natives.Names(),
	}
	for _, proto := range program.Prototypes {
		summary.Prototypes = append(summary.Prototypes, prototypeSummary{
			Name:          proto.Name,
			RegisterCount: int(proto.RegisterCount),
			Instructions:  len(proto.Instructions),
		})
	}

	enc := json.NewEncoder(stdio.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
