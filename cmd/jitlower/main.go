// jitlower runs the compiler pipeline over the built-in test graphs and
// prints what every phase did.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/oracle/graal-sub160/internal/engine/jit"
	"github.com/oracle/graal-sub160/internal/engine/jit/ir"
	"github.com/oracle/graal-sub160/internal/engine/jit/jitapi"
	"github.com/oracle/graal-sub160/internal/engine/jit/testcases"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("jitlower", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		optionsPath = flags.String("options", "", "YAML or TOML file overriding the default compiler options")
		caseName    = flags.String("case", "", "test graph to compile; all of them if empty")
		list        = flags.Bool("list", false, "list the test graphs and exit")
		showGraph   = flags.Bool("graph", false, "print each graph before and after compilation")
		verbose     = flags.Bool("v", false, "log every phase")
		parallelism = flags.Int("parallel", 1, "number of graphs compiled concurrently")
		noColor     = flags.Bool("no-color", false, "disable colored output")
	)
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *noColor {
		pterm.DisableStyling()
	}

	if *list {
		for _, tc := range testcases.All {
			fmt.Fprintln(stdout, tc.Name)
		}
		return 0
	}

	opts := jitapi.NewOptions()
	if *optionsPath != "" {
		var err error
		if opts, err = jitapi.LoadOptions(*optionsPath); err != nil {
			fmt.Fprint(stderr, pterm.Error.Sprintln(err))
			return 1
		}
	}

	cases := testcases.All
	if *caseName != "" {
		tc, ok := testcases.ByName(*caseName)
		if !ok {
			fmt.Fprint(stderr, pterm.Error.Sprintfln("unknown test case %q", *caseName))
			return 2
		}
		cases = []testcases.TestCase{tc}
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	engine, err := jit.NewEngine(opts, nil, logger)
	if err != nil {
		fmt.Fprint(stderr, pterm.Error.Sprintln(err))
		return 1
	}

	graphs := make(map[string]*ir.Graph, len(cases))
	for _, tc := range cases {
		g := tc.Build()
		graphs[tc.Name] = g
		if *showGraph {
			fmt.Fprint(stdout, pterm.DefaultSection.Sprintln(tc.Name+" before"))
			fmt.Fprintln(stdout, g.Format())
		}
	}
	compileErr := engine.CompileAll(context.Background(), graphs, *parallelism)

	for _, tc := range cases {
		res, ok := engine.Compiled(tc.Name)
		if !ok {
			continue
		}
		if err := printResult(stdout, res, *showGraph); err != nil {
			fmt.Fprint(stderr, pterm.Error.Sprintln(err))
			return 1
		}
	}
	if compileErr != nil {
		fmt.Fprint(stderr, pterm.Error.Sprintln(compileErr))
		return 1
	}
	return 0
}

func printResult(w io.Writer, res *jit.Result, showGraph bool) error {
	fmt.Fprint(w, pterm.DefaultSection.Sprintln(res.Name))
	data := pterm.TableData{{"Phase", "Applied", "Nodes"}}
	for _, p := range res.Phases {
		data = append(data, []string{p.Name, strconv.Itoa(p.Applied), strconv.Itoa(p.Nodes)})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)
	if res.Err != nil {
		fmt.Fprint(w, pterm.Error.Sprintln(res.Err))
		return nil
	}
	if showGraph {
		fmt.Fprintln(w, res.Graph.Format())
	}
	fmt.Fprint(w, pterm.Success.Sprintfln("%s compiled to %d nodes", res.Name, res.Graph.NodeCount()))
	return nil
}
