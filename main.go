// Command yam compiles a YAM source program into a Standard MIDI File.
//
// Usage:
//
//	yam -i input.yam -o output.mid
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fuuzen/yam-go/internal/interp"
	"github.com/fuuzen/yam-go/internal/midi"
	"github.com/fuuzen/yam-go/internal/parser"
	"github.com/fuuzen/yam-go/internal/report"
	"github.com/fuuzen/yam-go/internal/sema"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

func main() {
	var input, output string
	flag.StringVar(&input, "i", "", "input YAM source file (required)")
	flag.StringVar(&output, "o", "", "output Standard MIDI File path (required)")
	flag.Parse()

	if input == "" || output == "" {
		fmt.Fprintln(os.Stderr, "usage: yam -i <input.yam> -o <output.mid>")
		os.Exit(1)
	}

	if err := run(input, output); err != nil {
		var ye *yamerr.Error
		if errors.As(err, &ye) {
			fmt.Fprintf(os.Stderr, "yam: %s\n", ye.Error())
		} else {
			fmt.Fprintf(os.Stderr, "yam: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(input, output string) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	prog, err := parser.Parse(string(src))
	if err != nil {
		return err
	}

	res, err := sema.Analyze(prog)
	if err != nil {
		return err
	}

	if prog.Score == nil {
		return yamerr.Internalf("program has no score block")
	}

	it := interp.New(res)
	result, err := midi.Build(it, prog.Score)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := result.SMF.WriteTo(f); err != nil {
		return err
	}

	fmt.Println(report.Render(report.FromResult(input, output, result)))
	return nil
}
