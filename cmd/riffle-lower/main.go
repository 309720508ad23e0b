package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"riffle/internal/errors"
	"riffle/internal/ir"
	"riffle/internal/lower"
)

// Demo pipelines, from source construction to lowered printout. Until a
// textual frontend exists the driver builds its input programs in memory.
var pipelines = map[string]func() *ir.Module{
	"double": doublePipeline,
	"sum":    sumPipeline,
	"evens":  evensPipeline,
}

func main() {
	verbosity := 0
	var name string
	for _, arg := range os.Args[1:] {
		if arg == "-v" {
			verbosity++
			continue
		}
		name = arg
	}

	if name == "" {
		fmt.Printf("Usage: riffle-lower [-v] <pipeline>\n\nPipelines:\n")
		names := make([]string, 0, len(pipelines))
		for n := range pipelines {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Printf("  %s\n", n)
		}
		os.Exit(1)
	}

	build, ok := pipelines[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown pipeline %q\n", name)
		os.Exit(1)
	}

	commonlog.Configure(verbosity, nil)

	startTime := time.Now()
	m := build()

	if err := lower.Run(m); err != nil {
		reporter := errors.NewReporter()
		if passErr, ok := err.(*errors.PassError); ok {
			fmt.Fprint(os.Stderr, reporter.Format(passErr))
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		color.Red("Lowering failed after %s", formatDuration(time.Since(startTime)))
		os.Exit(1)
	}

	fmt.Print(ir.Print(m))
	color.Green("Successfully lowered %q in %s", name, formatDuration(time.Since(startTime)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

// doublePipeline is create([1 2 3]) piped through an element doubler.
func doublePipeline() *ir.Module {
	b := ir.NewBuilder()
	m := ir.NewModule()

	region := ir.NewRegion()
	entry := b.CreateBlock(region, nil)

	lambda := ir.NewRegion()
	lamBlk := b.CreateBlock(lambda, []ir.Type{ir.I64()})
	b.SetInsertionPointToEnd(lamBlk)
	sum := b.AddI(lamBlk.Arg(0), lamBlk.Arg(0))
	b.Yield([]*ir.Value{sum.Result(0)})

	b.SetInsertionPointToEnd(entry)
	create := b.StreamCreate(ir.I64(), []int64{1, 2, 3})
	mapped := b.StreamMap(create.Result(0), ir.I64(), lambda)
	b.Return([]*ir.Value{mapped.Result(0)})

	sig := &ir.FunctionType{Results: []ir.Type{ir.Stream(ir.I64())}}
	m.Push(b.FuncOp(ir.KindFunc, "main", sig, region, nil))
	return m
}

// sumPipeline folds create([1 2 3 4]) into a single total.
func sumPipeline() *ir.Module {
	b := ir.NewBuilder()
	m := ir.NewModule()

	region := ir.NewRegion()
	entry := b.CreateBlock(region, nil)

	lambda := ir.NewRegion()
	lamBlk := b.CreateBlock(lambda, []ir.Type{ir.I64(), ir.I64()})
	b.SetInsertionPointToEnd(lamBlk)
	sum := b.AddI(lamBlk.Arg(0), lamBlk.Arg(1))
	b.Yield([]*ir.Value{sum.Result(0)})

	b.SetInsertionPointToEnd(entry)
	create := b.StreamCreate(ir.I64(), []int64{1, 2, 3, 4})
	reduced := b.StreamReduce(create.Result(0), ir.I64(), 0, lambda)
	b.Return([]*ir.Value{reduced.Result(0)})

	sig := &ir.FunctionType{Results: []ir.Type{ir.Stream(ir.I64())}}
	m.Push(b.FuncOp(ir.KindFunc, "main", sig, region, nil))
	return m
}

// evensPipeline keeps the even elements of create([1 2 3 4 5]).
func evensPipeline() *ir.Module {
	b := ir.NewBuilder()
	m := ir.NewModule()

	region := ir.NewRegion()
	entry := b.CreateBlock(region, nil)

	lambda := ir.NewRegion()
	lamBlk := b.CreateBlock(lambda, []ir.Type{ir.I64()})
	b.SetInsertionPointToEnd(lamBlk)
	one := b.SrcConstant(ir.I64(), 1)
	zero := b.SrcConstant(ir.I64(), 0)
	lowBit := b.AndI(lamBlk.Arg(0), one.Result(0))
	even := b.CmpI("eq", lowBit.Result(0), zero.Result(0))
	b.Yield([]*ir.Value{even.Result(0)})

	b.SetInsertionPointToEnd(entry)
	create := b.StreamCreate(ir.I64(), []int64{1, 2, 3, 4, 5})
	filtered := b.StreamFilter(create.Result(0), lambda)
	b.Return([]*ir.Value{filtered.Result(0)})

	sig := &ir.FunctionType{Results: []ir.Type{ir.Stream(ir.I64())}}
	m.Push(b.FuncOp(ir.KindFunc, "main", sig, region, nil))
	return m
}
