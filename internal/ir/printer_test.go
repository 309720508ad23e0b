package ir

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func buildPrinterModule() *Module {
	b := NewBuilder()
	m := NewModule()

	region := NewRegion()
	entry := b.CreateBlock(region, nil)
	b.SetInsertionPointToEnd(entry)

	create := b.StreamCreate(I64(), []int64{1, 2, 3})

	lambda := NewRegion()
	lamBlk := b.CreateBlock(lambda, []Type{I64()})
	b.SetInsertionPointToEnd(lamBlk)
	sum := b.AddI(lamBlk.Arg(0), lamBlk.Arg(0))
	b.Yield([]*Value{sum.Result(0)})

	b.SetInsertionPointToEnd(entry)
	mapped := b.StreamMap(create.Result(0), I64(), lambda)
	b.Return([]*Value{mapped.Result(0)})

	sig := &FunctionType{Results: []Type{Stream(I64())}}
	m.Push(b.FuncOp(KindFunc, "main", sig, region, nil))
	return m
}

func TestPrintModuleGolden(t *testing.T) {
	m := buildPrinterModule()

	g := goldie.New(t)
	g.Assert(t, "printer_module", []byte(Print(m)))
}

func TestPrintOp(t *testing.T) {
	b := NewBuilder()
	region := NewRegion()
	blk := b.CreateBlock(region, []Type{None()})
	b.SetInsertionPointToEnd(blk)

	c := b.Constant(I64(), 42, blk.Arg(0))
	assert.Equal(t, "%1 = dataflow.constant %0 {value = 42} : i64\n", PrintOp(c))

	buf := b.Buffer(I64(), 2, c.Result(0), []int64{1, 0})
	assert.Equal(t,
		"%2 = dataflow.buffer %1 {bufferType = \"seq\", initValues = [1, 0], size = 2} : i64\n",
		PrintOp(buf))
}
