package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseListsTrackOperands(t *testing.T) {
	b := NewBuilder()
	region := NewRegion()
	blk := b.CreateBlock(region, []Type{I64(), I64()})
	b.SetInsertionPointToEnd(blk)

	add := b.AddI(blk.Arg(0), blk.Arg(1))

	assert.Equal(t, 1, blk.Arg(0).NumUses(), "lhs should have exactly one use")
	assert.Equal(t, 1, blk.Arg(1).NumUses(), "rhs should have exactly one use")
	assert.Equal(t, Use{Op: add, Index: 0}, blk.Arg(0).Uses()[0])
	assert.Equal(t, Use{Op: add, Index: 1}, blk.Arg(1).Uses()[0])
}

func TestSetOperandMovesUse(t *testing.T) {
	b := NewBuilder()
	region := NewRegion()
	blk := b.CreateBlock(region, []Type{I64(), I64()})
	b.SetInsertionPointToEnd(blk)

	add := b.AddI(blk.Arg(0), blk.Arg(0))
	require.Equal(t, 2, blk.Arg(0).NumUses())

	add.SetOperand(1, blk.Arg(1))

	assert.Equal(t, 1, blk.Arg(0).NumUses(), "old operand should lose the moved use")
	assert.Equal(t, 1, blk.Arg(1).NumUses(), "new operand should gain the use")
	assert.Same(t, blk.Arg(1), add.Operand(1))
}

func TestReplaceAllUsesWith(t *testing.T) {
	b := NewBuilder()
	region := NewRegion()
	blk := b.CreateBlock(region, []Type{I64(), I64()})
	b.SetInsertionPointToEnd(blk)

	a := b.AddI(blk.Arg(0), blk.Arg(0))
	c1 := b.AddI(a.Result(0), blk.Arg(1))
	c2 := b.AddI(a.Result(0), a.Result(0))

	repl := b.AddI(blk.Arg(1), blk.Arg(1))
	a.Result(0).ReplaceAllUsesWith(repl.Result(0))

	assert.Equal(t, 0, a.Result(0).NumUses(), "replaced value should end up unused")
	assert.Equal(t, 3, repl.Result(0).NumUses(), "replacement should absorb all uses")
	assert.Same(t, repl.Result(0), c1.Operand(0))
	assert.Same(t, repl.Result(0), c2.Operand(0))
	assert.Same(t, repl.Result(0), c2.Operand(1))
}

func TestEraseReleasesOperandUses(t *testing.T) {
	b := NewBuilder()
	region := NewRegion()
	blk := b.CreateBlock(region, []Type{I64()})
	b.SetInsertionPointToEnd(blk)

	add := b.AddI(blk.Arg(0), blk.Arg(0))
	require.Equal(t, 2, blk.Arg(0).NumUses())
	require.Len(t, blk.Ops(), 1)

	add.Erase()

	assert.Equal(t, 0, blk.Arg(0).NumUses(), "erase should drop the operation's operand uses")
	assert.Empty(t, blk.Ops(), "erase should unlink the operation from its block")
}

func TestInsertionPoints(t *testing.T) {
	b := NewBuilder()
	region := NewRegion()
	blk := b.CreateBlock(region, []Type{None()})
	b.SetInsertionPointToEnd(blk)

	first := b.Constant(I64(), 1, blk.Arg(0))
	last := b.Constant(I64(), 3, blk.Arg(0))

	b.SetInsertionPointAfter(first)
	middle := b.Constant(I64(), 2, blk.Arg(0))

	b.SetInsertionPointBefore(first)
	front := b.Constant(I64(), 0, blk.Arg(0))

	require.Len(t, blk.Ops(), 4)
	assert.Same(t, front, blk.Ops()[0])
	assert.Same(t, first, blk.Ops()[1])
	assert.Same(t, middle, blk.Ops()[2])
	assert.Same(t, last, blk.Ops()[3])
}

func TestModuleReplaceKeepsPosition(t *testing.T) {
	b := NewBuilder()
	m := NewModule()

	mk := func(name string) *Operation {
		r := NewRegion()
		b.CreateBlock(r, nil)
		return b.FuncOp(KindFunc, name, &FunctionType{}, r, nil)
	}
	m.Push(mk("a"))
	old := mk("b")
	m.Push(old)
	m.Push(mk("c"))

	r := NewRegion()
	b.CreateBlock(r, nil)
	repl := b.FuncOp(KindDFFunc, "b", &FunctionType{}, r, nil)
	m.Replace(old, repl)

	require.Len(t, m.Body.Ops(), 3)
	assert.Same(t, repl, m.Body.Ops()[1], "replacement should occupy the old position")
	assert.Same(t, repl, m.LookupSymbol("b"))
}

func TestModulePushFront(t *testing.T) {
	b := NewBuilder()
	m := NewModule()

	r1 := NewRegion()
	b.CreateBlock(r1, nil)
	m.Push(b.FuncOp(KindFunc, "main", &FunctionType{}, r1, nil))

	r2 := NewRegion()
	b.CreateBlock(r2, nil)
	sub := b.FuncOp(KindDFFunc, "sub", &FunctionType{}, r2, nil)
	m.PushFront(sub)

	assert.Same(t, sub, m.Body.Ops()[0], "push-front should place the sub-program first")
	assert.Equal(t, []string{"sub", "main"}, m.SymbolNames())
}

func TestModuleBuilderContinuesValueIDs(t *testing.T) {
	b := NewBuilder()
	m := NewModule()
	region := NewRegion()
	blk := b.CreateBlock(region, []Type{I64(), None()})
	b.SetInsertionPointToEnd(blk)
	c := b.Constant(I64(), 7, blk.Arg(1))
	m.Push(b.FuncOp(KindFunc, "main", &FunctionType{Inputs: []Type{I64(), None()}}, region, nil))

	b2 := NewModuleBuilder(m)
	region2 := NewRegion()
	blk2 := b2.CreateBlock(region2, []Type{I64()})

	assert.Greater(t, blk2.Arg(0).ID, c.Result(0).ID,
		"module builder should allocate IDs past every existing value")
}

func TestSpliceRemapsArgsAndMovesOps(t *testing.T) {
	b := NewBuilder()

	src := NewRegion()
	srcBlk := b.CreateBlock(src, []Type{I64(), None()})
	b.SetInsertionPointToEnd(srcBlk)
	doubled := b.AddI(srcBlk.Arg(0), srcBlk.Arg(0))
	b.DFReturn([]*Value{doubled.Result(0), srcBlk.Arg(1)})

	dst := NewRegion()
	dstBlk := b.CreateBlock(dst, []Type{I64(), None()})
	b.SetInsertionPointToEnd(dstBlk)

	termOps := b.Splice(src, map[*Value]*Value{
		srcBlk.Arg(0): dstBlk.Arg(0),
		srcBlk.Arg(1): dstBlk.Arg(1),
	})

	require.Len(t, termOps, 2, "splice should return the erased terminator's operands")
	assert.Same(t, doubled.Result(0), termOps[0])
	assert.Same(t, dstBlk.Arg(1), termOps[1], "remapped terminator operand should be the new block's argument")

	require.Len(t, dstBlk.Ops(), 1, "only the non-terminator operation should move")
	assert.Same(t, doubled, dstBlk.Ops()[0])
	assert.Same(t, dstBlk, doubled.Block())
	assert.Same(t, dstBlk.Arg(0), doubled.Operand(0), "moved operation should read the destination argument")
	assert.Empty(t, src.Blocks, "source region should be consumed")
}

func TestVerifySingleUse(t *testing.T) {
	build := func(wire func(b *Builder, blk *Block)) *Operation {
		b := NewBuilder()
		r := NewRegion()
		blk := b.CreateBlock(r, []Type{None()})
		b.SetInsertionPointToEnd(blk)
		wire(b, blk)
		return b.FuncOp(KindDFFunc, "f", &FunctionType{Inputs: []Type{None()}, Results: []Type{None()}}, r, nil)
	}

	legal := build(func(b *Builder, blk *Block) {
		b.DFReturn([]*Value{blk.Arg(0)})
	})
	assert.NoError(t, VerifySingleUse(legal))

	multiUse := build(func(b *Builder, blk *Block) {
		c := b.Constant(I64(), 1, blk.Arg(0))
		sum := b.AddI(c.Result(0), c.Result(0))
		b.Sink(sum.Result(0))
	})
	assert.Error(t, VerifySingleUse(multiUse), "a doubly used result should be rejected")

	zeroUse := build(func(b *Builder, blk *Block) {
		b.Constant(I64(), 1, blk.Arg(0))
	})
	assert.Error(t, VerifySingleUse(zeroUse), "an unconsumed result should be rejected")
}

func TestOpKindClassification(t *testing.T) {
	assert.True(t, KindStreamMap.IsStreamOp())
	assert.True(t, KindStreamCreate.IsStreamOp())
	assert.False(t, KindFork.IsStreamOp())
	assert.False(t, KindReturn.IsStreamOp())

	assert.True(t, KindStreamReduce.HasRegion())
	assert.True(t, KindStreamCombine.HasRegion())
	assert.False(t, KindStreamCreate.HasRegion(), "generators carry no element region")
	assert.False(t, KindStreamSink.HasRegion())

	assert.Equal(t, "stream.map", KindStreamMap.String())
	assert.Equal(t, "dataflow.cond_br", KindCondBranch.String())
}

func TestTypesEqual(t *testing.T) {
	assert.True(t, TypesEqual(I64(), I64()))
	assert.False(t, TypesEqual(I64(), I32()))
	assert.True(t, TypesEqual(Stream(I64()), Stream(I64())))
	assert.False(t, TypesEqual(Stream(I64()), Stream(I1())))
	assert.True(t, TypesEqual(Tuple(I64(), I1()), Tuple(I64(), I1())))
	assert.False(t, TypesEqual(Tuple(I64(), I1()), Tuple(I64())))
	assert.True(t, TypesEqual(None(), None()))
	assert.False(t, TypesEqual(None(), I1()))

	a := &FunctionType{Inputs: []Type{Stream(I64())}, Results: []Type{Stream(I64())}}
	b := &FunctionType{Inputs: []Type{Stream(I64())}, Results: []Type{Stream(I64())}}
	c := &FunctionType{Inputs: []Type{Stream(I64())}, Results: []Type{Stream(I32())}}
	assert.True(t, TypesEqual(a, b))
	assert.False(t, TypesEqual(a, c))
}
