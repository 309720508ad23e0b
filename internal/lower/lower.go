// Package lower translates the stream dialect into the dataflow dialect:
// stream-typed values become explicit (element, eos) records paired with
// control tokens, and every stream operation becomes a uniquely named
// dataflow sub-program plus one instantiation at its original site.
package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// lowering carries the per-invocation state every rule needs: the module
// being rewritten, one builder, the type converter and the symbol allocator.
// Nothing survives across invocations.
type lowering struct {
	module  *ir.Module
	b       *ir.Builder
	types   *TypeConverter
	symbols *SymbolAllocator
}

// convertedEntry describes the body a rule assembles for a unary stream
// operation: the new entry block plus the unpacked record parts and the two
// control tokens.
type convertedEntry struct {
	block      *ir.Block
	data       *ir.Value
	eos        *ir.Value
	streamCtrl *ir.Value
	initCtrl   *ir.Value
}

// buildEntry creates the entry block of a new sub-program for a
// single-input stream operation: the converted operand types plus a trailing
// control argument, with the input record already unpacked. The builder is
// left appending to the new block.
func (l *lowering) buildEntry(r *ir.Region, op *ir.Operation) (*convertedEntry, error) {
	inputTypes, err := l.operandEntryTypes(op)
	if err != nil {
		return nil, err
	}

	entry := l.b.CreateBlock(r, inputTypes)
	tupleIn := entry.Arg(0)
	streamCtrl := entry.Arg(1)
	initCtrl := entry.Arg(2)

	l.b.SetInsertionPointToEnd(entry)
	unpack := l.b.Unpack(tupleIn)

	return &convertedEntry{
		block:      entry,
		data:       unpack.Result(0),
		eos:        unpack.Result(1),
		streamCtrl: streamCtrl,
		initCtrl:   initCtrl,
	}, nil
}

// operandEntryTypes converts the operation's operand types and appends the
// trailing control argument type.
func (l *lowering) operandEntryTypes(op *ir.Operation) ([]ir.Type, error) {
	operandTypes := make([]ir.Type, op.NumOperands())
	for i, v := range op.Operands() {
		operandTypes[i] = v.Type
	}
	inputTypes, err := l.types.ConvertTypes(operandTypes)
	if err != nil {
		return nil, err
	}
	return append(inputTypes, ir.None()), nil
}

// createFunc wraps an assembled body region into a new private dataflow
// function at the top of the module, under a collision-free name.
func (l *lowering) createFunc(r *ir.Region, name string, argTypes, resTypes []ir.Type) *ir.Operation {
	sig := &ir.FunctionType{Inputs: argTypes, Results: resTypes}
	fn := l.b.FuncOp(ir.KindDFFunc, name, sig, r, map[string]any{"visibility": "private"})
	l.module.PushFront(fn)
	return fn
}

// replaceWithInstance swaps a stream operation for an instantiation of its
// sub-program, bridging each stream result back to its original type
// through a conversion cast that the cleanup step later removes.
func (l *lowering) replaceWithInstance(op, fn *ir.Operation, operands []*ir.Value) (*ir.Operation, error) {
	name, _ := fn.StringAttr("sym_name")
	sigAttr, _ := fn.TypeAttr("type")
	sig := sigAttr.(*ir.FunctionType)

	l.b.SetInsertionPointBefore(op)
	inst := l.b.Instance(name, sig, operands)

	next := 0
	for _, oldRes := range op.Results() {
		if _, ok := oldRes.Type.(*ir.StreamType); !ok {
			return nil, errors.New(errors.ErrorSignatureConversion,
				"can only bridge stream-typed results, got %s", oldRes.Type)
		}
		tuple := inst.Result(next)
		ctrl := inst.Result(next + 1)
		next += 2

		cast := l.b.Cast([]*ir.Value{tuple, ctrl}, []ir.Type{oldRes.Type})
		oldRes.ReplaceAllUsesWith(cast.Result(0))
	}
	op.Erase()

	return inst, nil
}

// entryArgTypes lists a block's argument types.
func entryArgTypes(blk *ir.Block) []ir.Type {
	types := make([]ir.Type, blk.NumArgs())
	for i, a := range blk.Args() {
		types[i] = a.Type
	}
	return types
}

// valueTypes lists the types of a value slice.
func valueTypes(values []*ir.Value) []ir.Type {
	types := make([]ir.Type, len(values))
	for i, v := range values {
		types[i] = v.Type
	}
	return types
}
