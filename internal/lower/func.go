package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// lowerFuncSignature rewrites a source function into a dataflow function
// whose signature uses the (tuple, control) encoding, with exactly one
// trailing control parameter and one trailing control result appended no
// matter how many stream parameters or results existed. Each converted
// stream parameter is bridged back to its original typing through a
// conversion cast so unconverted consumers keep resolving operands
// uniformly.
func (l *lowering) lowerFuncSignature(fn *ir.Operation) (*ir.Operation, error) {
	sigAttr, ok := fn.TypeAttr("type")
	if !ok {
		return nil, errors.New(errors.ErrorSignatureConversion, "function carries no signature")
	}
	oldSig := sigAttr.(*ir.FunctionType)

	newInputs, err := l.types.ConvertTypes(oldSig.Inputs)
	if err != nil {
		return nil, errors.New(errors.ErrorSignatureConversion,
			"cannot convert parameter types: %v", err)
	}
	newInputs = append(newInputs, ir.None())

	newResults, err := l.types.ConvertTypes(oldSig.Results)
	if err != nil {
		return nil, errors.New(errors.ErrorSignatureConversion,
			"cannot convert result types: %v", err)
	}
	newResults = append(newResults, ir.None())

	oldBlock := fn.Regions[0].Front()
	newRegion := ir.NewRegion()
	newBlock := l.b.CreateBlock(newRegion, newInputs)
	l.b.SetInsertionPointToEnd(newBlock)

	// Bridge converted parameters, in order, before the body moves over.
	next := 0
	for _, oldArg := range oldBlock.Args() {
		if _, ok := oldArg.Type.(*ir.StreamType); !ok {
			oldArg.ReplaceAllUsesWith(newBlock.Arg(next))
			next++
			continue
		}
		tuple := newBlock.Arg(next)
		ctrl := newBlock.Arg(next + 1)
		next += 2

		cast := l.b.Cast([]*ir.Value{tuple, ctrl}, []ir.Type{oldArg.Type})
		oldArg.ReplaceAllUsesWith(cast.Result(0))
	}

	ir.MoveBlockOps(oldBlock, newBlock)

	// Attribute passthrough, minus the symbol and signature attributes the
	// new function defines itself.
	name, _ := fn.StringAttr("sym_name")
	attrs := map[string]any{}
	for k, v := range fn.Attrs {
		if k == "sym_name" || k == "type" {
			continue
		}
		attrs[k] = v
	}

	newSig := &ir.FunctionType{Inputs: newInputs, Results: newResults}
	newFn := l.b.FuncOp(ir.KindDFFunc, name, newSig, newRegion, attrs)
	l.module.Replace(fn, newFn)

	return newFn, nil
}

// lowerReturn gathers the lowered (tuple, control) pair of every original
// operand and appends the single trailing control value.
func (l *lowering) lowerReturn(op *ir.Operation) error {
	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	l.b.SetInsertionPointBefore(op)
	l.b.DFReturn(operands)
	op.Erase()
	return nil
}

// lowerStreamPack and lowerStreamUnpack are one-for-one replacements: the
// record assembly semantics carry over to the dataflow dialect unchanged.

func (l *lowering) lowerStreamPack(op *ir.Operation) error {
	l.b.SetInsertionPointBefore(op)
	operands := append([]*ir.Value{}, op.Operands()...)
	pack := l.b.Pack(operands...)
	op.Result(0).ReplaceAllUsesWith(pack.Result(0))
	op.Erase()
	return nil
}

func (l *lowering) lowerStreamUnpack(op *ir.Operation) error {
	l.b.SetInsertionPointBefore(op)
	unpack := l.b.Unpack(op.Operand(0))
	for i, res := range op.Results() {
		res.ReplaceAllUsesWith(unpack.Result(i))
	}
	op.Erase()
	return nil
}
