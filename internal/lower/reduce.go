package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// lowerReduce builds the stateful reduction circuit. A 1-slot sequential
// buffer holds the running accumulator, initialized to the operation's
// initial value; while eos is false the spliced combine feeds the buffer
// back into itself and no output is produced. On the eos activation the
// buffer's value is branched out instead: once packed with an explicit
// false eos bit (the final result record) and once with the true eos bit
// (the terminal record). A 2-slot select buffer sequences the two records
// so the terminal record follows exactly one activation after the result.
func (l *lowering) lowerReduce(op *ir.Operation) error {
	resultTypes, err := l.types.ConvertType(op.Result(0).Type)
	if err != nil {
		return err
	}
	accType := resultTypes[0].(*ir.TupleType).Elements[0]

	// The sequential buffers only carry 64-bit integers.
	if it, ok := accType.(*ir.IntType); !ok || it.Bits != 64 {
		return errors.New(errors.ErrorUnsupportedAccumulatorType,
			"reduce accumulator type %s is not i64", accType)
	}

	initValue, _ := op.IntAttr("initValue")

	r := ir.NewRegion()
	entry, err := l.buildEntry(r, op)
	if err != nil {
		return err
	}

	// The combine's accumulator input comes from the buffer's feedback
	// path, which does not exist until after the splice; wire it through a
	// placeholder and patch it below.
	accIn := l.b.Never(accType)

	lambda := op.Regions[0]
	lamBlock := lambda.Front()
	termOps := l.b.Splice(lambda, map[*ir.Value]*ir.Value{
		lamBlock.Arg(0):    accIn.Result(0),
		lamBlock.Arg(1):    entry.data,
		lamBlock.LastArg(): entry.streamCtrl,
	})
	newAcc := termOps[0]
	lamCtrl := termOps[1]

	buffer := l.b.Buffer(accType, 1, newAcc, []int64{initValue})

	dataBr := l.b.CondBranch(entry.eos, buffer.Result(0))
	eosBr := l.b.CondBranch(entry.eos, entry.eos)
	ctrlBr := l.b.CondBranch(entry.eos, lamCtrl)

	// Close the accumulator loop.
	accIn.Result(0).ReplaceAllUsesWith(ir.FalseResult(dataBr))
	accIn.Erase()

	eosFalse := l.b.Constant(ir.I1(), 0, ir.TrueResult(ctrlBr))
	packVal := l.b.Pack(ir.TrueResult(dataBr), eosFalse.Result(0))
	packEOS := l.b.Pack(ir.TrueResult(dataBr), ir.TrueResult(eosBr))

	// The select buffer is pre-initialized to pick the value record first
	// and the terminal record one activation later.
	bubble := l.b.Constant(ir.I1(), 0, ir.TrueResult(ctrlBr))
	sel := l.b.Buffer(ir.I32(), 2, bubble.Result(0), []int64{1, 0})

	tupleOut := l.b.Mux(sel.Result(0), packVal.Result(0), packEOS.Result(0))
	ctrlOut := l.b.Mux(sel.Result(0), ir.TrueResult(ctrlBr), ir.TrueResult(ctrlBr))

	retOps := []*ir.Value{tupleOut.Result(0), ctrlOut.Result(0), entry.initCtrl}
	l.b.DFReturn(retOps)

	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	fn := l.createFunc(r, l.symbols.Allocate(op), entryArgTypes(entry.block), valueTypes(retOps))
	_, err = l.replaceWithInstance(op, fn, operands)
	return err
}
