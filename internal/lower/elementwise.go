package lower

import (
	"riffle/internal/ir"
)

// lowerMap builds a sub-program that unpacks each input record, runs the
// spliced element transform on it, and re-packs the transformed element
// with the original eos bit.
func (l *lowering) lowerMap(op *ir.Operation) error {
	r := ir.NewRegion()
	entry, err := l.buildEntry(r, op)
	if err != nil {
		return err
	}

	lambda := op.Regions[0]
	lamBlock := lambda.Front()
	termOps := l.b.Splice(lambda, map[*ir.Value]*ir.Value{
		lamBlock.Arg(0):    entry.data,
		lamBlock.LastArg(): entry.streamCtrl,
	})

	pack := l.b.Pack(termOps[0], entry.eos)
	retOps := []*ir.Value{pack.Result(0), termOps[1], entry.initCtrl}
	l.b.DFReturn(retOps)

	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	fn := l.createFunc(r, l.symbols.Allocate(op), entryArgTypes(entry.block), valueTypes(retOps))
	_, err = l.replaceWithInstance(op, fn, operands)
	return err
}

// lowerFilter routes each record through a conditional branch gated on
// "predicate OR eos" and only returns the branch's true outputs: a filtered
// element produces neither a record nor a control pulse, while the terminal
// eos record always passes.
func (l *lowering) lowerFilter(op *ir.Operation) error {
	r := ir.NewRegion()
	entry, err := l.buildEntry(r, op)
	if err != nil {
		return err
	}

	lambda := op.Regions[0]
	lamBlock := lambda.Front()
	termOps := l.b.Splice(lambda, map[*ir.Value]*ir.Value{
		lamBlock.Arg(0):    entry.data,
		lamBlock.LastArg(): entry.streamCtrl,
	})
	cond := termOps[0]
	ctrl := termOps[1]

	pack := l.b.Pack(entry.data, entry.eos)
	condOrEos := l.b.OrI(cond, entry.eos)

	dataBr := l.b.CondBranch(condOrEos.Result(0), pack.Result(0))
	// Only emit a control pulse when a record is actually produced.
	ctrlBr := l.b.CondBranch(condOrEos.Result(0), ctrl)

	retOps := []*ir.Value{ir.TrueResult(dataBr), ir.TrueResult(ctrlBr), entry.initCtrl}
	l.b.DFReturn(retOps)

	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	fn := l.createFunc(r, l.symbols.Allocate(op), entryArgTypes(entry.block), valueTypes(retOps))
	_, err = l.replaceWithInstance(op, fn, operands)
	return err
}
