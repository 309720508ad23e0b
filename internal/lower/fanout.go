package lower

import (
	"riffle/internal/ir"
)

// lowerSplit splices the region producing K results from one input record
// and re-packs each result with the single shared eos bit, forwarding the
// shared control signal alongside every one: the sub-program exposes
// K*2 + 1 results.
func (l *lowering) lowerSplit(op *ir.Operation) error {
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
	ctrl := termOps[len(termOps)-1]

	var retOps []*ir.Value
	for _, result := range termOps[:len(termOps)-1] {
		pack := l.b.Pack(result, entry.eos)
		retOps = append(retOps, pack.Result(0), ctrl)
	}
	retOps = append(retOps, entry.initCtrl)
	l.b.DFReturn(retOps)

	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	fn := l.createFunc(r, l.symbols.Allocate(op), entryArgTypes(entry.block), valueTypes(retOps))
	_, err = l.replaceWithInstance(op, fn, operands)
	return err
}

// lowerCombine unpacks all N input records, joins the N stream-control
// signals so the combine only fires once every input is available, and
// terminates the result stream as soon as any input terminates: the
// combined eos is the OR across all input eos bits.
func (l *lowering) lowerCombine(op *ir.Operation) error {
	inputTypes, err := l.operandEntryTypes(op)
	if err != nil {
		return err
	}

	r := ir.NewRegion()
	entry := l.b.CreateBlock(r, inputTypes)
	l.b.SetInsertionPointToEnd(entry)

	var datas, eoses, ctrls []*ir.Value
	for i := 0; i < entry.NumArgs()-1; i += 2 {
		unpack := l.b.Unpack(entry.Arg(i))
		datas = append(datas, unpack.Result(0))
		eoses = append(eoses, unpack.Result(1))
		ctrls = append(ctrls, entry.Arg(i+1))
	}
	initCtrl := entry.LastArg()

	// Synchronization barrier across the input streams.
	join := l.b.Join(ctrls...)

	lambda := op.Regions[0]
	lamBlock := lambda.Front()
	subst := map[*ir.Value]*ir.Value{
		lamBlock.LastArg(): join.Result(0),
	}
	for i, data := range datas {
		subst[lamBlock.Arg(i)] = data
	}
	termOps := l.b.Splice(lambda, subst)
	ctrl := termOps[len(termOps)-1]

	eos := l.orTree(eoses)

	var retOps []*ir.Value
	for _, result := range termOps[:len(termOps)-1] {
		pack := l.b.Pack(result, eos)
		retOps = append(retOps, pack.Result(0), ctrl)
	}
	retOps = append(retOps, initCtrl)
	l.b.DFReturn(retOps)

	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	fn := l.createFunc(r, l.symbols.Allocate(op), entryArgTypes(entry), valueTypes(retOps))
	_, err = l.replaceWithInstance(op, fn, operands)
	return err
}

func (l *lowering) orTree(values []*ir.Value) *ir.Value {
	result := values[0]
	for _, v := range values[1:] {
		result = l.b.OrI(result, v).Result(0)
	}
	return result
}

// lowerSink builds a sub-program with no data results, only the control
// result. The input values are deliberately left unused so the single-use
// materializer has to insert explicit discard nodes for them.
func (l *lowering) lowerSink(op *ir.Operation) error {
	inputTypes, err := l.operandEntryTypes(op)
	if err != nil {
		return err
	}

	r := ir.NewRegion()
	entry := l.b.CreateBlock(r, inputTypes)
	l.b.SetInsertionPointToEnd(entry)

	initCtrl := entry.LastArg()
	l.b.DFReturn([]*ir.Value{initCtrl})

	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	fn := l.createFunc(r, l.symbols.Allocate(op), entryArgTypes(entry), []ir.Type{ir.None()})
	_, err = l.replaceWithInstance(op, fn, operands)
	return err
}
