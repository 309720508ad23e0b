package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// lowerCreate synthesizes a bounded literal generator. The upstream control
// input is consumed exactly once through a 1-bit latch that starts armed;
// afterwards an internally looping control token (a merge of the latched
// input and a fed-back buffered token) self-clocks the circuit. A size-N
// sequential buffer pre-loaded with the literals in reverse order shifts
// out one element per activation, and a 1-slot counter buffer tracks how
// many have been emitted: the record whose post-increment count reaches N
// carries eos = true.
func (l *lowering) lowerCreate(op *ir.Operation) error {
	values, _ := op.IntsAttr("values")
	streamType := op.Result(0).Type.(*ir.StreamType)
	elementType, ok := streamType.Element.(*ir.IntType)
	if !ok {
		return errors.New(errors.ErrorUnsupportedType,
			"generator element type %s is not scalar-representable", streamType.Element)
	}
	size := int64(len(values))

	r := ir.NewRegion()
	entry := l.b.CreateBlock(r, []ir.Type{ir.None()})
	ctrlIn := entry.Arg(0)
	l.b.SetInsertionPointToEnd(entry)

	// Latch: armed once, so only the first upstream control token passes.
	falseVal := l.b.Constant(ir.I1(), 0, ctrlIn)
	armed := l.b.Buffer(ir.I1(), 1, falseVal.Result(0), []int64{1})
	useCtrl := l.b.CondBranch(armed.Result(0), ctrlIn)

	// Control self-loop; the buffer input is cyclic, so wire it through a
	// placeholder and patch it once the merge exists.
	tmpCtrl := l.b.Never(ir.None())
	ctrlBuf := l.b.Buffer(ir.None(), 1, tmpCtrl.Result(0), nil)
	ctrl := l.b.Merge(ir.TrueResult(useCtrl), ctrlBuf.Result(0))
	tmpCtrl.Result(0).ReplaceAllUsesWith(ctrl.Result(0))
	tmpCtrl.Erase()

	// Data shift register, pre-loaded in reverse emission order.
	bubble := l.b.Constant(elementType, 0, ctrl.Result(0))
	reversed := make([]int64, len(values))
	for i, v := range values {
		reversed[len(values)-1-i] = v
	}
	dataBuf := l.b.Buffer(elementType, size, bubble.Result(0), reversed)

	// Emission counter, cyclic like the control loop.
	tmpCnt := l.b.Never(ir.I64())
	cnt := l.b.Buffer(ir.I64(), 1, tmpCnt.Result(0), []int64{0})
	one := l.b.Constant(ir.I64(), 1, ctrl.Result(0))
	sizeConst := l.b.Constant(ir.I64(), size, ctrl.Result(0))
	newCnt := l.b.AddI(cnt.Result(0), one.Result(0))
	finished := l.b.CmpI("eq", newCnt.Result(0), sizeConst.Result(0))
	tmpCnt.Result(0).ReplaceAllUsesWith(newCnt.Result(0))
	tmpCnt.Erase()

	pack := l.b.Pack(dataBuf.Result(0), finished.Result(0))
	retOps := []*ir.Value{pack.Result(0), ctrl.Result(0)}
	l.b.DFReturn(retOps)

	operands, err := l.resolveOperands(op)
	if err != nil {
		return err
	}

	fn := l.createFunc(r, l.symbols.Allocate(op), entryArgTypes(entry), valueTypes(retOps))
	_, err = l.replaceWithInstance(op, fn, operands)
	return err
}
