package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// Region pre-lowering: before the per-operation rules run, every nested
// region owned by a stream operation is brought from its structured
// sequential form into the single-block dataflow form the rules splice: a
// trailing control argument is appended, the yield becomes a dataflow
// return forwarding that control token, and the block is left
// representation-valid. The fork/sink nodes that step materializes are then
// stripped again, because splicing a region into a parent body introduces
// consumers a standalone lowering cannot anticipate.

// preLowerRegions lowers the nested regions of every region-carrying stream
// operation inside a source function.
func (l *lowering) preLowerRegions(fn *ir.Operation) error {
	for _, op := range append([]*ir.Operation{}, fn.Regions[0].Front().Ops()...) {
		if !op.Kind.HasRegion() {
			continue
		}
		for _, r := range op.Regions {
			if err := l.lowerRegion(r); err != nil {
				return err
			}
			dematerializeForksAndSinks(r)
		}
	}
	return nil
}

// lowerRegion converts one structured region into dataflow block form.
func (l *lowering) lowerRegion(r *ir.Region) error {
	if !r.HasOneBlock() {
		return errors.New(errors.ErrorMalformedRegion,
			"structured region has %d blocks, want 1", len(r.Blocks))
	}
	blk := r.Front()

	term := blk.Terminator()
	if term.Kind != ir.KindYield {
		return errors.New(errors.ErrorMalformedRegion,
			"structured region ends in %s, want %s", term.Kind, ir.KindYield)
	}

	ctrl := l.b.AddBlockArg(blk, ir.None())

	// Plain literals become control-fed constants so they emit one token
	// per activation.
	for _, op := range append([]*ir.Operation{}, blk.Ops()...) {
		if op.Kind != ir.KindSrcConstant {
			continue
		}
		value, _ := op.IntAttr("value")
		l.b.SetInsertionPointBefore(op)
		c := l.b.Constant(op.Result(0).Type, value, ctrl)
		op.Result(0).ReplaceAllUsesWith(c.Result(0))
		op.Erase()
	}

	operands := append([]*ir.Value{}, term.Operands()...)
	operands = append(operands, ctrl)
	term.Erase()

	l.b.SetInsertionPointToEnd(blk)
	l.b.DFReturn(operands)

	// Leave the standalone region legal; the caller strips this again
	// right before splicing.
	l.materializeBlock(blk)
	return nil
}

// dematerializeForksAndSinks removes every explicit fan-out and discard node
// in the region and rewires consumers straight to the forked value.
func dematerializeForksAndSinks(r *ir.Region) {
	for _, blk := range r.Blocks {
		for _, op := range append([]*ir.Operation{}, blk.Ops()...) {
			switch op.Kind {
			case ir.KindSink:
				op.Erase()
			case ir.KindFork:
				input := op.Operand(0)
				for _, res := range op.Results() {
					res.ReplaceAllUsesWith(input)
				}
				op.Erase()
			}
		}
	}
}
