package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// Single-use materialization: the dataflow representation requires every
// value to have exactly one consumer. After the partial rewrite, values with
// several consumers get an explicit fan-out node and values with none get an
// explicit discard node. The procedure is idempotent: a second run finds
// nothing left to fix.

// materializeForksAndSinks legalizes every dataflow function in the module
// and verifies the single-use invariant afterwards.
func (l *lowering) materializeForksAndSinks() error {
	for _, fn := range l.module.Funcs(ir.KindDFFunc) {
		for _, r := range fn.Regions {
			for _, blk := range r.Blocks {
				l.materializeBlock(blk)
			}
		}
		if err := ir.VerifySingleUse(fn); err != nil {
			return errors.New(errors.ErrorVerification, "%v", err).
				WithSubject(ir.PrintOp(fn))
		}
	}
	return nil
}

// materializeBlock inserts fork and sink nodes for one block.
func (l *lowering) materializeBlock(blk *ir.Block) {
	ops := append([]*ir.Operation{}, blk.Ops()...)

	for _, arg := range blk.Args() {
		l.legalizeValue(arg, nil, blk)
	}
	for _, op := range ops {
		for _, res := range op.Results() {
			l.legalizeValue(res, op, blk)
		}
	}
}

func (l *lowering) legalizeValue(v *ir.Value, def *ir.Operation, blk *ir.Block) {
	switch n := v.NumUses(); {
	case n == 0:
		if def != nil {
			l.b.SetInsertionPointAfter(def)
		} else {
			l.b.SetInsertionPointToEnd(blk)
			if len(blk.Ops()) > 0 {
				l.b.SetInsertionPointBefore(blk.Ops()[0])
			}
		}
		l.b.Sink(v)
	case n > 1:
		uses := append([]ir.Use{}, v.Uses()...)
		if def != nil {
			l.b.SetInsertionPointAfter(def)
		} else if len(blk.Ops()) > 0 {
			l.b.SetInsertionPointBefore(blk.Ops()[0])
		} else {
			l.b.SetInsertionPointToEnd(blk)
		}
		fork := l.b.Fork(v, len(uses))
		for i, u := range uses {
			u.Op.SetOperand(u.Index, fork.Result(i))
		}
	}
}

// removeUnusedCasts erases the conversion casts the partial rewrite left
// behind once nothing references them anymore.
func (l *lowering) removeUnusedCasts() {
	for _, fn := range l.module.Funcs(ir.KindDFFunc) {
		for _, r := range fn.Regions {
			for _, blk := range r.Blocks {
				for _, op := range append([]*ir.Operation{}, blk.Ops()...) {
					if op.Kind != ir.KindCast {
						continue
					}
					unused := true
					for _, res := range op.Results() {
						if res.NumUses() > 0 {
							unused = false
							break
						}
					}
					if unused {
						op.Erase()
					}
				}
			}
		}
	}
}
