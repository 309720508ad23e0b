package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// Control-token resolution. After partial conversion some stream operands
// are block parameters and others are results of already-lowered
// instantiations; both cases keep their control token in the trailing
// position by construction.

// blockControl returns the block's trailing control argument.
func blockControl(blk *ir.Block) (*ir.Value, error) {
	ctrl := blk.LastArg()
	if _, ok := ctrl.Type.(*ir.NoneType); !ok {
		return nil, errors.New(errors.ErrorMalformedControlChain,
			"block's last argument has type %s, want none", ctrl.Type)
	}
	return ctrl, nil
}

// resolveControl locates the control token flowing alongside a value chain:
// a block parameter resolves to its block's trailing control argument, an
// instantiation result to the instantiation's trailing result; anything else
// recurses on the defining operation's first operand. A chain that cannot
// terminate is malformed input.
func resolveControl(v *ir.Value) (*ir.Value, error) {
	if v.IsBlockArg() {
		return blockControl(v.Owner())
	}
	def := v.DefiningOp()
	if def == nil {
		return nil, errors.New(errors.ErrorMalformedControlChain,
			"value has neither block owner nor defining operation")
	}
	if def.Kind == ir.KindInstance {
		return def.Result(def.NumResults() - 1), nil
	}
	if def.NumOperands() == 0 {
		return nil, errors.New(errors.ErrorMalformedControlChain,
			"control chain dead-ends at %s", def.Kind)
	}
	return resolveControl(def.Operand(0))
}

// resolveOperands produces the lowered operand list for a stream operation:
// the (tuple, control) pair of every stream operand, in order, followed by
// exactly one trailing control value. The trailing control is the shared
// token recovered from the first operand's chain, or the enclosing block's
// control argument when the operation has no operands (a generator).
func (l *lowering) resolveOperands(op *ir.Operation) ([]*ir.Value, error) {
	var out []*ir.Value
	for _, v := range op.Operands() {
		if _, ok := v.Type.(*ir.StreamType); !ok {
			out = append(out, v)
			continue
		}
		pair, err := resolveStreamOperand(v)
		if err != nil {
			return nil, err
		}
		out = append(out, pair...)
	}

	if op.NumOperands() == 0 {
		ctrl, err := blockControl(op.Block())
		if err != nil {
			return nil, err
		}
		return append(out, ctrl), nil
	}

	ctrl, err := resolveControl(op.Operand(0))
	if err != nil {
		return nil, err
	}
	return append(out, ctrl), nil
}

// resolveStreamOperand recovers the (tuple, control) pair bridged behind a
// stream-typed value. The producer was either already lowered (its results
// pass through a conversion cast) or is a converted block parameter (which
// the signature rule also bridges through a cast).
func resolveStreamOperand(v *ir.Value) ([]*ir.Value, error) {
	cast := v.DefiningOp()
	if cast == nil || cast.Kind != ir.KindCast {
		return nil, errors.New(errors.ErrorMalformedControlChain,
			"stream operand is not bridged by a conversion cast")
	}
	return cast.Operands(), nil
}
