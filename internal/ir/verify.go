package ir

import "fmt"

// VerifySingleUse checks the dataflow representation's value-use invariant:
// after fork/sink materialization every value inside a function body must
// have exactly one consumer.
func VerifySingleUse(funcOp *Operation) error {
	for _, region := range funcOp.Regions {
		for _, blk := range region.Blocks {
			for _, arg := range blk.Args() {
				if n := arg.NumUses(); n != 1 {
					return fmt.Errorf("block argument %s has %d uses, want 1", valueName(arg), n)
				}
			}
			for _, op := range blk.Ops() {
				for _, res := range op.Results() {
					if n := res.NumUses(); n != 1 {
						return fmt.Errorf("result %s of %s has %d uses, want 1", valueName(res), op.Kind, n)
					}
				}
			}
		}
	}
	return nil
}
