package lower

import (
	"github.com/tliron/commonlog"

	"riffle/internal/ir"
)

var log = commonlog.GetLogger("riffle.lower")

// Run rewrites every stream-dialect construct in the module into the
// dataflow dialect. The pass sequences region pre-lowering, the
// pattern-driven partial rewrite, cleanup of dead conversion casts, and
// single-use materialization; the first irrecoverable failure aborts the
// remainder and is surfaced to the caller unchanged.
func Run(m *ir.Module) error {
	l := &lowering{
		module:  m,
		b:       ir.NewModuleBuilder(m),
		types:   NewTypeConverter(),
		symbols: NewSymbolAllocator(m),
	}

	log.Debug("pre-lowering nested stream regions")
	for _, fn := range m.Funcs(ir.KindFunc) {
		if err := l.preLowerRegions(fn); err != nil {
			log.Errorf("region pre-lowering failed: %s", err)
			return err
		}
	}

	log.Debug("rewriting stream operations")
	for _, fn := range m.Funcs(ir.KindFunc) {
		newFn, err := l.lowerFuncSignature(fn)
		if err != nil {
			log.Errorf("signature conversion failed: %s", err)
			return err
		}
		if err := l.lowerBody(newFn); err != nil {
			log.Errorf("operation rewrite failed: %s", err)
			return err
		}
	}

	log.Debug("removing dead conversion casts")
	l.removeUnusedCasts()

	log.Debug("materializing forks and sinks")
	if err := l.materializeForksAndSinks(); err != nil {
		log.Errorf("materialization failed: %s", err)
		return err
	}

	return nil
}

// lowerBody rewrites the operations of one converted function, visiting a
// snapshot of the body so rules are free to mutate it. The mapping from
// operation kind to rule is total over the stream dialect.
func (l *lowering) lowerBody(fn *ir.Operation) error {
	entry := fn.Regions[0].Front()

	for _, op := range append([]*ir.Operation{}, entry.Ops()...) {
		var err error
		switch op.Kind {
		case ir.KindStreamCreate:
			err = l.lowerCreate(op)
		case ir.KindStreamMap:
			err = l.lowerMap(op)
		case ir.KindStreamFilter:
			err = l.lowerFilter(op)
		case ir.KindStreamReduce:
			err = l.lowerReduce(op)
		case ir.KindStreamSplit:
			err = l.lowerSplit(op)
		case ir.KindStreamCombine:
			err = l.lowerCombine(op)
		case ir.KindStreamSink:
			err = l.lowerSink(op)
		case ir.KindStreamPack:
			err = l.lowerStreamPack(op)
		case ir.KindStreamUnpack:
			err = l.lowerStreamUnpack(op)
		case ir.KindReturn:
			err = l.lowerReturn(op)
		default:
			// Arith and dataflow operations are legal in the target
			// representation and pass through untouched.
		}
		if err != nil {
			return err
		}
	}
	return nil
}
