package ir

// OpKind identifies one of the closed set of operation kinds. The lowering
// pass switches exhaustively over this set; adding a kind without teaching
// the pass about it is caught at the pass's default branch.
type OpKind int

const (
	// Source function dialect.
	KindFunc OpKind = iota
	KindReturn

	// Stream dialect.
	KindStreamCreate
	KindStreamMap
	KindStreamFilter
	KindStreamReduce
	KindStreamSplit
	KindStreamCombine
	KindStreamSink
	KindStreamPack
	KindStreamUnpack
	KindYield

	// Dataflow dialect (the lowered target).
	KindDFFunc
	KindDFReturn
	KindInstance
	KindPack
	KindUnpack
	KindBuffer
	KindFork
	KindSink
	KindJoin
	KindMux
	KindMerge
	KindCondBranch
	KindConstant
	KindNever

	// Arith dialect, legal on both sides. KindSrcConstant is the plain
	// literal form; region pre-lowering rewrites it into the control-fed
	// KindConstant.
	KindSrcConstant
	KindAddI
	KindSubI
	KindMulI
	KindOrI
	KindAndI
	KindCmpI

	// Bridge between stream-typed values and their lowered encoding during
	// the partial rewrite; removed by the cleanup step.
	KindCast
)

var opKindNames = map[OpKind]string{
	KindFunc:          "func.func",
	KindReturn:        "func.return",
	KindStreamCreate:  "stream.create",
	KindStreamMap:     "stream.map",
	KindStreamFilter:  "stream.filter",
	KindStreamReduce:  "stream.reduce",
	KindStreamSplit:   "stream.split",
	KindStreamCombine: "stream.combine",
	KindStreamSink:    "stream.sink",
	KindStreamPack:    "stream.pack",
	KindStreamUnpack:  "stream.unpack",
	KindYield:         "stream.yield",
	KindDFFunc:        "dataflow.func",
	KindDFReturn:      "dataflow.return",
	KindInstance:      "dataflow.instance",
	KindPack:          "dataflow.pack",
	KindUnpack:        "dataflow.unpack",
	KindBuffer:        "dataflow.buffer",
	KindFork:          "dataflow.fork",
	KindSink:          "dataflow.sink",
	KindJoin:          "dataflow.join",
	KindMux:           "dataflow.mux",
	KindMerge:         "dataflow.merge",
	KindCondBranch:    "dataflow.cond_br",
	KindConstant:      "dataflow.constant",
	KindNever:         "dataflow.never",
	KindSrcConstant:   "arith.constant",
	KindAddI:          "arith.addi",
	KindSubI:          "arith.subi",
	KindMulI:          "arith.muli",
	KindOrI:           "arith.ori",
	KindAndI:          "arith.andi",
	KindCmpI:          "arith.cmpi",
	KindCast:          "core.cast",
}

func (k OpKind) String() string { return opKindNames[k] }

// IsStreamOp reports whether the kind belongs to the stream dialect's
// region-carrying or value-producing operations that the lowering replaces.
func (k OpKind) IsStreamOp() bool {
	switch k {
	case KindStreamCreate, KindStreamMap, KindStreamFilter, KindStreamReduce,
		KindStreamSplit, KindStreamCombine, KindStreamSink,
		KindStreamPack, KindStreamUnpack:
		return true
	}
	return false
}

// HasRegion reports whether the stream operation kind owns a nested
// single-element computation region.
func (k OpKind) HasRegion() bool {
	switch k {
	case KindStreamMap, KindStreamFilter, KindStreamReduce,
		KindStreamSplit, KindStreamCombine:
		return true
	}
	return false
}

// Use records a single consumer of a value: the consuming operation and the
// operand slot it occupies.
type Use struct {
	Op    *Operation
	Index int
}

// Value is an SSA value: defined exactly once, either as an operation result
// or as a block argument.
type Value struct {
	ID   int
	Type Type

	def      *Operation // nil for block arguments
	defIndex int
	owner    *Block // nil for operation results

	uses []Use
}

// DefiningOp returns the operation defining the value, or nil for block
// arguments.
func (v *Value) DefiningOp() *Operation { return v.def }

// ResultIndex returns the result position within the defining operation, or
// the argument position within the owner block.
func (v *Value) ResultIndex() int { return v.defIndex }

// IsBlockArg reports whether the value is a block argument.
func (v *Value) IsBlockArg() bool { return v.owner != nil }

// Owner returns the block owning the value when it is a block argument.
func (v *Value) Owner() *Block { return v.owner }

// Uses returns the value's consumers.
func (v *Value) Uses() []Use { return v.uses }

// NumUses returns the number of operand slots referencing the value.
func (v *Value) NumUses() int { return len(v.uses) }

func (v *Value) addUse(op *Operation, index int) {
	v.uses = append(v.uses, Use{Op: op, Index: index})
}

func (v *Value) removeUse(op *Operation, index int) {
	for i, u := range v.uses {
		if u.Op == op && u.Index == index {
			v.uses = append(v.uses[:i], v.uses[i+1:]...)
			return
		}
	}
}

// ReplaceAllUsesWith rewires every consumer of v to use w instead.
func (v *Value) ReplaceAllUsesWith(w *Value) {
	for len(v.uses) > 0 {
		u := v.uses[0]
		u.Op.SetOperand(u.Index, w)
	}
}

// Operation is a generic IR node: a kind, ordered typed operands and results,
// optional nested regions, and attributes.
type Operation struct {
	Kind     OpKind
	Attrs    map[string]any
	Regions  []*Region

	operands []*Value
	results  []*Value
	block    *Block
}

// Operands returns the operation's operand list.
func (op *Operation) Operands() []*Value { return op.operands }

// Operand returns the i-th operand.
func (op *Operation) Operand(i int) *Value { return op.operands[i] }

// NumOperands returns the operand count.
func (op *Operation) NumOperands() int { return len(op.operands) }

// SetOperand replaces the i-th operand, keeping use lists consistent.
func (op *Operation) SetOperand(i int, v *Value) {
	if old := op.operands[i]; old != nil {
		old.removeUse(op, i)
	}
	op.operands[i] = v
	if v != nil {
		v.addUse(op, i)
	}
}

// Results returns the operation's result list.
func (op *Operation) Results() []*Value { return op.results }

// Result returns the i-th result.
func (op *Operation) Result(i int) *Value { return op.results[i] }

// NumResults returns the result count.
func (op *Operation) NumResults() int { return len(op.results) }

// Block returns the block containing the operation.
func (op *Operation) Block() *Block { return op.block }

// IntAttr returns the named integer attribute.
func (op *Operation) IntAttr(name string) (int64, bool) {
	v, ok := op.Attrs[name].(int64)
	return v, ok
}

// IntsAttr returns the named integer-list attribute.
func (op *Operation) IntsAttr(name string) ([]int64, bool) {
	v, ok := op.Attrs[name].([]int64)
	return v, ok
}

// StringAttr returns the named string attribute.
func (op *Operation) StringAttr(name string) (string, bool) {
	v, ok := op.Attrs[name].(string)
	return v, ok
}

// TypeAttr returns the named type attribute.
func (op *Operation) TypeAttr(name string) (Type, bool) {
	v, ok := op.Attrs[name].(Type)
	return v, ok
}

// Erase removes the operation from its block and releases its operand uses.
// The caller must have rewired or abandoned the operation's results.
func (op *Operation) Erase() {
	for i, v := range op.operands {
		if v != nil {
			v.removeUse(op, i)
		}
	}
	op.operands = nil
	if op.block != nil {
		op.block.remove(op)
		op.block = nil
	}
}

// Region is a list of blocks owned by an operation (or standing free while a
// lowering rule assembles a new body).
type Region struct {
	Blocks []*Block
	Parent *Operation
}

// NewRegion returns an empty, unattached region.
func NewRegion() *Region { return &Region{} }

// Front returns the region's entry block.
func (r *Region) Front() *Block { return r.Blocks[0] }

// HasOneBlock reports whether the region holds exactly one block.
func (r *Region) HasOneBlock() bool { return len(r.Blocks) == 1 }

// Block is a sequence of operations with typed arguments. Lowered bodies are
// single-block; the terminator is the last operation.
type Block struct {
	args   []*Value
	ops    []*Operation
	parent *Region
}

// Args returns the block's arguments.
func (b *Block) Args() []*Value { return b.args }

// Arg returns the i-th block argument.
func (b *Block) Arg(i int) *Value { return b.args[i] }

// NumArgs returns the argument count.
func (b *Block) NumArgs() int { return len(b.args) }

// LastArg returns the trailing block argument. Lowered bodies keep their
// control token there.
func (b *Block) LastArg() *Value { return b.args[len(b.args)-1] }

// Ops returns the block's operations in order.
func (b *Block) Ops() []*Operation { return b.ops }

// Terminator returns the block's last operation.
func (b *Block) Terminator() *Operation { return b.ops[len(b.ops)-1] }

// Parent returns the region containing the block.
func (b *Block) Parent() *Region { return b.parent }

func (b *Block) remove(op *Operation) {
	for i, o := range b.ops {
		if o == op {
			b.ops = append(b.ops[:i], b.ops[i+1:]...)
			return
		}
	}
}

func (b *Block) indexOf(op *Operation) int {
	for i, o := range b.ops {
		if o == op {
			return i
		}
	}
	return -1
}

// Module is the top-level container: an ordered list of function operations
// sharing one symbol namespace.
type Module struct {
	Body *Block
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{Body: &Block{}}
}

// Push appends a function operation to the module body.
func (m *Module) Push(op *Operation) {
	op.block = m.Body
	m.Body.ops = append(m.Body.ops, op)
}

// PushFront prepends a function operation to the module body. New
// sub-programs are placed before their instantiation sites.
func (m *Module) PushFront(op *Operation) {
	op.block = m.Body
	m.Body.ops = append([]*Operation{op}, m.Body.ops...)
}

// Replace swaps old for new at the same position in the module body. The
// old operation's operand uses are released; its results must already be
// rewired.
func (m *Module) Replace(old, new *Operation) {
	idx := m.Body.indexOf(old)
	old.Erase()
	new.block = m.Body
	m.Body.ops = append(m.Body.ops, nil)
	copy(m.Body.ops[idx+1:], m.Body.ops[idx:])
	m.Body.ops[idx] = new
}

// MoveBlockOps transfers every operation of from, in order, to the end of to.
func MoveBlockOps(from, to *Block) {
	for _, op := range from.ops {
		op.block = to
		to.ops = append(to.ops, op)
	}
	from.ops = nil
}

// Funcs returns a snapshot of the module's function operations of the given
// kind, safe to iterate while the module body is mutated.
func (m *Module) Funcs(kind OpKind) []*Operation {
	var out []*Operation
	for _, op := range m.Body.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// SymbolNames returns every symbol name defined at module level.
func (m *Module) SymbolNames() []string {
	var names []string
	for _, op := range m.Body.ops {
		if name, ok := op.StringAttr("sym_name"); ok {
			names = append(names, name)
		}
	}
	return names
}

// LookupSymbol returns the module-level operation carrying the given symbol
// name, or nil.
func (m *Module) LookupSymbol(name string) *Operation {
	for _, op := range m.Body.ops {
		if n, ok := op.StringAttr("sym_name"); ok && n == name {
			return op
		}
	}
	return nil
}
