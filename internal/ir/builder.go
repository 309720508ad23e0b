package ir

// Builder creates IR. All values and operations are made through a builder so
// SSA IDs stay unique and use lists stay consistent.
type Builder struct {
	valueCounter int

	block *Block
	pos   int // insertion index within block; -1 appends
}

// NewBuilder returns a builder with no insertion point.
func NewBuilder() *Builder {
	return &Builder{pos: -1}
}

// NewModuleBuilder returns a builder whose value IDs continue after every
// value already present in m.
func NewModuleBuilder(m *Module) *Builder {
	b := NewBuilder()
	b.valueCounter = maxValueID(m) + 1
	return b
}

func maxValueID(m *Module) int {
	max := -1
	var visitBlock func(blk *Block)
	visitBlock = func(blk *Block) {
		for _, arg := range blk.args {
			if arg.ID > max {
				max = arg.ID
			}
		}
		for _, op := range blk.ops {
			for _, res := range op.results {
				if res.ID > max {
					max = res.ID
				}
			}
			for _, r := range op.Regions {
				for _, nested := range r.Blocks {
					visitBlock(nested)
				}
			}
		}
	}
	visitBlock(m.Body)
	return max
}

// SetInsertionPointAfter makes subsequent operations insert right after op.
func (b *Builder) SetInsertionPointAfter(op *Operation) {
	b.block = op.block
	b.pos = op.block.indexOf(op) + 1
}

// SetInsertionPointToEnd makes subsequent operations append to blk.
func (b *Builder) SetInsertionPointToEnd(blk *Block) {
	b.block = blk
	b.pos = -1
}

// SetInsertionPointBefore makes subsequent operations insert before op.
func (b *Builder) SetInsertionPointBefore(op *Operation) {
	b.block = op.block
	b.pos = op.block.indexOf(op)
}

func (b *Builder) newValue(t Type) *Value {
	v := &Value{ID: b.valueCounter, Type: t}
	b.valueCounter++
	return v
}

// CreateBlock appends a new block with the given argument types to region.
func (b *Builder) CreateBlock(region *Region, argTypes []Type) *Block {
	blk := &Block{parent: region}
	for i, t := range argTypes {
		arg := b.newValue(t)
		arg.owner = blk
		arg.defIndex = i
		blk.args = append(blk.args, arg)
	}
	region.Blocks = append(region.Blocks, blk)
	return blk
}

// AddBlockArg appends a trailing argument of type t to blk.
func (b *Builder) AddBlockArg(blk *Block, t Type) *Value {
	arg := b.newValue(t)
	arg.owner = blk
	arg.defIndex = len(blk.args)
	blk.args = append(blk.args, arg)
	return arg
}

// Create builds an operation of the given kind at the insertion point.
func (b *Builder) Create(kind OpKind, operands []*Value, resultTypes []Type, attrs map[string]any) *Operation {
	op := &Operation{Kind: kind, Attrs: attrs}
	if op.Attrs == nil {
		op.Attrs = map[string]any{}
	}
	op.operands = make([]*Value, len(operands))
	for i, v := range operands {
		op.operands[i] = v
		v.addUse(op, i)
	}
	for i, t := range resultTypes {
		res := b.newValue(t)
		res.def = op
		res.defIndex = i
		op.results = append(op.results, res)
	}
	b.insert(op)
	return op
}

func (b *Builder) insert(op *Operation) {
	if b.block == nil {
		return // free-standing; attached later via AttachRegion or Module.Push
	}
	op.block = b.block
	if b.pos < 0 {
		b.block.ops = append(b.block.ops, op)
		return
	}
	b.block.ops = append(b.block.ops, nil)
	copy(b.block.ops[b.pos+1:], b.block.ops[b.pos:])
	b.block.ops[b.pos] = op
	b.pos++
}

// FuncOp creates a free-standing function operation (source or dataflow) from
// a name, a signature and an already-built body region. The caller pushes it
// into a module.
func (b *Builder) FuncOp(kind OpKind, name string, sig *FunctionType, body *Region, attrs map[string]any) *Operation {
	op := &Operation{Kind: kind, Attrs: map[string]any{}}
	for k, v := range attrs {
		op.Attrs[k] = v
	}
	op.Attrs["sym_name"] = name
	op.Attrs["type"] = Type(sig)
	if body != nil {
		body.Parent = op
		op.Regions = append(op.Regions, body)
	}
	return op
}

// Convenience constructors for the dataflow dialect. Each mirrors Create with
// the kind's operand/result discipline spelled out.

// Constant emits value of type t each time ctrl fires.
func (b *Builder) Constant(t Type, value int64, ctrl *Value) *Operation {
	return b.Create(KindConstant, []*Value{ctrl}, []Type{t}, map[string]any{"value": value})
}

// SrcConstant is the plain literal used inside element-wise regions. The
// region pre-lowering replaces it with a control-fed Constant.
func (b *Builder) SrcConstant(t Type, value int64) *Operation {
	return b.Create(KindSrcConstant, nil, []Type{t}, map[string]any{"value": value})
}

// Buffer creates a size-slot sequential buffer on input. initValues are
// emitted before any input token, last entry first.
func (b *Builder) Buffer(t Type, size int64, input *Value, initValues []int64) *Operation {
	attrs := map[string]any{"size": size, "bufferType": "seq"}
	if initValues != nil {
		attrs["initValues"] = initValues
	}
	return b.Create(KindBuffer, []*Value{input}, []Type{t}, attrs)
}

// Pack bundles values into one tuple token.
func (b *Builder) Pack(values ...*Value) *Operation {
	types := make([]Type, len(values))
	for i, v := range values {
		types[i] = v.Type
	}
	return b.Create(KindPack, values, []Type{Tuple(types...)}, nil)
}

// Unpack splits a tuple token into its elements.
func (b *Builder) Unpack(tuple *Value) *Operation {
	tt := tuple.Type.(*TupleType)
	return b.Create(KindUnpack, []*Value{tuple}, tt.Elements, nil)
}

// CondBranch routes data to its true or false result depending on cond.
func (b *Builder) CondBranch(cond, data *Value) *Operation {
	return b.Create(KindCondBranch, []*Value{cond, data}, []Type{data.Type, data.Type}, nil)
}

// TrueResult and FalseResult name the conditional branch results.
func TrueResult(br *Operation) *Value  { return br.Result(0) }
func FalseResult(br *Operation) *Value { return br.Result(1) }

// Mux forwards the input chosen by select.
func (b *Builder) Mux(sel *Value, inputs ...*Value) *Operation {
	operands := append([]*Value{sel}, inputs...)
	return b.Create(KindMux, operands, []Type{inputs[0].Type}, nil)
}

// Merge forwards whichever input fires, lowest index first.
func (b *Builder) Merge(inputs ...*Value) *Operation {
	return b.Create(KindMerge, inputs, []Type{inputs[0].Type}, nil)
}

// Join emits one control token once every input has fired.
func (b *Builder) Join(inputs ...*Value) *Operation {
	return b.Create(KindJoin, inputs, []Type{None()}, nil)
}

// Fork duplicates its input to n outputs.
func (b *Builder) Fork(input *Value, n int) *Operation {
	types := make([]Type, n)
	for i := range types {
		types[i] = input.Type
	}
	return b.Create(KindFork, []*Value{input}, types, nil)
}

// Sink discards its input.
func (b *Builder) Sink(input *Value) *Operation {
	return b.Create(KindSink, []*Value{input}, nil, nil)
}

// Never produces no token; a placeholder input for cyclic wiring.
func (b *Builder) Never(t Type) *Operation {
	return b.Create(KindNever, nil, []Type{t}, nil)
}

// Instance instantiates the named sub-program.
func (b *Builder) Instance(callee string, sig *FunctionType, operands []*Value) *Operation {
	return b.Create(KindInstance, operands, sig.Results, map[string]any{"callee": callee})
}

// DFReturn terminates a dataflow function body.
func (b *Builder) DFReturn(operands []*Value) *Operation {
	return b.Create(KindDFReturn, operands, nil, nil)
}

// Cast bridges between a lowered encoding and its original typing.
func (b *Builder) Cast(operands []*Value, resultTypes []Type) *Operation {
	return b.Create(KindCast, operands, resultTypes, nil)
}

// Arithmetic on integer tokens.

func (b *Builder) AddI(lhs, rhs *Value) *Operation {
	return b.Create(KindAddI, []*Value{lhs, rhs}, []Type{lhs.Type}, nil)
}

func (b *Builder) SubI(lhs, rhs *Value) *Operation {
	return b.Create(KindSubI, []*Value{lhs, rhs}, []Type{lhs.Type}, nil)
}

func (b *Builder) MulI(lhs, rhs *Value) *Operation {
	return b.Create(KindMulI, []*Value{lhs, rhs}, []Type{lhs.Type}, nil)
}

func (b *Builder) OrI(lhs, rhs *Value) *Operation {
	return b.Create(KindOrI, []*Value{lhs, rhs}, []Type{lhs.Type}, nil)
}

func (b *Builder) AndI(lhs, rhs *Value) *Operation {
	return b.Create(KindAndI, []*Value{lhs, rhs}, []Type{lhs.Type}, nil)
}

func (b *Builder) CmpI(predicate string, lhs, rhs *Value) *Operation {
	return b.Create(KindCmpI, []*Value{lhs, rhs}, []Type{I1()}, map[string]any{"predicate": predicate})
}

// Splice moves the single block of src into the builder's insertion point,
// replacing each source block argument with subst[arg]. The source
// terminator is erased and its operand list returned; every other operation
// keeps its order. The substitution map is explicit so rules cannot silently
// mis-align arguments.
func (b *Builder) Splice(src *Region, subst map[*Value]*Value) []*Value {
	srcBlock := src.Front()
	for _, arg := range srcBlock.args {
		if repl, ok := subst[arg]; ok {
			arg.ReplaceAllUsesWith(repl)
		}
	}

	term := srcBlock.Terminator()
	termOperands := append([]*Value{}, term.Operands()...)
	term.Erase()

	moved := append([]*Operation{}, srcBlock.ops...)
	srcBlock.ops = nil
	for _, op := range moved {
		op.block = b.block
		if b.pos < 0 {
			b.block.ops = append(b.block.ops, op)
		} else {
			b.block.ops = append(b.block.ops, nil)
			copy(b.block.ops[b.pos+1:], b.block.ops[b.pos:])
			b.block.ops[b.pos] = op
			b.pos++
		}
	}
	src.Blocks = nil

	return termOperands
}
