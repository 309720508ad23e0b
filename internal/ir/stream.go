package ir

// Constructors for the stream dialect, the source side of the lowering.
// Nested regions hold the per-element computation: block arguments are the
// element values, the terminator is a stream.yield.

// StreamCreate builds a bounded literal generator producing the given values
// in order, then the end-of-stream marker.
func (b *Builder) StreamCreate(element Type, values []int64) *Operation {
	return b.Create(KindStreamCreate, nil, []Type{Stream(element)},
		map[string]any{"values": values})
}

// StreamMap applies the region's element transform to every record.
func (b *Builder) StreamMap(input *Value, resultElement Type, body *Region) *Operation {
	op := b.Create(KindStreamMap, []*Value{input}, []Type{Stream(resultElement)}, nil)
	attachRegion(op, body)
	return op
}

// StreamFilter keeps records whose predicate region yields true.
func (b *Builder) StreamFilter(input *Value, body *Region) *Operation {
	st := input.Type.(*StreamType)
	op := b.Create(KindStreamFilter, []*Value{input}, []Type{Stream(st.Element)}, nil)
	attachRegion(op, body)
	return op
}

// StreamReduce folds the stream with the region's binary combine, starting
// from initValue, and emits the final accumulator once.
func (b *Builder) StreamReduce(input *Value, resultElement Type, initValue int64, body *Region) *Operation {
	op := b.Create(KindStreamReduce, []*Value{input}, []Type{Stream(resultElement)},
		map[string]any{"initValue": initValue})
	attachRegion(op, body)
	return op
}

// StreamSplit fans one input stream out into several result streams computed
// by the region.
func (b *Builder) StreamSplit(input *Value, resultElements []Type, body *Region) *Operation {
	resultTypes := make([]Type, len(resultElements))
	for i, e := range resultElements {
		resultTypes[i] = Stream(e)
	}
	op := b.Create(KindStreamSplit, []*Value{input}, resultTypes, nil)
	attachRegion(op, body)
	return op
}

// StreamCombine zips several input streams through the region's N-ary
// combine into one result stream.
func (b *Builder) StreamCombine(inputs []*Value, resultElement Type, body *Region) *Operation {
	op := b.Create(KindStreamCombine, inputs, []Type{Stream(resultElement)}, nil)
	attachRegion(op, body)
	return op
}

// StreamSink consumes and discards a stream.
func (b *Builder) StreamSink(input *Value) *Operation {
	return b.Create(KindStreamSink, []*Value{input}, nil, nil)
}

// StreamPack assembles a (element, eos) record.
func (b *Builder) StreamPack(values ...*Value) *Operation {
	types := make([]Type, len(values))
	for i, v := range values {
		types[i] = v.Type
	}
	return b.Create(KindStreamPack, values, []Type{Tuple(types...)}, nil)
}

// StreamUnpack splits a (element, eos) record.
func (b *Builder) StreamUnpack(tuple *Value) *Operation {
	tt := tuple.Type.(*TupleType)
	return b.Create(KindStreamUnpack, []*Value{tuple}, tt.Elements, nil)
}

// Yield terminates a nested stream region.
func (b *Builder) Yield(operands []*Value) *Operation {
	return b.Create(KindYield, operands, nil, nil)
}

// Return terminates a source function body.
func (b *Builder) Return(operands []*Value) *Operation {
	return b.Create(KindReturn, operands, nil, nil)
}

func attachRegion(op *Operation, body *Region) {
	if body != nil {
		body.Parent = op
		op.Regions = append(op.Regions, body)
	}
}
