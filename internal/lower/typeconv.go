package lower

import (
	"riffle/internal/errors"
	"riffle/internal/ir"
)

// TypeConverter maps stream types to their lowered representation: a
// (element, eos) tuple channel plus a control-token channel. Every other
// type converts to itself. The mapping is pure; a converter carries no
// state and one is constructed per pass invocation.
type TypeConverter struct{}

// NewTypeConverter creates a type converter.
func NewTypeConverter() *TypeConverter {
	return &TypeConverter{}
}

// ConvertType returns the lowered type list for a single type.
func (tc *TypeConverter) ConvertType(t ir.Type) ([]ir.Type, error) {
	st, ok := t.(*ir.StreamType)
	if !ok {
		return []ir.Type{t}, nil
	}
	// The dataflow buffers only carry integers today, so streams of
	// anything else cannot be encoded.
	if _, ok := st.Element.(*ir.IntType); !ok {
		return nil, errors.New(errors.ErrorUnsupportedType,
			"stream element type %s is not scalar-representable", st.Element)
	}
	return []ir.Type{ir.Tuple(st.Element, ir.I1()), ir.None()}, nil
}

// ConvertTypes flattens the lowered forms of a type list.
func (tc *TypeConverter) ConvertTypes(types []ir.Type) ([]ir.Type, error) {
	var out []ir.Type
	for _, t := range types {
		conv, err := tc.ConvertType(t)
		if err != nil {
			return nil, err
		}
		out = append(out, conv...)
	}
	return out, nil
}

// ReconstructType maps a lowered (tuple, control) pair back to the stream
// type it encodes, for bridging instantiation results to their original
// typing.
func (tc *TypeConverter) ReconstructType(tuple, ctrl ir.Type) (ir.Type, bool) {
	tt, ok := tuple.(*ir.TupleType)
	if !ok || len(tt.Elements) != 2 {
		return nil, false
	}
	if _, ok := ctrl.(*ir.NoneType); !ok {
		return nil, false
	}
	eos, ok := tt.Elements[1].(*ir.IntType)
	if !ok || eos.Bits != 1 {
		return nil, false
	}
	return ir.Stream(tt.Elements[0]), true
}
