// Package ir holds the in-memory intermediate representation shared by the
// stream dialect (the lowering's input) and the dataflow dialect (its
// output). Operations are generic nodes tagged with a closed OpKind set;
// values are in SSA form with tracked use lists so structural rewrites can
// rewire consumers safely.
package ir
