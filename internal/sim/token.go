package sim

// TokenKind discriminates the payloads flowing through a simulated net.
type TokenKind int

const (
	TokenInt TokenKind = iota
	TokenCtrl
	TokenTuple
)

// Token is one value on a dataflow edge: an integer, a value-less control
// pulse, or a tuple of further tokens.
type Token struct {
	Kind  TokenKind
	Int   int64
	Parts []Token
}

// Int64 creates an integer token. Booleans travel as 0/1.
func Int64(v int64) Token { return Token{Kind: TokenInt, Int: v} }

// Ctrl creates a control token.
func Ctrl() Token { return Token{Kind: TokenCtrl} }

// TupleOf creates a tuple token.
func TupleOf(parts ...Token) Token { return Token{Kind: TokenTuple, Parts: parts} }

// Record creates the (element, eos) record a lowered stream carries.
func Record(value int64, eos bool) Token {
	e := int64(0)
	if eos {
		e = 1
	}
	return TupleOf(Int64(value), Int64(e))
}

// Rec is a decoded (element, eos) record, convenient for assertions.
type Rec struct {
	Value int64
	EOS   bool
}

// AsRecord decodes a record token.
func (t Token) AsRecord() Rec {
	return Rec{Value: t.Parts[0].Int, EOS: t.Parts[1].Int != 0}
}

// Records decodes a token slice.
func Records(tokens []Token) []Rec {
	out := make([]Rec, len(tokens))
	for i, t := range tokens {
		out[i] = t.AsRecord()
	}
	return out
}
