package errors

// Error codes for the lowering pass. The codes identify failure kinds
// consistently across logs and reports.
//
// Code ranges:
// P0001-P0099: type conversion failures
// P0100-P0199: structural input violations
// P0200-P0299: post-pass legality failures

const (
	// P0001: stream element type not representable in the dataflow dialect
	ErrorUnsupportedType = "P0001"

	// P0002: reduce accumulator is not the supported 64-bit integer type
	ErrorUnsupportedAccumulatorType = "P0002"

	// P0003: control-token resolution cannot terminate
	ErrorMalformedControlChain = "P0003"

	// P0004: function signature type list conversion failed
	ErrorSignatureConversion = "P0004"

	// P0100: nested region is not in the single-block structured form
	ErrorMalformedRegion = "P0100"

	// P0200: post-pass single-use verification failed
	ErrorVerification = "P0200"
)
