package shipping

// Outcome classifies how a quote or shipment attempt ended.
type Outcome string

const (
	// OutcomeSuccess means the carrier answered and its result was used.
	OutcomeSuccess Outcome = "success"
	// OutcomeFallback means the carrier failed and a static default was used.
	OutcomeFallback Outcome = "fallback"
	// OutcomeError means no usable result could be produced.
	OutcomeError Outcome = "error"
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	return string(o)
}
