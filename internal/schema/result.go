package schema

import "github.com/solescan/solescan/errs"

// OutcomeKind enumerates the terminal outcomes of one pricing request.
type OutcomeKind string

const (
	// OutcomeSuccess carries a resolved identity and its unified price record.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeAmbiguous carries ranked candidates awaiting disambiguation.
	OutcomeAmbiguous OutcomeKind = "ambiguous"
	// OutcomeFailure carries a terminal failure kind and message.
	OutcomeFailure OutcomeKind = "failure"
)

// Candidate is one ranked identity option from the resolver.
type Candidate struct {
	Identity   SneakerIdentity `json:"identity"`
	Confidence float64         `json:"confidence"`
}

// Failure describes a terminal pipeline failure in structured form. The chat
// transport renders the user-facing message; the core only reports kinds.
type Failure struct {
	Kind    errs.Code `json:"kind"`
	Message string    `json:"message,omitempty"`
}

// PricingResult is the sole contract consumed by the chat-transport
// collaborator: exactly one of Record, Candidates, or Failure is populated
// according to Outcome.
type PricingResult struct {
	RequestID  string           `json:"request_id"`
	Outcome    OutcomeKind      `json:"outcome"`
	Identity   *SneakerIdentity `json:"identity,omitempty"`
	Record     *PriceRecord     `json:"record,omitempty"`
	Candidates []Candidate      `json:"candidates,omitempty"`
	Failure    *Failure         `json:"failure,omitempty"`
}
