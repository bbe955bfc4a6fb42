package types

// Event is a typed event as reported to callers. Contract is the id of the
// emitting contract and is filled in by the host.
type Event struct {
	Contract   string            `json:"contract,omitempty"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
