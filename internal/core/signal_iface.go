package core

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Event is the outbound wire envelope: an event name plus its payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
