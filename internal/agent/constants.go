package agent

// Engine configuration constants
const (
	// EventBuffer bounds the boundary event stream; slow consumers drop
	// events rather than stalling the polling loops.
	EventBuffer = 100
)
