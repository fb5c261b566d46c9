package ports

// ModerationServer defines the interface for the transport layer that
// exposes the moderation service to callers.
type ModerationServer interface {
	// Start starts serving requests
	Start() error

	// Stop stops the server
	Stop() error
}
