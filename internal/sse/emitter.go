package sse

// Emitter accepts events for broadcasting. Emit must not block.
type Emitter interface {
	Emit(event any)
}

// NoopEmitter discards every event.
type NoopEmitter struct{}

// Emit implements Emitter as a no-op.
func (NoopEmitter) Emit(_ any) {}
