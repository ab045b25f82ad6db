// Package broadcast implements the client registry at the heart of the
// pulse hub: a set of attached event streams with concurrent fan-out
// delivery and lazy pruning of dead connections.
//
// There is no disconnect notification from the transport. A client that
// went away is only discovered when the next write against its stream
// fails, so the registry treats every broadcast as both delivery and
// health check.
package broadcast

import (
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/pulse/pkg/sse"
)

// Stream is the write end of one attached client's event stream,
// typically backed by a long-lived HTTP response body. Once attached,
// the registry owns the stream exclusively; callers must not write to
// it directly.
type Stream interface {
	// Write pushes one encoded frame to the client. A non-nil error
	// marks the stream dead: the registry drops it and never writes to
	// it again.
	Write(frame []byte) (int, error)

	// Abort forcibly terminates the underlying connection. It is called
	// only during DisconnectAll; a stream pruned after a failed Write is
	// simply dropped.
	Abort()
}

// Registry owns the set of currently attached streams and fans
// broadcast frames out to all of them.
//
// All methods are safe for concurrent use. Attach is called from
// request handlers; Broadcast, Heartbeat, DisconnectAll and Count come
// from whichever driver the surrounding process runs (ticker loop,
// console, publish endpoint).
type Registry struct {
	logger *zap.Logger

	// sendMu serializes Broadcast, Heartbeat and DisconnectAll against
	// each other. While a broadcast's writes are in flight the only
	// other possible mutation of streams is an append by Attach, which
	// the retain step preserves.
	sendMu sync.Mutex

	// mu guards streams. Held only for collection bookkeeping, never
	// across stream I/O.
	mu      sync.Mutex
	streams []Stream
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// Attach hands ownership of stream to the registry. It always succeeds;
// capacity policy, if any, belongs to the caller. The stream stays
// attached until a write against it fails or DisconnectAll is called.
// Attaching an already-dead stream is fine: its first failed write
// prunes it like any other.
func (r *Registry) Attach(stream Stream) {
	r.mu.Lock()
	r.streams = append(r.streams, stream)
	n := len(r.streams)
	r.mu.Unlock()

	r.logger.Debug("stream attached", zap.Int("clients", n))
}

// Broadcast writes frame to every attached stream and prunes the
// streams whose write failed. It returns the number of streams still
// attached afterwards.
//
// The per-stream writes run concurrently: a slow client delays only the
// completion of this call, never delivery to the others. The call
// returns once every write has resolved. No write deadline is imposed
// here; a client that accepts the connection but never drains it stalls
// this call indefinitely, so the transport layer should enforce
// per-connection write deadlines if that matters.
func (r *Registry) Broadcast(frame []byte) int {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	r.mu.Lock()
	attached := make([]Stream, len(r.streams))
	copy(attached, r.streams)
	r.mu.Unlock()

	ok := make([]bool, len(attached))
	var wg sync.WaitGroup
	wg.Add(len(attached))
	for i, stream := range attached {
		go func() {
			defer wg.Done()
			_, err := stream.Write(frame)
			ok[i] = err == nil
		}()
	}
	wg.Wait()

	r.mu.Lock()
	live := make([]Stream, 0, len(r.streams))
	for i := range attached {
		if ok[i] {
			live = append(live, attached[i])
		}
	}
	pruned := len(attached) - len(live)
	// Streams attached while the writes were in flight sit past the
	// snapshot. They received nothing and are kept as-is.
	live = append(live, r.streams[len(attached):]...)
	r.streams = live
	n := len(live)
	r.mu.Unlock()

	if pruned > 0 {
		r.logger.Debug("pruned dead streams",
			zap.Int("pruned", pruned),
			zap.Int("clients", n),
		)
	}

	return n
}

// Heartbeat broadcasts the comment-only keep-alive frame. It carries no
// application data and exists purely to defeat idle-connection
// timeouts; dead streams are pruned exactly as in Broadcast.
func (r *Registry) Heartbeat() int {
	return r.Broadcast(sse.Heartbeat())
}

// DisconnectAll aborts every attached stream and empties the registry.
// Unlike pruning, this actively tears down the underlying connections.
// Call it during server shutdown, before stopping the transport.
func (r *Registry) DisconnectAll() {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	r.mu.Lock()
	streams := r.streams
	r.streams = nil
	r.mu.Unlock()

	for _, stream := range streams {
		stream.Abort()
	}

	if len(streams) > 0 {
		r.logger.Info("disconnected all streams", zap.Int("count", len(streams)))
	}
}

// Count returns the number of attached streams without touching any of
// them. It can over-count truly connected clients: a client that
// disconnected since the last Broadcast or Heartbeat is still included
// until its next failed write.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
